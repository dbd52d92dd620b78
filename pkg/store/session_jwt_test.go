package store

import (
	"testing"
	"time"
)

func TestJWTSessionRoundTrip(t *testing.T) {
	sessions, err := NewJWTSessionStore("test-secret", time.Hour, "studyai")
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	token, err := sessions.NewSession(42)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	id, ok, err := sessions.UserIDByToken(token)
	if err != nil || !ok {
		t.Fatalf("validate session: ok=%v err=%v", ok, err)
	}
	if id != 42 {
		t.Fatalf("expected user 42, got %d", id)
	}
}

func TestJWTSessionRejectsForeignSignature(t *testing.T) {
	issuerA, err := NewJWTSessionStore("secret-a", time.Hour, "studyai")
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	issuerB, err := NewJWTSessionStore("secret-b", time.Hour, "studyai")
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	token, err := issuerA.NewSession(1)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, err := issuerB.UserIDByToken(token); err == nil && ok {
		t.Fatalf("token signed with another secret must not validate")
	}
}

func TestJWTSessionRejectsExpired(t *testing.T) {
	sessions, err := NewJWTSessionStore("test-secret", -time.Minute, "studyai")
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	// ttl <= 0 falls back to the default, so build an expired token by
	// issuing with a tiny ttl instead.
	sessions.ttl = time.Nanosecond
	token, err := sessions.NewSession(7)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, err := sessions.UserIDByToken(token); err == nil && ok {
		t.Fatalf("expired token must not validate")
	}
}

func TestJWTSessionRejectsGarbage(t *testing.T) {
	sessions, err := NewJWTSessionStore("test-secret", time.Hour, "studyai")
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	if _, ok, err := sessions.UserIDByToken("not.a.token"); err == nil && ok {
		t.Fatalf("garbage token must not validate")
	}
}

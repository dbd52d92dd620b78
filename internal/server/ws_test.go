package server

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"studyai/internal/chat"
)

func dialWS(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, name string, payload any) {
	t.Helper()
	event, err := chat.NewEvent(name, payload)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if err := conn.WriteJSON(event); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) chat.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event chat.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

func TestWebsocketJoinAndMessage(t *testing.T) {
	b := newTestBackend(t, &stubGenerator{})

	alice := dialWS(t, b.server.URL)
	bob := dialWS(t, b.server.URL)

	sendEvent(t, alice, "join", joinPayload{Username: "alice", Peer: "bob"})
	joined := readEvent(t, alice)
	if joined.Event != "status" {
		t.Fatalf("event = %q, want status", joined.Event)
	}
	var status statusPayload
	if err := json.Unmarshal(joined.Data, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Msg != "alice joined alice_bob" {
		t.Fatalf("status msg = %q", status.Msg)
	}

	sendEvent(t, bob, "join", joinPayload{Username: "bob", Peer: "alice"})
	// Both members of the room see bob's join notice.
	if got := readEvent(t, bob); got.Event != "status" {
		t.Fatalf("bob join event = %q, want status", got.Event)
	}
	if got := readEvent(t, alice); got.Event != "status" {
		t.Fatalf("alice event = %q, want status", got.Event)
	}

	sendEvent(t, alice, "send_message", sendMessagePayload{
		Sender:   "alice",
		Receiver: "bob",
		Message:  "hi bob",
	})
	received := readEvent(t, bob)
	if received.Event != "receive_message" {
		t.Fatalf("event = %q, want receive_message", received.Event)
	}
	var msg receiveMessagePayload
	if err := json.Unmarshal(received.Data, &msg); err != nil {
		t.Fatalf("decode receive_message: %v", err)
	}
	if msg.Sender != "alice" || msg.Message != "hi bob" {
		t.Fatalf("payload = %+v", msg)
	}

	// The message was persisted before broadcast.
	deadline := time.Now().Add(2 * time.Second)
	for {
		history, err := b.app.History("bob")
		if err != nil {
			t.Fatalf("History: %v", err)
		}
		if len(history) == 1 {
			if history[0].Body != "hi bob" {
				t.Fatalf("history body = %q", history[0].Body)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("history has %d messages, want 1", len(history))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebsocketMessageNotDeliveredAcrossRooms(t *testing.T) {
	b := newTestBackend(t, &stubGenerator{})

	alice := dialWS(t, b.server.URL)
	carol := dialWS(t, b.server.URL)

	sendEvent(t, alice, "join", joinPayload{Username: "alice", Peer: "bob"})
	readEvent(t, alice)
	sendEvent(t, carol, "join", joinPayload{Username: "carol", Peer: "dave"})
	readEvent(t, carol)

	sendEvent(t, alice, "send_message", sendMessagePayload{
		Sender:   "alice",
		Receiver: "bob",
		Message:  "private",
	})

	carol.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var event chat.Event
	if err := carol.ReadJSON(&event); err == nil {
		t.Fatalf("carol received %q from another room", event.Event)
	}
}

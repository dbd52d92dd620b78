package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFileStoreSaveAndOpen(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()
	if err := fs.Save(ctx, "notes.txt", strings.NewReader("hello"), 5); err != nil {
		t.Fatalf("save: %v", err)
	}
	r, err := fs.Open(ctx, "notes.txt")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()
	if err := fs.Save(ctx, "notes.txt", strings.NewReader("first"), 5); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := fs.Save(ctx, "notes.txt", strings.NewReader("second"), 6); err != nil {
		t.Fatalf("save second: %v", err)
	}
	r, err := fs.Open(ctx, "notes.txt")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "second" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}

func TestFileStoreOpenMissing(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if _, err := fs.Open(context.Background(), "absent.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSafeFilename(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd": "passwd",
		"notes.txt":        "notes.txt",
		"  ":               "document",
		"..":               "document",
	}
	for in, want := range cases {
		if got := SafeFilename(in); got != want {
			t.Fatalf("SafeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

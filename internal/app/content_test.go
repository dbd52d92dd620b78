package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"studyai/pkg/storage"
)

func saveBlob(t *testing.T, blobs storage.BlobStore, filename string, data []byte) {
	t.Helper()
	if err := blobs.Save(context.Background(), filename, strings.NewReader(string(data)), int64(len(data))); err != nil {
		t.Fatalf("Save %s: %v", filename, err)
	}
}

func TestLoadTextDropsInvalidUTF8(t *testing.T) {
	app, _, blobs := newTestApp(t, &stubGenerator{})

	data := append([]byte("Paris is the "), 0xff, 0xfe)
	data = append(data, []byte(" capital of France.")...)
	saveBlob(t, blobs, "notes.txt", data)

	text, err := app.loadText(context.Background(), "notes.txt")
	if err != nil {
		t.Fatalf("loadText: %v", err)
	}
	if !strings.Contains(text, "Paris is the") || !strings.Contains(text, "capital of France.") {
		t.Fatalf("text = %q, expected surrounding content preserved", text)
	}
	if strings.ContainsRune(text, '�') || strings.Contains(text, "\xff") {
		t.Fatalf("text = %q, expected malformed bytes removed", text)
	}
}

func TestLoadTextMissingBlob(t *testing.T) {
	app, _, _ := newTestApp(t, &stubGenerator{})

	_, err := app.loadText(context.Background(), "nope.txt")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want storage.ErrNotFound", err)
	}
}

func TestLoadTextHTMLStripsScriptAndStyle(t *testing.T) {
	app, _, blobs := newTestApp(t, &stubGenerator{})

	page := `<html><head>
<style>body { color: red; }</style>
<script>console.log("tracking");</script>
</head><body>
<h1>Photosynthesis</h1>
<p>Plants convert light into energy.</p>
</body></html>`
	saveBlob(t, blobs, "lesson.html", []byte(page))

	text, err := app.loadText(context.Background(), "lesson.html")
	if err != nil {
		t.Fatalf("loadText: %v", err)
	}
	if !strings.Contains(text, "Photosynthesis") || !strings.Contains(text, "Plants convert light into energy.") {
		t.Fatalf("text = %q, expected body content", text)
	}
	if strings.Contains(text, "color: red") || strings.Contains(text, "tracking") {
		t.Fatalf("text = %q, expected script/style content stripped", text)
	}
}

func TestLoadTextHtmExtension(t *testing.T) {
	app, _, blobs := newTestApp(t, &stubGenerator{})

	saveBlob(t, blobs, "lesson.htm", []byte("<p>Water boils at <b>100</b> degrees.</p>"))

	text, err := app.loadText(context.Background(), "lesson.htm")
	if err != nil {
		t.Fatalf("loadText: %v", err)
	}
	if !strings.Contains(text, "Water boils at") || !strings.Contains(text, "100") {
		t.Fatalf("text = %q, expected markup removed and text kept", text)
	}
	if strings.Contains(text, "<p>") || strings.Contains(text, "<b>") {
		t.Fatalf("text = %q, expected no tags", text)
	}
}

func TestLoadTextRejectsUnreadablePDF(t *testing.T) {
	app, _, blobs := newTestApp(t, &stubGenerator{})

	saveBlob(t, blobs, "broken.pdf", []byte("this is not a pdf"))

	if _, err := app.loadText(context.Background(), "broken.pdf"); err == nil {
		t.Fatal("expected error for an unreadable pdf")
	}
}

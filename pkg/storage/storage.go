package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound indicates the requested blob does not exist.
var ErrNotFound = errors.New("blob not found")

// BlobStore persists uploaded document bytes keyed by sanitized filename.
// Saving an existing key overwrites the stored bytes.
type BlobStore interface {
	Save(ctx context.Context, filename string, r io.Reader, size int64) error
	Open(ctx context.Context, filename string) (io.ReadCloser, error)
}

// SafeFilename strips any path components from an uploaded filename.
// Callers must sanitize before handing a name to a BlobStore or the
// document metadata store.
func SafeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "document"
	}
	return name
}

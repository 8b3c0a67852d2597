package core

import (
	"context"
	"io"
)

// FileStore persists uploaded files and returns the URL they are served from.
type FileStore interface {
	Save(ctx context.Context, filename string, content io.Reader) (url string, err error)
	// Delete removes the file behind url. Unknown urls are ignored.
	Delete(ctx context.Context, url string) error
}

package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrObjectNotFound = errors.New("object not found")

	ErrInvalidKey = errors.New("invalid object key")
)

type ObjectInfo struct {
	Key     string
	URL     string
	Size    int64
	ModTime time.Time
}

// Store is the generic blob capability the session adapter layers on.
// Writes are last-write-wins; there is no versioning.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	URL(key string) string
}

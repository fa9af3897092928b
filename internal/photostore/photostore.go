// Package photostore keeps uploaded photo bytes. Photo references in the
// inventory point at storage keys issued here; the bytes are released when
// the reference is removed or replaced.
package photostore

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound   = errors.New("photo not found")
	ErrInvalidKey = errors.New("invalid storage key")
)

type PhotoStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}

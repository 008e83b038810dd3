// Package blob stores opaque binary objects and hands back a reference URL.
// Only the reference ever reaches the message thread.
package blob

import (
	"context"
	"io"
)

type Store interface {
	// Put writes the object under key and returns its public reference.
	Put(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
}

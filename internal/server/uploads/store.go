// Package uploads accepts cover images for posts and keeps them in a Store,
// either a local directory or an S3-compatible bucket.
package uploads

import (
	"context"
	"io"
	"time"
)

// Store keeps image bytes under flat keys.
type Store interface {
	// Put writes body under key and returns the number of bytes written.
	Put(ctx context.Context, key string, body io.Reader, contentType string) (int64, error)
	// Get opens key. Missing keys yield common.ErrorNotFound.
	Get(ctx context.Context, key string) (*Object, error)
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// Object is an opened stored image. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
	ModTime     time.Time
}

// Image is an uploaded file as it arrives from the client.
type Image struct {
	Filename    string
	ContentType string
	// Size is the length claimed by the multipart header.
	Size int64
	Body io.Reader
}

package metadata

import (
	"context"
)

// Repository is a small key/value table for cache bookkeeping such as the
// time of the last refresh.
type Repository interface {
	// Get returns ok=false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

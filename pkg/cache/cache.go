package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service stores opaque byte values with a per-entry expiration.
// A non-positive expiration means the backend default.
type Service interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// GenerateKey joins a prefix and an id.
func GenerateKey(prefix string, id string) string {
	return prefix + ":" + id
}

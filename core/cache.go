package core

import (
	"context"
	"time"
)

// Cache stores JSON encoded values under string keys.
// A miss is reported with found == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (found bool, err error)
	// Set stores val under key. A zero ttl uses the cache default.
	Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

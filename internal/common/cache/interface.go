package cache

import (
	"context"
	"time"
)

// Cache defines the cache operations used by the service.
type Cache interface {
	BasicOps

	// Ping verifies the cache connection is alive
	Ping(ctx context.Context) error

	// Close closes the cache connection
	Close() error
}

// BasicOps defines the counter operations used by the login guard.
type BasicOps interface {
	// Get retrieves the value for the given key.
	// A missing key yields "" and a nil error.
	Get(ctx context.Context, key string) (string, error)

	// Del deletes one or more keys
	Del(ctx context.Context, keys ...string) error

	// IncrWithTTL increments a counter and starts its expiry window on first use.
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

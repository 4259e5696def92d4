package cache

import (
	"context"
	"time"
)

// Cache is the contract for the cache layer, allowing the Redis
// implementation to be swapped out in tests.
type Cache interface {
	// Get loads the value stored under key and unmarshals it into dest.
	// found = false means cache miss; dest is left untouched.
	Get(ctx context.Context, key string, dest interface{}) (found bool, err error)

	// Set stores value under key with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes keys from the cache.
	Delete(ctx context.Context, keys ...string) error

	// Ping verifies the connection.
	Ping(ctx context.Context) error
}

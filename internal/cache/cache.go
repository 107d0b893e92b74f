// Package cache provides the key/value store used for counters and short-lived lookups.
// Redis is preferred; an in-memory store takes over when Redis is not configured or unreachable.
package cache

import (
	"context"
	"time"
)

// Cache is the subset of Redis semantics the service relies on.
// Get returns "" with a nil error when the key is missing.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Increment atomically adds one to the integer at key, creating it at 1.
	Increment(ctx context.Context, key string) (int64, error)
	// IncrementBy atomically adds n to the integer at key.
	IncrementBy(ctx context.Context, key string, n int64) (int64, error)
	// Scan returns every key matching a glob pattern.
	Scan(ctx context.Context, pattern string) ([]string, error)
	// GetAndDeleteMany reads integer values and removes the keys in one step.
	// Keys that are missing or not integers are left out of the result.
	GetAndDeleteMany(ctx context.Context, keys []string) (map[string]int64, error)
	Ping(ctx context.Context) error
}

// Kind names the backend behind a Cache.
type Kind string

const (
	KindRedis  Kind = "redis"
	KindMemory Kind = "memory"
)

// KindOf reports which backend c uses.
func KindOf(c Cache) Kind {
	if _, ok := c.(*redisCache); ok {
		return KindRedis
	}
	return KindMemory
}

// Package cache provides the shared key-value store used for rate-limit
// counters, the sitemap cache and the cache health probe.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Counter is one windowed counter checked by IncrBelow.
type Counter struct {
	Key   string
	Limit int64
	// TTL is applied only when the increment creates the key.
	TTL time.Duration
}

// Store is a key-value store with expiry and an atomic counter primitive.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// IncrBelow atomically reads every counter and, only when each is below
	// its limit, increments all of them. Rejected calls change nothing.
	IncrBelow(ctx context.Context, counters ...Counter) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// Package cachemanager provides a generic TTL cache used for
// session-scoped content caching.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is the cache contract the session engine depends on.
// Implementations must be safe for concurrent readers.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetMultiple(ctx context.Context, keys []K) (map[K]V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Count(ctx context.Context) int
	Flush(ctx context.Context) error
}

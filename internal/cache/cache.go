// Package cache keeps short-lived copies of remote lookups such as the master
// data lists.
package cache

import (
	"context"
	"time"
)

// Cache is a key-value cache with a TTL per entry.
type Cache[K comparable, V any] interface {
	// Get returns the value and whether it was present and not expired.
	Get(key K) (V, bool)
	// Set stores the value. A ttl <= 0 never expires.
	Set(key K, value V, ttl time.Duration)
	// Delete removes a key if present.
	Delete(key K)
	// GetOrLoad returns the cached value or loads, stores and returns it.
	GetOrLoad(ctx context.Context, key K, ttl time.Duration, load LoadFunc[V]) (V, error)
	// Len returns the number of entries that have not expired.
	Len() int
	// Clear drops every entry.
	Clear()
}

// LoadFunc fetches a value on a cache miss.
type LoadFunc[V any] func(ctx context.Context) (V, error)

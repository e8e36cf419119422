package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiration
}

func (e entry[V]) expired(at time.Time) bool {
	return !e.expiresAt.IsZero() && at.After(e.expiresAt)
}

// TTLCache is a map backed cache safe for concurrent use. Expired entries are
// dropped lazily on write and by PurgeExpired. Concurrent loads of the same key
// share one call.
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]entry[V]
	group singleflight.Group
}

// NewTTLCache returns an empty cache.
func NewTTLCache[K comparable, V any]() *TTLCache[K, V] {
	return &TTLCache[K, V]{items: make(map[K]entry[V])}
}

// now is swapped in tests.
var now = time.Now

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	e, ok := c.items[key]
	if !ok || e.expired(now()) {
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = now().Add(ttl)
	}
	c.items[key] = entry[V]{value: value, expiresAt: exp}
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *TTLCache[K, V]) GetOrLoad(ctx context.Context, key K, ttl time.Duration, load LoadFunc[V]) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(fmt.Sprint(key), func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	at := now()
	n := 0
	for _, e := range c.items {
		if !e.expired(at) {
			n++
		}
	}
	return n
}

func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]entry[V])
}

// PurgeExpired removes expired entries.
func (c *TTLCache[K, V]) PurgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	at := now()
	for k, e := range c.items {
		if e.expired(at) {
			delete(c.items, k)
		}
	}
}

var _ Cache[string, int] = (*TTLCache[string, int])(nil)

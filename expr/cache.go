package expr

import (
	"sync"
	"sync/atomic"
)

// Cache is a concurrent memoization map. Concurrent misses on one key may
// build the value more than once; the first stored value wins and every
// caller observes it. Values must be pure functions of their key.
type Cache[K comparable, V any] struct {
	m      sync.Map
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats reports cache usage.
type CacheStats struct {
	Hits   int64
	Misses int64
	Len    int
}

// Get returns the value stored for key, building and storing it on a miss.
// Build errors are returned and nothing is stored.
func (c *Cache[K, V]) Get(key K, build func(K) (V, error)) (V, error) {
	if v, ok := c.m.Load(key); ok {
		c.hits.Add(1)
		return v.(V), nil
	}
	c.misses.Add(1)
	v, err := build(key)
	if err != nil {
		return v, err
	}
	actual, _ := c.m.LoadOrStore(key, v)
	return actual.(V), nil
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() CacheStats {
	n := 0
	c.m.Range(func(any, any) bool {
		n++
		return true
	})
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Len: n}
}

// Reset drops every entry and zeroes the counters.
func (c *Cache[K, V]) Reset() {
	c.m.Clear()
	c.hits.Store(0)
	c.misses.Store(0)
}

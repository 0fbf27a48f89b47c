// Package cache provides a small thread-safe TTL cache for derived
// structures loaded from disk. It is per-process only; cross-process
// freshness is bounded by the TTL, not by invalidation.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value    any
	insertAt time.Time
}

// Cache maps string keys to values that expire after a fixed TTL.
// Construct with New and inject it; there is no package-level instance.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache whose entries expire ttl after insertion.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: map[string]entry{},
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the value for key if it has not expired. Expired entries are
// evicted on access.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.insertAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, resetting its insertion time.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, insertAt: c.now()}
}

// Invalidate removes the given keys, or everything when called with none.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(keys) == 0 {
		c.entries = map[string]entry{}
		return
	}
	for _, k := range keys {
		delete(c.entries, k)
	}
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

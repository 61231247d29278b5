package ttlcache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is an in-memory key/value store with per-entry expiry. Expired
// entries are evicted lazily on Get and in bulk by Sweep. There is no size
// bound: the working set is a handful of query results, so growth over a
// scraper's lifetime stays small.
type Cache[V any] struct {
	mu         sync.Mutex
	defaultTTL time.Duration
	entries    map[string]entry[V]
}

func New[V any](defaultTTL time.Duration) *Cache[V] {
	return &Cache[V]{
		defaultTTL: defaultTTL,
		entries:    make(map[string]entry[V]),
	}
}

// Get returns the live value under key. An expired entry is deleted and
// reported as missing.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(ent.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return ent.value, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value under key with an explicit TTL.
func (c *Cache[V]) SetTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep drops every expired entry and reports how many were removed.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, ent := range c.entries {
		if now.After(ent.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

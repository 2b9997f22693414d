// Package cache provides a small in-memory TTL cache.
//
// The cache is an explicit value handed to whoever needs it rather than
// package-level state, so tests can construct their own instance and
// inject a clock.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is used when a cache is constructed with a non-positive TTL.
const DefaultTTL = 5 * time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache maps string keys to values with a per-entry expiry.
type Cache[V any] struct {
	ttl time.Duration

	mu    sync.RWMutex
	items map[string]entry[V]

	timeNow func() time.Time
}

// New creates a cache whose entries expire ttl after they are set.
func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		ttl:     ttl,
		items:   make(map[string]entry[V]),
		timeNow: time.Now,
	}
}

// Get returns the value for key and whether a live entry was found.
// Expired entries are treated as missing.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || c.timeNow().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[V]{
		value:     value,
		expiresAt: c.timeNow().Add(ttl),
	}
}

// Delete removes key from the cache.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len returns the number of entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// PurgeExpired drops all expired entries and returns how many were removed.
func (c *Cache[V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.timeNow()
	removed := 0
	for key, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

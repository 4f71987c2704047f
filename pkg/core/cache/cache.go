// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     cache
// Description: Small in-memory TTL cache
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package cache

import (
	"sync"
	"time"
)

// entry is a cached item with expiration
type entry[V any] struct {
	value   V
	expires time.Time
	added   time.Time
}

func (e *entry[V]) expired(now time.Time) bool {
	if e.expires.IsZero() {
		return false
	}
	return !now.Before(e.expires)
}

// Config holds cache configuration
type Config struct {
	MaxItems int
	TTL      time.Duration // zero = never expires

	// Now overrides the clock (tests)
	Now func() time.Time
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		MaxItems: 256,
		TTL:      10 * time.Minute,
	}
}

// Cache is a thread-safe in-memory cache with TTL support. Expired
// entries are dropped lazily; when full, the oldest entry is evicted.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	items    map[K]*entry[V]
	maxItems int
	ttl      time.Duration
	now      func() time.Time

	hits   int64
	misses int64
}

// New creates a new cache instance
func New[K comparable, V any](cfg Config) *Cache[K, V] {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultConfig().MaxItems
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache[K, V]{
		items:    make(map[K]*entry[V]),
		maxItems: cfg.MaxItems,
		ttl:      cfg.TTL,
		now:      cfg.Now,
	}
}

// Get retrieves a value from the cache
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if ok && e.expired(c.now()) {
		delete(c.items, key)
		ok = false
	}
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set stores a value with the default TTL
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxItems {
		c.purgeExpired(now)
		if len(c.items) >= c.maxItems {
			c.evictOldest()
		}
	}

	e := &entry[V]{value: value, added: now}
	if c.ttl > 0 {
		e.expires = now.Add(c.ttl)
	}
	c.items[key] = e
}

// Delete removes a value from the cache
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*entry[V])
}

// Len returns the number of items, expired ones included
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns hit and miss counts and the hit rate in percent
func (c *Cache[K, V]) Stats() (hits, misses int64, hitRate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hits = c.hits
	misses = c.misses
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return
}

// purgeExpired must be called with the lock held
func (c *Cache[K, V]) purgeExpired(now time.Time) {
	for key, e := range c.items {
		if e.expired(now) {
			delete(c.items, key)
		}
	}
}

// evictOldest must be called with the lock held
func (c *Cache[K, V]) evictOldest() {
	var (
		oldestKey K
		oldest    time.Time
		found     bool
	)
	for key, e := range c.items {
		if !found || e.added.Before(oldest) {
			oldestKey, oldest, found = key, e.added, true
		}
	}
	if found {
		delete(c.items, oldestKey)
	}
}

// file: internal/cache/cache.go
// version: 2.1.0
// guid: a1b2c3d4-e5f6-7a8b-9c0d-1e2f3a4b5c6d

// Package cache holds catalog lookups for the lifetime of one run so the same
// recording or query is not fetched twice under the catalog's rate limit.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Stats counts lookups served from, and missed by, a cache
type Stats struct {
	Hits   int64
	Misses int64
}

// Cache is a generic TTL cache safe for concurrent use. Keys are compared
// case-insensitively after trimming whitespace.
type Cache[T any] struct {
	mu         sync.Mutex
	items      map[string]entry[T]
	defaultTTL time.Duration
	stats      Stats
	now        func() time.Time
}

// New creates a cache with the given default TTL
func New[T any](defaultTTL time.Duration) *Cache[T] {
	return &Cache[T]{
		items:      make(map[string]entry[T]),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Key joins parts into a normalized cache key
func Key(parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = normalize(p)
	}
	return strings.Join(norm, "\x1f")
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Get retrieves a value if it exists and hasn't expired. Expired entries are
// dropped on access.
func (c *Cache[T]) Get(key string) (T, bool) {
	key = normalize(key)
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if ok && c.now().After(e.expiresAt) {
		delete(c.items, key)
		ok = false
	}
	if !ok {
		c.stats.Misses++
		var zero T
		return zero, false
	}
	c.stats.Hits++
	return e.value, true
}

// Set stores a value with the default TTL
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	c.items[normalize(key)] = entry[T]{value: value, expiresAt: c.now().Add(c.defaultTTL)}
	c.mu.Unlock()
}

// GetOrLoad returns the cached value for key or calls load and caches its
// result. Errors are returned to the caller and never cached, so a transient
// network failure is retried on the next lookup.
func (c *Cache[T]) GetOrLoad(key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// Stats returns a snapshot of hit and miss counts
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

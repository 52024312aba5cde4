// Package memory provides an in-memory cache.Cache, used when no Redis
// address is configured and as the offline fallback.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/skycast/domain/cache"
)

// entry holds a cached value with expiration.
type entry struct {
	value     []byte
	expiresAt time.Time
	accessAt  time.Time
}

// expired reports whether the entry's TTL has elapsed.
func (e *entry) expired(now time.Time) bool {
	if e.expiresAt.IsZero() {
		return false
	}
	return now.After(e.expiresAt)
}

// Cache is an in-memory implementation of cache.Cache with TTL-based expiry.
// When the entry cap is reached, the least recently accessed entry is evicted
// to make room.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	maxSize int
	hits    int64
	misses  int64
}

// Option configures the cache.
type Option func(*Cache)

// WithMaxSize sets the maximum number of entries.
func WithMaxSize(size int) Option {
	return func(c *Cache) {
		c.maxSize = size
	}
}

// NewCache creates a new in-memory cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		maxSize: 1000,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value from the cache. An expired entry is removed and
// reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}

	if e.expired(time.Now()) {
		delete(c.entries, key)
		c.misses++
		return nil, false, nil
	}

	e.accessAt = time.Now()
	c.hits++

	// Return a copy to prevent mutation of the stored payload.
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, true, nil
}

// Set stores a value, replacing any prior value whole.
func (c *Cache) Set(ctx context.Context, key string, value []byte, opts cache.SetOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if key == "" {
		return cache.ErrInvalidKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	if len(c.entries) >= c.maxSize {
		return cache.ErrCacheFull
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	e := &entry{
		value:    valueCopy,
		accessAt: time.Now(),
	}
	if opts.TTL > 0 {
		e.expiresAt = time.Now().Add(opts.TTL)
	}

	c.entries[key] = e
	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Exists checks if a key exists and has not expired.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return false, nil
	}

	return !e.expired(time.Now()), nil
}

// Clear removes all entries from the cache.
func (c *Cache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	return nil
}

// Stats returns cache statistics.
func (c *Cache) Stats() cache.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return cache.Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		Size:    int64(len(c.entries)),
		MaxSize: int64(c.maxSize),
	}
}

// Sweep removes expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var removed int
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Size returns the current number of entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictOldest removes the least recently accessed entry.
// Must be called with the write lock held.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, e := range c.entries {
		if oldestKey == "" || e.accessAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.accessAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Ensure Cache implements the domain interfaces.
var (
	_ cache.Cache         = (*Cache)(nil)
	_ cache.StatsProvider = (*Cache)(nil)
)

// Package store implements browse.Cache on top of process memory, Redis and
// PostgreSQL.
package store

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
)

// Compile-time check: *MemoryCache implements browse.Cache.
var _ browse.Cache = (*MemoryCache)(nil)

type memoryEntry struct {
	value    []byte
	expireAt time.Time
}

// MemoryCache is a process-local cache backed by ttlcache. Reads never extend
// an entry's lifetime. Expired entries read as absent; StartEviction also
// removes them in the background.
type MemoryCache struct {
	items *ttlcache.Cache[string, memoryEntry]
	now   func() time.Time
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now when deciding whether an entry is live, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		items: ttlcache.New[string, memoryEntry](ttlcache.WithDisableTouchOnHit[string, memoryEntry]()),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartEviction runs ttlcache's expiry loop in the background and returns
// the function that stops it.
func (c *MemoryCache) StartEviction() (stop func()) {
	go c.items.Start()
	return c.items.Stop
}

// Get returns a copy of the live value stored under key.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := c.items.Get(key)
	if item == nil {
		return nil, false, nil
	}
	e := item.Value()
	if !c.now().Before(e.expireAt) {
		c.items.Delete(key)
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set stores a copy of value under key until ttl elapses.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)
	c.items.Set(key, memoryEntry{value: v, expireAt: c.now().Add(ttl)}, ttl)
	return nil
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	now := c.now()
	n := 0
	for _, item := range c.items.Items() {
		if now.Before(item.Value().expireAt) {
			n++
		}
	}
	return n
}

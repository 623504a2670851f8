// Package memcache is the in-process StatsCache: a TTL map guarded by a
// mutex. Entries older than the TTL are treated as absent on read and
// swept lazily.
package memcache

import (
	"context"
	"sync"
	"time"

	"shooterstats/cache"
	"shooterstats/core"
)

type entry struct {
	stats   core.UserStats
	expires time.Time
}

// Cache implements cache.StatsCache.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[core.UserID]entry
	now     func() time.Time
}

// New returns a cache with the given TTL; ttl <= 0 falls back to
// cache.DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: map[core.UserID]entry{},
		now:     time.Now,
	}
}

func (c *Cache) Get(_ context.Context, id core.UserID) (core.UserStats, bool) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return core.UserStats{}, false
	}
	if c.now().After(e.expires) {
		c.mu.Lock()
		// re-check under the write lock; a Put may have raced in
		if e, ok = c.entries[id]; ok && c.now().After(e.expires) {
			delete(c.entries, id)
			ok = false
		}
		c.mu.Unlock()
		if !ok {
			return core.UserStats{}, false
		}
	}
	return e.stats, true
}

func (c *Cache) Put(_ context.Context, id core.UserID, stats core.UserStats) {
	c.mu.Lock()
	c.entries[id] = entry{stats: stats, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache) Invalidate(_ context.Context, id core.UserID) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Len reports live (unexpired) entries; mainly for tests and diagnostics.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	now := c.now()
	for _, e := range c.entries {
		if !now.After(e.expires) {
			n++
		}
	}
	return n
}

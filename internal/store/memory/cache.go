// Package memory provides process-local cache and history stores.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Cache is an in-memory domain.Cache bounded by vessel key count.
type Cache struct {
	mu     sync.Mutex
	index  *lruIndex
	window time.Duration
	clock  clockwork.Clock
}

// NewCache creates a cache holding at most maxVessels keys. maxVessels <= 0 means unbounded.
func NewCache(window time.Duration, maxVessels int, clock clockwork.Clock) *Cache {
	return &Cache{
		index:  newLRUIndex(maxVessels),
		window: window,
		clock:  clock,
	}
}

// Get returns the newest entry for key still inside the freshness window.
func (c *Cache) Get(_ context.Context, key domain.VesselKey) (domain.CacheEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.index.get(key)
	if !ok {
		return domain.CacheEntry{}, false, nil
	}
	now := c.clock.Now()
	for i := len(n.entries) - 1; i >= 0; i-- {
		if n.entries[i].Fresh(now, c.window) {
			return n.entries[i], true, nil
		}
	}
	return domain.CacheEntry{}, false, nil
}

// Put appends a new entry stamped with the current time.
func (c *Cache) Put(_ context.Context, key domain.VesselKey, record domain.EnrichedRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now().UTC()
	n := c.index.getOrCreate(key)
	n.entries = append(dropExpired(n.entries, now, c.window), domain.CacheEntry{
		Record:   record.Persistable(),
		CachedAt: now,
	})
	return nil
}

// Purge drops expired entries and empty keys. It returns the number of entries removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for _, n := range c.index.entries {
		kept := dropExpired(n.entries, now, c.window)
		removed += len(n.entries) - len(kept)
		n.entries = kept
		if len(kept) == 0 {
			c.index.delete(n)
		}
	}
	return removed
}

// Len returns the number of vessel keys currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.len()
}

func dropExpired(entries []domain.CacheEntry, now time.Time, window time.Duration) []domain.CacheEntry {
	i := 0
	for i < len(entries) && !entries[i].Fresh(now, window) {
		i++
	}
	return entries[i:]
}

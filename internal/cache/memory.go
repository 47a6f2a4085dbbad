// Package cache implements the client-side cache tiers: an ephemeral
// in-process memory cache and a durable SQLite-backed local cache.
package cache

import (
	"sync"

	"github.com/lebnicolas/cvelistV5/model"
)

// MemoryCache is the front-line id -> advisory map consulted before any
// I/O. It is never evicted by time or size; only Reset clears it. The
// corpus fits comfortably in memory for a single session.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]model.Advisory
}

// NewMemoryCache creates an empty memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]model.Advisory)}
}

// Get returns the cached advisory for id, if present.
func (c *MemoryCache) Get(id string) (model.Advisory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	adv, ok := c.entries[id]
	return adv, ok
}

// Set stores an advisory, replacing any prior entry for its id.
func (c *MemoryCache) Set(adv model.Advisory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[adv.ID] = adv
}

// Has reports whether id is cached.
func (c *MemoryCache) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[id]
	return ok
}

// IDs returns the cached ids.
func (c *MemoryCache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of cached advisories.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops all entries.
func (c *MemoryCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]model.Advisory)
}

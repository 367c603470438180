package app

import (
	"sync"
	"time"
)

// feedKey identifies one cached feed document. An empty MemberID means the
// feed for the caller's own identity (member resolution happens during
// assembly, after the cache has already been consulted).
type feedKey struct {
	TeamID   string
	MemberID string
}

type cacheEntry struct {
	data     []byte
	storedAt time.Time
}

// Cache is the process-lifetime feed cache. Entries expire ttl after
// insertion and are simply treated as absent on lookup; there is no
// background sweep and no persistence. It only exists to absorb the
// frequent polling of calendar clients, never as a correctness guarantee.
//
// Concurrent requests for the same cold key may each run a full assembly;
// the cache does not deduplicate in-flight builds.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[feedKey]cacheEntry
}

// NewCache creates a Cache with the given freshness window.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[feedKey]cacheEntry),
	}
}

// Get returns the cached document for key, or ok=false when there is none
// or the entry has outlived the freshness window.
func (c *Cache) Get(key feedKey) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}
	return entry.data, true
}

// Put stores the document for key, restarting its freshness window.
func (c *Cache) Put(key feedKey, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: data, storedAt: c.now()}
}

package emergency

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// ttlCache is a bounded TTL map for synthetic responses. Expired entries are
// evicted lazily on lookup and periodically by the janitor.
type ttlCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	maxEntries int
}

func newTTLCache(maxEntries int) *ttlCache {
	return &ttlCache{
		entries:    make(map[string]cacheEntry),
		maxEntries: maxEntries,
	}
}

func (c *ttlCache) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *ttlCache) store(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
}

// evictLocked drops expired entries first, then the entry closest to expiry
// if the cache is still full.
func (c *ttlCache) evictLocked() {
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	var victim string
	var victimExpiry time.Time
	for k, e := range c.entries {
		if victim == "" || e.expiresAt.Before(victimExpiry) {
			victim = k
			victimExpiry = e.expiresAt
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}

func (c *ttlCache) clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return n
}

func (c *ttlCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ttlCache) prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

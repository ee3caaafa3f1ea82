// Package cache implements the Key-Value Cache collaborator (spec §1) used
// by the Maps Client (C1) for geocode/places caching and by the research_agent
// profiler mode's web-search tool. The teacher repo's web_search.go and
// web_fetch.go reference a webCache/newWebCache type whose defining file was
// not present in the retrieval pack; this is a from-scratch implementation
// in the same map+mutex+TTL idiom those call sites expect.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value   string
	expires time.Time
}

// TTLCache is a bounded, in-memory cache with per-entry expiry and simple
// oldest-first eviction once maxEntries is exceeded. A write to an existing
// key overwrites its value and expiry; all methods are safe to call
// concurrently (spec §5: "writes are idempotent").
type TTLCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	order      []string
	maxEntries int
	ttl        time.Duration
}

// New creates a TTLCache with the given capacity and default TTL.
func New(maxEntries int, ttl time.Duration) *TTLCache {
	return &TTLCache{
		entries:    make(map[string]entry, maxEntries),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Get returns the cached value for key, if present and unexpired.
func (c *TTLCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		return "", false
	}
	return e.value, true
}

// Set stores value under key with the cache's default TTL.
func (c *TTLCache) Set(key, value string) {
	c.SetTTL(key, value, c.ttl)
}

// SetTTL stores value under key with an explicit TTL, overriding the default.
func (c *TTLCache) SetTTL(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		if c.maxEntries > 0 && len(c.order) >= c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = entry{value: value, expires: time.Now().Add(ttl)}
}

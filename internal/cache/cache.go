// Package cache provides a time-boxed memoization of compiled material per
// topic. The cache is an explicit object handed to the orchestrator, with an
// injected clock so tests control expiry; there is no process-wide
// singleton.
package cache

import (
	"sync"
	"time"

	"dailybrief/internal/core"
)

// Clock supplies the current time. Tests substitute a fake.
type Clock func() time.Time

type entry struct {
	material  core.CompiledMaterial
	expiresAt time.Time
}

// TopicCache stores (value, expiry) pairs keyed by topic.
type TopicCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     Clock
	entries map[string]entry
}

// New creates a cache with the given TTL. A nil clock uses time.Now.
func New(ttl time.Duration, now Clock) *TopicCache {
	if now == nil {
		now = time.Now
	}
	return &TopicCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached material for a topic if it has not expired.
// Expired entries are evicted on access.
func (c *TopicCache) Get(topic string) (core.CompiledMaterial, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[topic]
	if !ok {
		return core.CompiledMaterial{}, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, topic)
		return core.CompiledMaterial{}, false
	}
	return e.material, true
}

// Put stores material for a topic, stamping the expiry from the cache TTL.
func (c *TopicCache) Put(topic string, material core.CompiledMaterial) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[topic] = entry{
		material:  material,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Len returns the number of stored entries, expired or not.
func (c *TopicCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

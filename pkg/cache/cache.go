// Copyright 2025 Certen Protocol
//
// Package cache implements a keyed, per-entry-TTL response cache with
// pattern invalidation: a correctness-neutral accelerator in front of
// read paths. Nothing persists through it.

package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Stats reports cumulative hit/miss counters and the current size.
type Stats struct {
	Hits      uint64
	Misses    uint64
	ItemCount int
}

// HitRatio returns Hits / (Hits+Misses), or 0 if nothing was queried yet.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// MetricsRecorder receives one observation per Get call. *metrics.Registry satisfies this.
type MetricsRecorder interface {
	ObserveCacheHit()
	ObserveCacheMiss()
}

// Cache is a TTL-keyed in-memory store.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	hits    uint64
	misses  uint64
	metrics MetricsRecorder
}

// Option configures a Cache at construction time.
type Option func(*Cache)

// WithMetrics wires a recorder that observes hits and misses.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{entries: make(map[string]entry)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the canonical cache key for an endpoint and its params,
// so callers don't have to agree on a separate convention.
func Key(endpoint string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(endpoint)
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%s", k, params[k])
	}
	return b.String()
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		c.misses++
		if ok {
			delete(c.entries, key)
		}
		if c.metrics != nil {
			c.metrics.ObserveCacheMiss()
		}
		return nil, false
	}
	c.hits++
	if c.metrics != nil {
		c.metrics.ObserveCacheHit()
	}
	return e.value, true
}

// Set stores value under key with the given TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

// InvalidatePattern removes every key whose string form contains
// pattern as a substring. Concurrent readers may observe
// stale-but-soon-deleted entries; callers that need strict
// consistency should not rely on the cache.
func (c *Cache) InvalidatePattern(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k := range c.entries {
		if strings.Contains(k, pattern) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, ItemCount: len(c.entries)}
}

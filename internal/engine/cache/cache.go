// # internal/engine/cache/cache.go
//
// Boundary-scoped cache: remembers each boundary's derived facts keyed by
// span, stamped with the generation that produced them. Entries are
// explicitly invalidated on edits and evicted least-recently-used once the
// cache exceeds its bound.
package cache

import (
	"sync/atomic"
	"time"

	"stratum/internal/engine/facts"
	"stratum/internal/engine/source"
	"stratum/internal/shared/observability"
)

// DefaultCapacity bounds the cache to 1024 boundary entries.
const DefaultCapacity = 1024

// Entry is the cached unit for one boundary.
type Entry struct {
	Span       source.Span
	Facts      []facts.Fact
	Generation uint64
	LastAccess time.Time
}

type BoundaryCache struct {
	entries *lru[source.Span, *Entry]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

func NewBoundaryCache(capacity int) *BoundaryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &BoundaryCache{}
	c.entries = newLRU[source.Span, *Entry](capacity, func(source.Span, *Entry) {
		c.evictions.Add(1)
		observability.CacheEvictionsTotal.Inc()
	})
	return c
}

// Get returns the entry for a boundary span, counting a hit or miss and
// refreshing the entry's access time.
func (c *BoundaryCache) Get(span source.Span) (*Entry, bool) {
	entry, ok := c.entries.get(span)
	if !ok {
		c.misses.Add(1)
		observability.CacheMissesTotal.Inc()
		return nil, false
	}
	entry.LastAccess = time.Now()
	c.hits.Add(1)
	observability.CacheHitsTotal.Inc()
	return entry, true
}

// Peek returns the entry without touching hit/miss counters or recency.
// ProcessEdit uses it to grab prior-generation facts for diffing without
// skewing the hit rate.
func (c *BoundaryCache) Peek(span source.Span) (*Entry, bool) {
	// A miss on peek is expected during diff lookup, so no counters.
	entry, ok := c.entries.peek(span)
	return entry, ok
}

// Put inserts or replaces the entry for a boundary span.
func (c *BoundaryCache) Put(span source.Span, fs []facts.Fact, generation uint64) {
	c.entries.put(span, &Entry{
		Span:       span,
		Facts:      fs,
		Generation: generation,
		LastAccess: time.Now(),
	})
}

// Invalidate drops the entry for a span. Idempotent: invalidating an absent
// span is a no-op.
func (c *BoundaryCache) Invalidate(span source.Span) {
	c.entries.remove(span)
}

func (c *BoundaryCache) Len() int {
	return c.entries.len()
}

func (c *BoundaryCache) Clear() {
	c.entries.clear()
}

// Stats is a read-only counter snapshot.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

func (c *BoundaryCache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// HitRate returns hits/(hits+misses), or 0 before any lookup.
func (c *BoundaryCache) HitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

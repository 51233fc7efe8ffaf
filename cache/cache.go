// Package cache provides memoization for reception-time computation.
// Recomputing actor.WhenReceivedFromHistory against an unchanged state history is
// pure and idempotent, so caching it purely speeds up repeated advancement
// attempts without ever changing what AdvanceTo observes — a version bump
// invalidates the memo, it never goes stale underneath a reader.
package cache

import (
	"sync"

	"github.com/google/uuid"

	"github.com/chronoframe/chronos/history"
)

// receptionKey identifies one memoized computation: a signal's identity
// paired with the version of the actor history it was computed against.
// Keyed on uuid.UUID directly, rather than actor.SignalID, so this package
// stays a leaf the actor package can import without a cycle.
type receptionKey struct {
	signal  uuid.UUID
	version uint64
}

// ReceptionCache memoizes actor.WhenReceivedFromHistory results keyed by
// (signal identity, history version). When the size limit is reached, a
// single arbitrary entry (whichever the map iteration yields first) is
// evicted — the same simple eviction the teacher's StateCache uses, which
// is adequate here because a stale entry
// is never read: a version change changes the key, not the value at an
// existing key.
type ReceptionCache struct {
	mu      sync.RWMutex
	entries map[receptionKey]history.Time
	maxSize int
	hits    int64
	misses  int64
}

// NewReceptionCache returns a cache holding at most maxSize entries. Zero
// means unlimited.
func NewReceptionCache(maxSize int) *ReceptionCache {
	return &ReceptionCache{
		entries: make(map[receptionKey]history.Time),
		maxSize: maxSize,
	}
}

// Get returns the memoized reception time for signal against the state
// history at the given version, if present.
func (c *ReceptionCache) Get(signal uuid.UUID, version uint64) (history.Time, bool) {
	key := receptionKey{signal: signal, version: version}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if t, ok := c.entries[key]; ok {
		c.hits++
		return t, true
	}
	c.misses++
	return 0, false
}

// Put records the reception time computed for signal against the state
// history at the given version.
func (c *ReceptionCache) Put(signal uuid.UUID, version uint64, when history.Time) {
	key := receptionKey{signal: signal, version: version}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = when
}

// GetOrCompute returns the memoized reception time if present, else calls
// compute, stores, and returns its result. compute must be a pure function
// of (signal, the history at this version) — exactly the purity the
// engine's Signal primitives already require, so callers never need a
// separate cache-invalidation path beyond the version bump itself.
func (c *ReceptionCache) GetOrCompute(signal uuid.UUID, version uint64, compute func() (history.Time, error)) (history.Time, error) {
	if when, ok := c.Get(signal, version); ok {
		return when, nil
	}
	when, err := compute()
	if err != nil {
		return 0, err
	}
	c.Put(signal, version, when)
	return when, nil
}

// Size returns the current number of memoized entries.
func (c *ReceptionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every memoized entry.
func (c *ReceptionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[receptionKey]history.Time)
}

// Stats reports cache effectiveness, mirroring the teacher's StateCache.Stats.
type Stats struct {
	Size    int
	MaxSize int
	Hits    int64
	Misses  int64
	HitRate float64
}

// Stats returns a snapshot of this cache's hit/miss counters.
func (c *ReceptionCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Size:    len(c.entries),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
	}
}

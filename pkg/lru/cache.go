// Package lru provides fixed-capacity least-recently-used caches with
// hit/miss/insert counters.
//
// Two backends share the Cache interface:
//   - Hashed (New) for comparable keys, built on hashicorp/golang-lru;
//   - Ordered (NewOrdered) for keys that are only ordered, such as []int
//     customer sets, with an O(log n) sorted index.
//
// Caches are NOT safe for concurrent use. Callers sharing an instance
// between goroutines must serialize access themselves.
package lru

// Cache is a bounded recency cache.
type Cache[K any, V any] interface {
	// Get returns the cached value and marks the key as most recently used.
	// Every call increments either the hit or the miss counter.
	Get(key K) (V, bool)

	// Set inserts or replaces the value, making the key most recently used.
	// Entries beyond the capacity are evicted oldest first.
	Set(key K, value V)

	// Len returns the number of cached entries.
	Len() int

	// Capacity returns the maximum number of entries.
	Capacity() int

	// SetCapacity changes the limit and evicts the oldest entries right away
	// when the cache no longer fits.
	SetCapacity(capacity int)

	Hits() uint64
	Misses() uint64
	Inserts() uint64

	// Clear drops every entry and resets the counters. The capacity is kept.
	Clear()

	// Snapshot returns the counters for diagnostics.
	Snapshot() Stats
}

// Stats is the serialisable view of a cache.
type Stats struct {
	Capacity int    `json:"capacity" yaml:"capacity"`
	Hit      uint64 `json:"hit" yaml:"hit"`
	Miss     uint64 `json:"miss" yaml:"miss"`
	Cached   uint64 `json:"cached" yaml:"cached"`
}

// HitRate returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hit + s.Miss
	if total == 0 {
		return 0
	}
	return float64(s.Hit) / float64(total)
}

// counters общие для обоих бэкендов
type counters struct {
	hits    uint64
	misses  uint64
	inserts uint64
}

func (c *counters) lookup(found bool) {
	if found {
		c.hits++
	} else {
		c.misses++
	}
}

func (c *counters) Hits() uint64    { return c.hits }
func (c *counters) Misses() uint64  { return c.misses }
func (c *counters) Inserts() uint64 { return c.inserts }

func (c *counters) reset() {
	*c = counters{}
}

func (c *counters) stats(capacity int) Stats {
	return Stats{
		Capacity: capacity,
		Hit:      c.hits,
		Miss:     c.misses,
		Cached:   c.inserts,
	}
}

func normalizeCapacity(capacity int) int {
	if capacity < 0 {
		return 0
	}
	return capacity
}

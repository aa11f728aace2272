package lru

import (
	"container/list"
	"slices"
)

// =============================================================================
// Ordered backend
// =============================================================================
//
// Recency lives in a doubly linked list (front = newest). The index is a
// slice of list elements kept sorted by key with the caller's comparison, so
// lookup is a binary search and insertion shifts the tail of the slice.
// =============================================================================

type orderedEntry[K any, V any] struct {
	key   K
	value V
}

// Ordered is an LRU cache for keys with a total order but no equality
// operator, e.g. slices.
//
// Get is O(log n). Set of a new key and eviction are O(n): the sorted index
// is shifted with slices.Insert and slices.Delete. Fine for the few hundred
// entries a route memo holds; use Hashed for large comparable-key caches.
type Ordered[K any, V any] struct {
	counters
	capacity int
	cmp      func(a, b K) int
	recency  *list.List
	index    []*list.Element
}

var _ Cache[[]int, int] = (*Ordered[[]int, int])(nil)

// NewOrdered creates an ordered cache. cmp must be a strict total order
// returning <0, 0, >0 like slices.Compare.
//
// Stored keys are not copied; callers must not mutate a key after Set.
func NewOrdered[K any, V any](capacity int, cmp func(a, b K) int) *Ordered[K, V] {
	return &Ordered[K, V]{
		capacity: normalizeCapacity(capacity),
		cmp:      cmp,
		recency:  list.New(),
	}
}

func (c *Ordered[K, V]) find(key K) (int, bool) {
	return slices.BinarySearchFunc(c.index, key, func(e *list.Element, k K) int {
		return c.cmp(e.Value.(*orderedEntry[K, V]).key, k)
	})
}

func (c *Ordered[K, V]) Get(key K) (V, bool) {
	pos, ok := c.find(key)
	c.lookup(ok)
	if !ok {
		var zero V
		return zero, false
	}
	el := c.index[pos]
	c.recency.MoveToFront(el)
	return el.Value.(*orderedEntry[K, V]).value, true
}

func (c *Ordered[K, V]) Set(key K, value V) {
	c.inserts++

	pos, ok := c.find(key)
	if ok {
		el := c.index[pos]
		el.Value.(*orderedEntry[K, V]).value = value
		c.recency.MoveToFront(el)
	} else {
		el := c.recency.PushFront(&orderedEntry[K, V]{key: key, value: value})
		c.index = slices.Insert(c.index, pos, el)
	}
	c.evict()
}

// Peek returns the value without touching recency or counters.
func (c *Ordered[K, V]) Peek(key K) (V, bool) {
	pos, ok := c.find(key)
	if !ok {
		var zero V
		return zero, false
	}
	return c.index[pos].Value.(*orderedEntry[K, V]).value, true
}

// Keys returns the cached keys in ascending order.
func (c *Ordered[K, V]) Keys() []K {
	keys := make([]K, len(c.index))
	for i, el := range c.index {
		keys[i] = el.Value.(*orderedEntry[K, V]).key
	}
	return keys
}

func (c *Ordered[K, V]) evict() {
	for c.recency.Len() > c.capacity {
		oldest := c.recency.Back()
		pos, ok := c.find(oldest.Value.(*orderedEntry[K, V]).key)
		if ok {
			c.index = slices.Delete(c.index, pos, pos+1)
		}
		c.recency.Remove(oldest)
	}
}

func (c *Ordered[K, V]) Len() int {
	return c.recency.Len()
}

func (c *Ordered[K, V]) Capacity() int {
	return c.capacity
}

func (c *Ordered[K, V]) SetCapacity(capacity int) {
	c.capacity = normalizeCapacity(capacity)
	c.evict()
}

func (c *Ordered[K, V]) Clear() {
	c.recency.Init()
	clear(c.index)
	c.index = c.index[:0]
	c.reset()
}

func (c *Ordered[K, V]) Snapshot() Stats {
	return c.stats(c.capacity)
}

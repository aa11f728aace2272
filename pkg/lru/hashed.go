package lru

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Hashed is an LRU cache for comparable keys.
type Hashed[K comparable, V any] struct {
	counters
	capacity int
	items    *simplelru.LRU[K, V]
}

var _ Cache[string, int] = (*Hashed[string, int])(nil)

// New creates a hashed cache holding at most capacity entries. A capacity of
// zero (or less) yields a cache that stores nothing but still counts.
func New[K comparable, V any](capacity int) *Hashed[K, V] {
	capacity = normalizeCapacity(capacity)

	// simplelru отвергает нулевой размер, поэтому создаём с 1 и ужимаем
	items, err := simplelru.NewLRU[K, V](max(capacity, 1), nil)
	if err != nil {
		panic(err)
	}
	if capacity == 0 {
		items.Resize(0)
	}
	return &Hashed[K, V]{capacity: capacity, items: items}
}

func (c *Hashed[K, V]) Get(key K) (V, bool) {
	v, ok := c.items.Get(key)
	c.lookup(ok)
	return v, ok
}

func (c *Hashed[K, V]) Set(key K, value V) {
	c.inserts++
	c.items.Add(key, value)
}

// Peek returns the value without touching recency or counters.
func (c *Hashed[K, V]) Peek(key K) (V, bool) {
	return c.items.Peek(key)
}

// Keys returns the cached keys from oldest to newest.
func (c *Hashed[K, V]) Keys() []K {
	return c.items.Keys()
}

func (c *Hashed[K, V]) Len() int {
	return c.items.Len()
}

func (c *Hashed[K, V]) Capacity() int {
	return c.capacity
}

func (c *Hashed[K, V]) SetCapacity(capacity int) {
	c.capacity = normalizeCapacity(capacity)
	c.items.Resize(c.capacity)
}

func (c *Hashed[K, V]) Clear() {
	c.items.Purge()
	c.reset()
}

func (c *Hashed[K, V]) Snapshot() Stats {
	return c.stats(c.capacity)
}

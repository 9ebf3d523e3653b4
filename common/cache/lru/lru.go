// Package lru implements an in-memory Least-Recently-Used cache.
package lru

import (
	"container/list"
	"sync"
)

// OnEvictFunc is the function signature for the on-evict callback.
//
// Note: The callback does not support calling routines on it's associated
// cache instance.
type OnEvictFunc[K comparable, V any] func(key K, value V)

// Cache is an LRU cache instance.
type Cache[K comparable, V any] struct {
	sync.Mutex

	lru     *list.List
	entries map[K]*list.Element

	onEvict OnEvictFunc[K, V]

	capacity int
}

type cacheEntry[K comparable, V any] struct {
	key   K
	value V
}

// Put inserts the key/value pair into the cache.  If the key is already present,
// the value is updated, and the entry is moved to the most-recently-used position.
func (c *Cache[K, V]) Put(key K, value V) {
	c.Lock()
	defer c.Unlock()

	if elem, ok := c.entries[key]; ok {
		// Key already present in cache.  Update the value in place and
		// move the entry to the most-recently-used position.
		elem.Value.(*cacheEntry[K, V]).value = value
		c.lru.MoveToFront(elem)
		return
	}

	// Evict the least-recently-used entry if at capacity.  The new entry
	// is guaranteed to fit after a single eviction.
	if c.capacity > 0 && c.lru.Len() >= c.capacity {
		c.evictOne()
	}

	elem := c.lru.PushFront(&cacheEntry[K, V]{
		key:   key,
		value: value,
	})
	c.entries[key] = elem
}

// Get returns the value associated with the key and true if it is present in
// the cache, and the entry is moved to the most-recently-used position.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.getEntry(key, false)
}

// Peek returns the value associated with the key and true if it is present in
// the cache, without altering the access time of the entry.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	return c.getEntry(key, true)
}

// Remove removes the key from the cache and returns true if the key existed, otherwise false.
func (c *Cache[K, V]) Remove(key K) bool {
	c.Lock()
	defer c.Unlock()

	elem, ok := c.entries[key]
	if ok {
		c.lru.Remove(elem)
		delete(c.entries, key)
	}

	return ok
}

// Keys returns the keys for every entry in the cache, from the least-recently-used
// to the most-recently-used.
func (c *Cache[K, V]) Keys() []K {
	c.Lock()
	defer c.Unlock()

	vec := make([]K, 0, c.lru.Len())
	for elem := c.lru.Back(); elem != nil; elem = elem.Prev() {
		vec = append(vec, elem.Value.(*cacheEntry[K, V]).key)
	}
	return vec
}

// Clear empties the cache.
func (c *Cache[K, V]) Clear() {
	c.Lock()
	defer c.Unlock()

	c.lru = list.New()
	c.entries = make(map[K]*list.Element)
}

// Size returns the current number of entries in the cache.
func (c *Cache[K, V]) Size() int {
	c.Lock()
	defer c.Unlock()

	return c.lru.Len()
}

func (c *Cache[K, V]) getEntry(key K, isPeek bool) (V, bool) {
	c.Lock()
	defer c.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	if !isPeek {
		c.lru.MoveToFront(elem)
	}
	return elem.Value.(*cacheEntry[K, V]).value, true
}

func (c *Cache[K, V]) evictOne() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	c.lru.Remove(elem)

	ent := elem.Value.(*cacheEntry[K, V])
	delete(c.entries, ent.key)

	if c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}

// New creates a new LRU cache instance with the specified options.
func New[K comparable, V any](options ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		lru:     list.New(),
		entries: make(map[K]*list.Element),
	}

	for _, v := range options {
		v(c)
	}

	return c
}

// Option is a configuration option used when instantiating a cache.
type Option[K comparable, V any] func(c *Cache[K, V])

// Capacity sets the capacity of the new cache, in number of entries.
//
// If no capacity is specified, the cache will have an unlimited size.
func Capacity[K comparable, V any](capacity int) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.capacity = capacity
	}
}

// OnEvict sets the on-evict callback.
func OnEvict[K comparable, V any](fn OnEvictFunc[K, V]) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvict = fn
	}
}

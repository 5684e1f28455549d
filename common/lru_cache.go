// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

// LruCache is a bounded map evicting the least recently used entry once the
// capacity is exceeded. It is not safe for concurrent use.
type LruCache[K comparable, V any] struct {
	cache    map[K]*lruEntry[K, V]
	capacity int
	head     *lruEntry[K, V]
	tail     *lruEntry[K, V]
}

// NewLruCache creates a cache holding at most capacity entries. A
// non-positive capacity is raised to one.
func NewLruCache[K comparable, V any](capacity int) *LruCache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LruCache[K, V]{
		cache:    make(map[K]*lruEntry[K, V]),
		capacity: capacity,
	}
}

// Get returns the cached value and marks it as most recently used.
func (c *LruCache[K, V]) Get(key K) (V, bool) {
	item, exists := c.cache[key]
	if !exists {
		var zero V
		return zero, false
	}
	c.touch(item)
	return item.val, true
}

// Contains tests for the key without changing the usage order.
func (c *LruCache[K, V]) Contains(key K) bool {
	_, exists := c.cache[key]
	return exists
}

// Set stores the value under the given key. If this exceeds the capacity,
// the least recently used entry is dropped and reported.
func (c *LruCache[K, V]) Set(key K, val V) (evictedKey K, evictedValue V, evicted bool) {
	if item, exists := c.cache[key]; exists {
		item.val = val
		c.touch(item)
		return
	}

	var item *lruEntry[K, V]
	if len(c.cache) >= c.capacity {
		item = c.dropLast()
		evictedKey, evictedValue, evicted = item.key, item.val, true
	} else {
		item = new(lruEntry[K, V])
	}
	item.key = key
	item.val = val
	item.prev = nil
	item.next = c.head
	if c.head != nil {
		c.head.prev = item
	}
	c.head = item
	if c.tail == nil {
		c.tail = item
	}
	c.cache[key] = item
	return
}

// Remove deletes the key and returns the value it was associated with.
func (c *LruCache[K, V]) Remove(key K) (original V, exists bool) {
	item, exists := c.cache[key]
	if !exists {
		return original, false
	}
	delete(c.cache, key)
	c.unlink(item)
	return item.val, true
}

// Len is the number of cached entries.
func (c *LruCache[K, V]) Len() int {
	return len(c.cache)
}

// Clear drops all entries.
func (c *LruCache[K, V]) Clear() {
	if len(c.cache) > 0 {
		c.cache = make(map[K]*lruEntry[K, V])
	}
	c.head = nil
	c.tail = nil
}

func (c *LruCache[K, V]) touch(item *lruEntry[K, V]) {
	if item == c.head {
		return
	}
	c.unlink(item)
	item.next = c.head
	if c.head != nil {
		c.head.prev = item
	}
	c.head = item
	if c.tail == nil {
		c.tail = item
	}
}

func (c *LruCache[K, V]) unlink(item *lruEntry[K, V]) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		c.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		c.tail = item.prev
	}
	item.prev = nil
	item.next = nil
}

func (c *LruCache[K, V]) dropLast() *lruEntry[K, V] {
	dropped := c.tail
	delete(c.cache, dropped.key)
	c.unlink(dropped)
	return dropped
}

type lruEntry[K comparable, V any] struct {
	key  K
	val  V
	prev *lruEntry[K, V]
	next *lruEntry[K, V]
}

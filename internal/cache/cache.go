// Package cache provides the shared memoization primitives used by the
// coordinators: a TTL+LRU ResourceCache for validation results and rendered
// style artifacts, and a LazyLoader that deduplicates concurrent loads.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// entry is the cache record for a single key. Expiry is measured from
// insertion time; LRU ranking is measured from last access.
type entry struct {
	key        string
	value      any
	insertedAt time.Time
	element    *list.Element
}

// ResourceCache is a bounded key/value store with per-entry TTL and batched
// LRU eviction. Expired entries are removed lazily at access time, never by a
// background sweeper. A single mutex serializes all operations; both
// coordinators share one instance by reference.
type ResourceCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*entry
	order    *list.List // front = most recently accessed

	now func() time.Time
}

// NewResourceCache creates a cache holding at most capacity entries whose
// values expire ttl after insertion. A non-positive ttl disables expiry.
func NewResourceCache(capacity int, ttl time.Duration) *ResourceCache {
	if capacity < 1 {
		capacity = 1
	}
	return &ResourceCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*entry),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the value for key. It reports not-found when the key is absent
// or its entry has outlived the TTL; expired entries are deleted on the spot.
// A hit refreshes the entry's LRU position.
func (c *ResourceCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.expired(ent) {
		c.removeLocked(ent)
		return nil, false
	}

	c.order.MoveToFront(ent.element)
	return ent.value, true
}

// Set stores value under key. When the cache is full it first evicts the
// oldest max(1, size/5) entries by last access in one sweep.
func (c *ResourceCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		ent.value = value
		ent.insertedAt = c.now()
		c.order.MoveToFront(ent.element)
		return
	}

	if len(c.entries) >= c.capacity {
		c.evictLocked()
	}

	ent := &entry{key: key, value: value, insertedAt: c.now()}
	ent.element = c.order.PushFront(ent)
	c.entries[key] = ent
}

// Invalidate removes a single key, if present.
func (c *ResourceCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.removeLocked(ent)
	}
}

// Clear removes every entry.
func (c *ResourceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.order.Init()
}

// Size returns the current entry count, including entries that have expired
// but have not been touched since.
func (c *ResourceCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ResourceCache) expired(ent *entry) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(ent.insertedAt) > c.ttl
}

// evictLocked drops the least recently accessed fifth of the cache, at least
// one entry per sweep.
func (c *ResourceCache) evictLocked() {
	victims := len(c.entries) / 5
	if victims < 1 {
		victims = 1
	}
	for i := 0; i < victims; i++ {
		back := c.order.Back()
		if back == nil {
			return
		}
		c.removeLocked(back.Value.(*entry))
	}
}

func (c *ResourceCache) removeLocked(ent *entry) {
	c.order.Remove(ent.element)
	delete(c.entries, ent.key)
}

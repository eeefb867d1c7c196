// Package cache is a built-in component: a bounded in-memory string cache
// with least-recently-used eviction. Its statistics are a poppable
// attribute, so a client can register them as a sub-object on demand.
package cache

import (
	"container/list"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is used when a component declares no capacity.
const DefaultCapacity = 128

var (
	// ErrMiss is returned by Get for absent keys.
	ErrMiss = errors.New("cache miss")
	// ErrCapacity is returned for a capacity below one.
	ErrCapacity = errors.New("capacity must be positive")
)

// Stats counts lookups. It is shared by the cache for its whole lifetime.
type Stats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (s *Stats) Hits() int64 { return s.hits.Load() }

func (s *Stats) Misses() int64 { return s.misses.Load() }

// HitRatio is hits over all lookups, or 0 before the first lookup.
func (s *Stats) HitRatio() float64 {
	h, m := s.Hits(), s.Misses()
	if h+m == 0 {
		return 0
	}
	return float64(h) / float64(h+m)
}

// Reset zeroes both counters.
func (s *Stats) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
}

func (s *Stats) String() string {
	return fmt.Sprintf("hits=%d misses=%d", s.Hits(), s.Misses())
}

type entry struct {
	key, value string
}

// Cache is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recently used
	items    map[string]*list.Element
	stats    *Stats
}

// New creates a cache holding at most capacity entries.
func New(capacity int) (*Cache, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
		stats:    &Stats{},
	}, nil
}

func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

// SetCapacity resizes the cache, evicting the least recently used entries
// that no longer fit.
func (c *Cache) SetCapacity(capacity int) error {
	if capacity < 1 {
		return fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacity = capacity
	c.evictLocked()
	return nil
}

func (c *Cache) Stats() *Stats { return c.stats }

// Put stores value under key and marks it most recently used.
func (c *Cache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*entry).value = value
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&entry{key: key, value: value})
	c.evictLocked()
}

// Get returns the value for key, or ErrMiss.
func (c *Cache) Get(key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		c.stats.misses.Add(1)
		return "", fmt.Errorf("%w: %q", ErrMiss, key)
	}
	c.stats.hits.Add(1)
	c.order.MoveToFront(el)
	return el.Value.(*entry).value, nil
}

// Delete removes key and reports whether it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.order.Remove(el)
	delete(c.items, key)
	return true
}

// Clear drops every entry. Statistics are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.items)
}

func (c *Cache) evictLocked() {
	for c.order.Len() > c.capacity {
		el := c.order.Back()
		c.order.Remove(el)
		delete(c.items, el.Value.(*entry).key)
	}
}

// Package cache provides a small in-process LRU cache with TTL support,
// used for derived lookups that are cheap to rebuild (e.g. per-guild tag
// lists). Keys are plain strings; staleness is handled by the TTL, so no
// explicit invalidation protocol is needed.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Config holds cache construction options.
type Config struct {
	Capacity   int
	DefaultTTL time.Duration
}

// Cache implements an LRU cache with TTL support.
type Cache struct {
	capacity   int
	defaultTTL time.Duration
	mu         sync.Mutex

	items map[string]*entry
	order *list.List // front = most recently used
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
	element   *list.Element
}

// New creates a new cache.
func New(config Config) *Cache {
	if config.Capacity <= 0 {
		config.Capacity = 1000
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}

	return &Cache{
		capacity:   config.Capacity,
		defaultTTL: config.DefaultTTL,
		items:      make(map[string]*entry),
		order:      list.New(),
	}
}

// Get retrieves a value from the cache.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.removeEntry(e)
		return nil, false
	}

	c.order.MoveToFront(e.element)
	return e.value, true
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(e.element)
		return
	}

	e := &entry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	e.element = c.order.PushFront(e)
	c.items[key] = e

	if len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// Delete removes a key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.removeEntry(e)
	}
}

// Len returns the number of cached entries, including not-yet-collected
// expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) removeEntry(e *entry) {
	c.order.Remove(e.element)
	delete(c.items, e.key)
}

func (c *Cache) evictOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	c.removeEntry(back.Value.(*entry))
}

package cache

import (
	"container/list"
	"sync"
	"time"
)

type lruEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// LRU is a thread-safe, size-bounded cache whose entries also expire after a
// time-to-live. When full, the least recently used entry is evicted.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	items    map[K]*list.Element
	order    *list.List
}

// Option configures an LRU.
type Option func(*lruOptions)

type lruOptions struct {
	now func() time.Time
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(o *lruOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewLRU creates a cache holding at most capacity entries. A zero ttl keeps
// entries until they are evicted. Panics if capacity is not positive.
func NewLRU[K comparable, V any](capacity int, ttl time.Duration, opts ...Option) *LRU[K, V] {
	if capacity <= 0 {
		panic("cache: LRU capacity must be positive")
	}
	o := &lruOptions{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return &LRU[K, V]{
		capacity: capacity,
		ttl:      ttl,
		now:      o.now,
		items:    make(map[K]*list.Element),
		order:    list.New(),
	}
}

// Get returns the live value for key and marks it as recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	entry := elem.Value.(*lruEntry[K, V])
	if c.expired(entry) {
		c.removeElement(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return entry.value, true
}

// Set stores value with the cache's default ttl.
func (c *LRU[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value with an explicit ttl. Zero means no expiry.
func (c *LRU[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*lruEntry[K, V])
		entry.value = value
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value, expiresAt: expiresAt})
	if c.order.Len() > c.capacity {
		c.removeElement(c.order.Back())
	}
}

// Delete removes key and reports whether it was present.
func (c *LRU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if ok {
		c.removeElement(elem)
	}
	return ok
}

// Len returns the number of stored entries, expired ones included.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops every entry.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element)
	c.order.Init()
}

// Must be called with lock held.
func (c *LRU[K, V]) expired(e *lruEntry[K, V]) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

// Must be called with lock held.
func (c *LRU[K, V]) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*lruEntry[K, V]).key)
}

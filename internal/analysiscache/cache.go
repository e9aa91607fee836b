package analysiscache

import (
	"container/list"
	"math"
	"sync"
	"time"
)

const (
	DefaultCapacity = 100
	DefaultTTL      = 30 * time.Minute
)

// Option configures a Cache.
type Option func(*config)

type config struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// WithCapacity bounds the number of entries. Non-positive values are ignored.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithTTL sets how long an entry stays valid. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// Stats is a point-in-time view of cache usage. HitRate is a percentage
// rounded to one decimal.
type Stats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"maxSize"`
	HitRate float64 `json:"hitRate"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
}

type entry[V any] struct {
	key      string
	value    V
	inserted time.Time
}

// Cache is a bounded TTL map that evicts in insertion order. Reads do not
// refresh an entry's position.
type Cache[V any] struct {
	mu     sync.Mutex
	cfg    config
	order  *list.List
	items  map[string]*list.Element
	hits   int64
	misses int64
}

func New[V any](opts ...Option) *Cache[V] {
	cfg := config{capacity: DefaultCapacity, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cache[V]{
		cfg:   cfg,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

// Get returns the value for key if it is still within its TTL. An expired
// entry is dropped and counts as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	e := el.Value.(*entry[V])
	if c.cfg.now().Sub(e.inserted) >= c.cfg.ttl {
		c.removeElement(el)
		c.misses++
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key. An existing key is overwritten in place with a
// fresh timestamp; a new key at capacity evicts the oldest insertion first.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.cfg.now()
	// A full cache evicts its oldest entry on every Set, overwrites included.
	for c.order.Len() >= c.cfg.capacity {
		c.removeElement(c.order.Front())
	}
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.inserted = now
		return
	}
	c.items[key] = c.order.PushBack(&entry[V]{key: key, value: value, inserted: now})
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

// Clear drops every entry and resets the hit and miss counters.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)
	c.hits = 0
	c.misses = 0
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:    c.order.Len(),
		MaxSize: c.cfg.capacity,
		Hits:    c.hits,
		Misses:  c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = math.Round(float64(c.hits)/float64(total)*1000) / 10
	}
	return s
}

func (c *Cache[V]) removeElement(el *list.Element) {
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}

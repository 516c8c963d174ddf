// Package cache provides a bounded in-memory TTL cache shared by every
// external-data fetch path to limit both request volume and memory.
package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Bounded is a capacity-bounded in-memory cache with per-entry TTL.
// It stores byte slices and implements core.CacheRepository so callers can
// swap it for the Redis-backed repository without code changes.
// Concurrency: methods are safe for concurrent use.
type Bounded struct {
	mu         sync.Mutex
	cap        int
	defaultTTL time.Duration
	ll         *list.List               // front = most-recently used
	items      map[string]*list.Element // key -> element
	now        func() time.Time         // injectable clock for tests
	hits       atomic.Uint64
	misses     atomic.Uint64
	evicts     atomic.Uint64
}

type entry struct {
	key    string
	value  []byte
	expiry time.Time // zero means no expiry
}

// Config groups constructor options for Bounded.
type Config struct {
	Capacity   int
	DefaultTTL time.Duration
	Now        func() time.Time
}

// DefaultConfig returns sensible defaults: room for a map session's worth of
// geocode lookups, expiring well before vendor data can go stale.
func DefaultConfig() Config {
	return Config{Capacity: 1024, DefaultTTL: 15 * time.Minute, Now: time.Now}
}

// NewBounded creates a new Bounded cache with the given config.
func NewBounded(cfg Config) *Bounded {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 1024
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Bounded{
		cap:        capacity,
		defaultTTL: cfg.DefaultTTL,
		ll:         list.New(),
		items:      make(map[string]*list.Element, capacity),
		now:        nowFn,
	}
}

// Get returns the value for key if present and not expired, else nil.
func (c *Bounded) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, found := c.items[key]
	if !found {
		c.misses.Add(1)
		return nil, nil
	}
	ent := el.Value.(*entry)
	if c.isExpired(ent) {
		c.removeElement(el)
		c.misses.Add(1)
		return nil, nil
	}
	c.ll.MoveToFront(el)
	c.hits.Add(1)
	return ent.value, nil
}

// Set inserts or updates a value. ttl 0 falls back to the default TTL;
// inserting at capacity evicts the least-recently used entry first.
func (c *Bounded) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}

	if el, found := c.items[key]; found {
		ent := el.Value.(*entry)
		ent.value = value
		ent.expiry = exp
		c.ll.MoveToFront(el)
		return nil
	}

	el := c.ll.PushFront(&entry{key: key, value: value, expiry: exp})
	c.items[key] = el
	c.evictIfNeeded()
	return nil
}

// Delete removes a key from the cache.
func (c *Bounded) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
		return true, nil
	}
	return false, nil
}

// Exists returns true if key is present and not expired.
func (c *Bounded) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, found := c.items[key]
	if !found {
		return false, nil
	}
	ent := el.Value.(*entry)
	if c.isExpired(ent) {
		c.removeElement(el)
		return false, nil
	}
	return true, nil
}

// Len returns the current number of items in the cache.
func (c *Bounded) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Stats are simple counters for observability.
type Stats struct {
	Hits, Misses, Evictions uint64
	Size, Capacity          int
}

// Stats returns a snapshot of counters and sizes.
func (c *Bounded) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evicts.Load(),
		Size:      c.Len(),
		Capacity:  c.cap,
	}
}

// Helpers; caller must hold c.mu.
func (c *Bounded) isExpired(e *entry) bool {
	if e.expiry.IsZero() {
		return false
	}
	return !c.now().Before(e.expiry)
}

func (c *Bounded) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

func (c *Bounded) evictIfNeeded() {
	for c.ll.Len() > c.cap {
		el := c.ll.Back()
		if el == nil {
			return
		}
		c.removeElement(el)
		c.evicts.Add(1)
	}
}

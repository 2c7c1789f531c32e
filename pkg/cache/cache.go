package cache

import (
	"sync"
	"time"
)

// Cache is a mutex-guarded key/value store with lazy TTL expiry and a
// capacity bound. When full, Put evicts the entry with the oldest insertion
// timestamp. A TTL of zero disables expiry.
//
// Eviction here is insertion-ordered, not recency-ordered; use LRU when
// hits should protect an entry from eviction.
type Cache[V any] struct {
	mu       sync.Mutex
	name     string
	capacity int
	ttl      time.Duration

	entries map[string]entry[V]

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64

	// now is swappable for TTL tests.
	now func() time.Time
}

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Size        int    `json:"size"`
	Capacity    int    `json:"capacity"`
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Evictions   uint64 `json:"evictions"`
	Expirations uint64 `json:"expirations"`
}

// New creates a Cache with the given name (used as the metrics label),
// capacity, and TTL. A capacity <= 0 defaults to 1.
func New[V any](name string, capacity int, ttl time.Duration) *Cache[V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache[V]{
		name:     name,
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]entry[V]),
		now:      time.Now,
	}
}

// Get returns the value for key. An entry past its TTL is removed and
// reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		cacheMisses.WithLabelValues(c.name).Inc()
		return zero, false
	}

	if c.ttl > 0 && c.now().Sub(e.insertedAt) > c.ttl {
		delete(c.entries, key)
		c.misses++
		c.expirations++
		cacheMisses.WithLabelValues(c.name).Inc()
		cacheExpirations.WithLabelValues(c.name).Inc()
		return zero, false
	}

	c.hits++
	cacheHits.WithLabelValues(c.name).Inc()
	return e.value, true
}

// Put stores value under key with the current timestamp, overwriting any
// existing entry. If the cache is at capacity, the single entry with the
// smallest insertion timestamp is evicted first.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.capacity {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = entry[V]{value: value, insertedAt: c.now()}
}

func (c *Cache[V]) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.insertedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.insertedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.evictions++
		cacheEvictions.WithLabelValues(c.name).Inc()
	}
}

// Len returns the current number of entries, including any not yet lazily
// expired.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:        len(c.entries),
		Capacity:    c.capacity,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}
}

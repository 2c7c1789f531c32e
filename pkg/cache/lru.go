package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a recency-ordered cache: a hit moves the entry to the front, and
// eviction always removes the least recently used entry. Entries also carry
// a TTL checked lazily on Get.
//
// This is the stricter variant of Cache used for expensive handles where a
// hot entry must survive insertion pressure.
type LRU[V any] struct {
	mu       sync.Mutex
	name     string
	capacity int
	ttl      time.Duration

	order   *list.List
	entries map[string]*list.Element

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64

	// onEvict runs under the cache mutex; keep callbacks cheap. Used to
	// release resources held by evicted or expired values.
	onEvict func(key string, value V)

	now func() time.Time
}

type lruEntry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
}

// NewLRU creates an LRU cache. onEvict may be nil; when set it is invoked
// for every entry removed by eviction or expiry (not for overwrites).
func NewLRU[V any](name string, capacity int, ttl time.Duration, onEvict func(key string, value V)) *LRU[V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU[V]{
		name:     name,
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
		onEvict:  onEvict,
		now:      time.Now,
	}
}

// Get returns the value for key and marks it most recently used. Expired
// entries are removed and counted as misses.
func (l *LRU[V]) Get(key string) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero V
	el, ok := l.entries[key]
	if !ok {
		l.misses++
		cacheMisses.WithLabelValues(l.name).Inc()
		return zero, false
	}

	e := el.Value.(*lruEntry[V])
	if l.ttl > 0 && l.now().Sub(e.insertedAt) > l.ttl {
		l.removeLocked(el, true)
		l.misses++
		l.expirations++
		cacheMisses.WithLabelValues(l.name).Inc()
		cacheExpirations.WithLabelValues(l.name).Inc()
		return zero, false
	}

	l.order.MoveToFront(el)
	l.hits++
	cacheHits.WithLabelValues(l.name).Inc()
	return e.value, true
}

// Put stores value under key as the most recently used entry, evicting the
// least recently used entry if the cache is at capacity.
func (l *LRU[V]) Put(key string, value V) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if el, ok := l.entries[key]; ok {
		e := el.Value.(*lruEntry[V])
		e.value = value
		e.insertedAt = l.now()
		l.order.MoveToFront(el)
		return
	}

	for l.order.Len() >= l.capacity {
		back := l.order.Back()
		if back == nil {
			break
		}
		l.removeLocked(back, true)
		l.evictions++
		cacheEvictions.WithLabelValues(l.name).Inc()
	}

	el := l.order.PushFront(&lruEntry[V]{key: key, value: value, insertedAt: l.now()})
	l.entries[key] = el
}

func (l *LRU[V]) removeLocked(el *list.Element, callback bool) {
	e := el.Value.(*lruEntry[V])
	l.order.Remove(el)
	delete(l.entries, e.key)
	if callback && l.onEvict != nil {
		l.onEvict(e.key, e.value)
	}
}

// Len returns the current number of entries.
func (l *LRU[V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}

// Purge removes every entry, running the eviction callback for each.
func (l *LRU[V]) Purge() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for el := l.order.Front(); el != nil; {
		next := el.Next()
		l.removeLocked(el, true)
		el = next
	}
}

// Stats returns a snapshot of the cache counters.
func (l *LRU[V]) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Size:        l.order.Len(),
		Capacity:    l.capacity,
		Hits:        l.hits,
		Misses:      l.misses,
		Evictions:   l.evictions,
		Expirations: l.expirations,
	}
}

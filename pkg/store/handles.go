package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/weftlabs/weft/pkg/cache"
	"github.com/weftlabs/weft/pkg/logger"
)

const (
	// handleCacheSize bounds the number of simultaneously open databases.
	handleCacheSize = 50
	// handleCacheTTL closes handles that have not been touched in a while.
	handleCacheTTL = 900 * time.Second
)

// HandleCache hands out open embedding stores keyed by path, keeping at
// most handleCacheSize of them open. Evicted or expired handles are closed
// by the cache's eviction callback.
type HandleCache struct {
	mu     sync.Mutex
	cache  *cache.LRU[*BadgerStore]
	opener func(path string) (*BadgerStore, error)
}

// NewHandleCache creates a handle cache that opens on-disk stores.
func NewHandleCache() *HandleCache {
	h := &HandleCache{
		opener: func(path string) (*BadgerStore, error) {
			return OpenBadgerStore(BadgerStoreParams{Path: path})
		},
	}
	h.cache = cache.NewLRU("store_handles", handleCacheSize, handleCacheTTL, func(path string, s *BadgerStore) {
		if err := s.Close(); err != nil {
			logger.Warn("[Store] failed to close evicted handle", "path", path, "error", err)
		}
	})
	return h
}

// Get returns an open store for path, opening one on a miss. The lock spans
// the open call so two callers cannot race to open the same path.
func (h *HandleCache) Get(path string) (*BadgerStore, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.cache.Get(path); ok {
		return s, nil
	}

	s, err := h.opener(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store handle: %w", err)
	}
	h.cache.Put(path, s)
	return s, nil
}

// Close evicts and closes every cached handle.
func (h *HandleCache) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cache.Purge()
}

// Store returns an EmbeddingStore view over the cached handle for path.
// Every operation fetches the handle through the cache, so a handle closed
// by TTL expiry or eviction is transparently reopened on the next use.
func (h *HandleCache) Store(path string) EmbeddingStore {
	return &pooledStore{handles: h, path: path}
}

type pooledStore struct {
	handles *HandleCache
	path    string
}

func (p *pooledStore) Get(key string) ([]float32, bool, error) {
	s, err := p.handles.Get(p.path)
	if err != nil {
		return nil, false, err
	}
	return s.Get(key)
}

func (p *pooledStore) Put(key string, vector []float32) error {
	s, err := p.handles.Get(p.path)
	if err != nil {
		return err
	}
	return s.Put(key, vector)
}

// Close is a no-op; the underlying handle belongs to the cache.
func (p *pooledStore) Close() error {
	return nil
}

package ai

import (
	"context"
	"time"

	"github.com/weftlabs/weft/pkg/cache"
	"github.com/weftlabs/weft/pkg/logger"
	"github.com/weftlabs/weft/pkg/store"
)

const (
	defaultEmbeddingCacheSize = 10000
	defaultResponseCacheSize  = 1000
	defaultResponseCacheTTL   = 3600 * time.Second
)

// CachedEmbeddingClient wraps an EmbeddingClient with an in-memory cache
// keyed by content hash, and an optional persistent store consulted on
// cache misses. Embeddings never expire; identical text always embeds to
// the same vector.
type CachedEmbeddingClient struct {
	inner EmbeddingClient
	cache *cache.Cache[[]float32]
	store store.EmbeddingStore
}

// CachedEmbeddingClientParams configures NewCachedEmbeddingClient. Store
// may be nil; CacheSize <= 0 uses the default.
type CachedEmbeddingClientParams struct {
	Inner     EmbeddingClient
	Store     store.EmbeddingStore
	CacheSize int
}

// NewCachedEmbeddingClient wraps params.Inner.
func NewCachedEmbeddingClient(params CachedEmbeddingClientParams) *CachedEmbeddingClient {
	size := params.CacheSize
	if size <= 0 {
		size = defaultEmbeddingCacheSize
	}
	return &CachedEmbeddingClient{
		inner: params.Inner,
		cache: cache.New[[]float32]("embeddings", size, 0),
		store: params.Store,
	}
}

// GenerateEmbedding returns the cached vector for input when present,
// delegating to the wrapped client otherwise. Freshly computed vectors are
// written through to the persistent store.
func (c *CachedEmbeddingClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	key := cache.HashKey(string(input))

	if vector, ok := c.cache.Get(key); ok {
		return vector, nil
	}

	if c.store != nil {
		vector, ok, err := c.store.Get(key)
		if err != nil {
			logger.Warn("[AI] embedding store read failed", "error", err)
		} else if ok {
			c.cache.Put(key, vector)
			return vector, nil
		}
	}

	vector, err := c.inner.GenerateEmbedding(ctx, input)
	if err != nil {
		return nil, err
	}

	c.cache.Put(key, vector)
	if c.store != nil {
		if err := c.store.Put(key, vector); err != nil {
			logger.Warn("[AI] embedding store write failed", "error", err)
		}
	}
	return vector, nil
}

// CachedCompletionClient wraps a CompletionClient with a TTL cache keyed by
// the model and prompt, so repeated identical requests within the window
// reuse the earlier answer.
type CachedCompletionClient struct {
	inner        CompletionClient
	cache        *cache.Cache[string]
	defaultModel string
}

// CachedCompletionClientParams configures NewCachedCompletionClient. The
// DefaultModel is folded into cache keys for calls that do not override the
// model; CacheSize <= 0 and TTL <= 0 use the defaults.
type CachedCompletionClientParams struct {
	Inner        CompletionClient
	DefaultModel string
	CacheSize    int
	TTL          time.Duration
}

// NewCachedCompletionClient wraps params.Inner.
func NewCachedCompletionClient(params CachedCompletionClientParams) *CachedCompletionClient {
	size := params.CacheSize
	if size <= 0 {
		size = defaultResponseCacheSize
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultResponseCacheTTL
	}
	return &CachedCompletionClient{
		inner:        params.Inner,
		cache:        cache.New[string]("responses", size, ttl),
		defaultModel: params.DefaultModel,
	}
}

// GenerateCompletion returns a cached answer for the same model and prompt
// when one is still fresh, delegating to the wrapped client otherwise.
func (c *CachedCompletionClient) GenerateCompletion(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	options := GenerateOptions{Model: c.defaultModel}
	for _, o := range opts {
		o(&options)
	}
	key := cache.HashKey(options.Model, prompt)

	if answer, ok := c.cache.Get(key); ok {
		return answer, nil
	}

	answer, err := c.inner.GenerateCompletion(ctx, prompt, opts...)
	if err != nil {
		return "", err
	}
	c.cache.Put(key, answer)
	return answer, nil
}

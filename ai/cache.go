package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

const (
	defaultCacheEntries = 4096
	defaultCacheTTL     = 15 * time.Minute
)

// CachedEmbedder wraps an Embedder with a TTL-bounded in-process cache.
// Retrieval embeds the same query and anchor labels repeatedly; the cache
// keeps those calls off the embedding service. Eviction is ristretto's
// TinyLFU admission policy plus the configured TTL.
type CachedEmbedder struct {
	inner  Embedder
	cache  *ristretto.Cache[string, []float32]
	ttl    time.Duration
	logger *slog.Logger
}

// CacheOption configures a CachedEmbedder.
type CacheOption func(*cacheSettings)

type cacheSettings struct {
	maxEntries int64
	ttl        time.Duration
	logger     *slog.Logger
}

// WithCacheTTL sets how long a cached embedding stays valid.
// Default is 15 minutes.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(s *cacheSettings) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCacheMaxEntries sets the approximate cache capacity in entries.
// Default is 4096.
func WithCacheMaxEntries(n int64) CacheOption {
	return func(s *cacheSettings) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithCacheLogger sets a custom logger.
// Default is slog.Default().
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(s *cacheSettings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewCachedEmbedder wraps inner with a TTL cache keyed by the exact input text.
func NewCachedEmbedder(inner Embedder, opts ...CacheOption) (*CachedEmbedder, error) {
	settings := &cacheSettings{
		maxEntries: defaultCacheEntries,
		ttl:        defaultCacheTTL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(settings)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, []float32]{
		NumCounters: settings.maxEntries * 10,
		MaxCost:     settings.maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &CachedEmbedder{
		inner:  inner,
		cache:  cache,
		ttl:    settings.ttl,
		logger: settings.logger.With("component", "embedding-cache"),
	}, nil
}

// EmbedText returns the cached embedding for text, or delegates to the
// wrapped embedder and caches the result.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := c.cache.Get(text); ok {
		c.logger.Debug("embedding cache hit", "length", len(text))
		return vector, nil
	}

	vector, err := c.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.SetWithTTL(text, vector, 1, c.ttl)
	return vector, nil
}

// EmbedTexts embeds a batch, serving individual texts from the cache and
// delegating only the misses. The returned order matches the input.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if vector, ok := c.cache.Get(text); ok {
			vectors[i] = vector
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	embedded, err := c.inner.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}

	for j, vector := range embedded {
		if j >= len(missingIdx) {
			break
		}
		vectors[missingIdx[j]] = vector
		c.cache.SetWithTTL(missing[j], vector, 1, c.ttl)
	}

	return vectors, nil
}

// Wait blocks until pending cache writes are applied. Intended for tests.
func (c *CachedEmbedder) Wait() {
	c.cache.Wait()
}

// Close releases the cache.
func (c *CachedEmbedder) Close() {
	c.cache.Close()
}

var _ Embedder = (*CachedEmbedder)(nil)

package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// QueryCache stores query vectors keyed by model and text.
type QueryCache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vector []float32) error
}

func CacheKey(model string, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return "emb:" + model + ":" + hex.EncodeToString(sum[:])
}

type cachedEmbedder struct {
	next  Embedder
	cache QueryCache
}

// WithQueryCache caches single-query embeddings only. Ingestion batches go
// straight to the model.
func WithQueryCache(e Embedder, cache QueryCache) Embedder {
	if cache == nil {
		return e
	}
	return &cachedEmbedder{next: e, cache: cache}
}

func (c *cachedEmbedder) ModelName() string {
	return c.next.ModelName()
}

func (c *cachedEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	return c.next.BatchEmbedding(ctx, chunks)
}

func (c *cachedEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	key := CacheKey(c.next.ModelName(), query)
	if cached, ok := c.cache.Get(ctx, key); ok {
		return cloneVector(cached), nil
	}
	vec, err := c.next.GetEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, cloneVector(vec)); err != nil {
		logger().WithTrace(ctx).Warn("query cache write failed", "error", err)
	}
	return vec, nil
}

type lruCache struct {
	lru *expirable.LRU[string, []float32]
}

func NewLRUCache(size int, ttl time.Duration) QueryCache {
	return &lruCache{lru: expirable.NewLRU[string, []float32](size, nil, ttl)}
}

func (l *lruCache) Get(_ context.Context, key string) ([]float32, bool) {
	return l.lru.Get(key)
}

func (l *lruCache) Set(_ context.Context, key string, vector []float32) error {
	l.lru.Add(key, vector)
	return nil
}

func cloneVector(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}

package provider

import (
	"context"
	"fmt"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/data/store"
	"github.com/akolanti/StudyRAG/internal/rag/embedding"
	"github.com/akolanti/StudyRAG/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/StudyRAG/internal/rag/embedding/hashEmbedding"
	"github.com/akolanti/StudyRAG/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

// New builds the configured embedding provider wrapped for batching. The
// ingest and api binaries must resolve the same ModelName for a snapshot
// to be usable.
func New(ctx context.Context, cfg config.EmbedderConfig) (embedding.Embedder, error) {
	var e embedding.Embedder
	var err error
	switch cfg.Provider {
	case "hash":
		e, err = hashEmbedding.NewHashEmbedder(cfg.Dimension)
	case "google":
		e, err = googleEmbedding.NewGoogleEmbeddingClient(ctx, cfg.Model, cfg.APIKey, cfg.Dimension)
	case "openai":
		e, err = openaiEmbedding.NewOpenAIEmbeddingClient(cfg.Model, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return embedding.Batched(e, cfg.BatchSize, cfg.Workers), nil
}

// WithCache adds the query embedding cache: redis when reachable, otherwise
// an in-process LRU.
func WithCache(ctx context.Context, e embedding.Embedder, cfg config.CacheConfig) embedding.Embedder {
	log := logger_i.NewLogger("embedding cache")
	if cfg.RedisAddr != "" {
		redisCache, err := store.GetRedisEmbeddingCache(ctx, cfg.RedisAddr, cfg.TTL)
		if err == nil {
			log.Info("using redis query cache", "addr", cfg.RedisAddr)
			return embedding.WithQueryCache(e, redisCache)
		}
		log.Warn("redis is offline, falling back to in-memory cache", "addr", cfg.RedisAddr, "error", err)
	}
	return embedding.WithQueryCache(e, embedding.NewLRUCache(cfg.LRUSize, cfg.TTL))
}

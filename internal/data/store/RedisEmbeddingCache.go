package store

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/data/redisStore"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

// RedisEmbeddingCache keeps query vectors in redis as little-endian float32
// blobs so that every api replica shares them.
type RedisEmbeddingCache struct {
	store  *redisStore.Store
	ttl    time.Duration
	logger *logger_i.Logger
}

func GetRedisEmbeddingCache(ctx context.Context, addr string, ttl time.Duration) (*RedisEmbeddingCache, error) {
	s, err := redisStore.GetRedisStore(ctx, addr, config.RedisEmbeddingCacheDB)
	if err != nil {
		return nil, err
	}
	return NewRedisEmbeddingCache(s, ttl), nil
}

func NewRedisEmbeddingCache(s *redisStore.Store, ttl time.Duration) *RedisEmbeddingCache {
	return &RedisEmbeddingCache{
		store:  s,
		ttl:    ttl,
		logger: logger_i.NewLogger("EmbeddingCache"),
	}
}

func (c *RedisEmbeddingCache) Set(ctx context.Context, key string, vector []float32) error {
	log := c.logger.WithTrace(ctx).With("key", key)
	err := c.store.SetBytes(ctx, key, encodeVector(vector), c.ttl)
	if err == nil {
		log.Debug("cached query vector")
	}
	return err
}

func (c *RedisEmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	log := c.logger.WithTrace(ctx).With("key", key)
	val, err := c.store.GetBytes(ctx, key)
	if c.store.IsNil(err) {
		return nil, false
	} else if err != nil {
		log.Warn("cache read failed", "error", err)
		return nil, false
	}

	vec, ok := decodeVector(val)
	if !ok {
		log.Warn("dropping malformed cache entry", "bytes", len(val))
		if err := c.store.Del(ctx, key); err != nil {
			log.Error("Error deleting cache entry", "error", err)
		}
		return nil, false
	}
	log.Debug("query vector found in redis")
	return vec, true
}

func encodeVector(vector []float32) []byte {
	out := make([]byte, 0, 4*len(vector))
	for _, v := range vector {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

func decodeVector(data []byte) ([]float32, bool) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, false
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, true
}

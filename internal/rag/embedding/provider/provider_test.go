package provider

import (
	"context"
	"testing"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/alicebob/miniredis/v2"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		cfg           config.EmbedderConfig
		expectedModel string
		wantErr       bool
	}{
		{"hash", config.EmbedderConfig{Provider: "hash", Dimension: 64}, "hash-xxh64-64", false},
		{"google_without_key", config.EmbedderConfig{Provider: "google", Model: config.GoogleEmbeddingModel, Dimension: 768}, "", true},
		{"openai_without_key", config.EmbedderConfig{Provider: "openai", Model: config.OpenAIEmbeddingModel}, "", true},
		{"openai", config.EmbedderConfig{Provider: "openai", Model: config.OpenAIEmbeddingModel, APIKey: "k"}, "openai/" + config.OpenAIEmbeddingModel, false},
		{"unknown", config.EmbedderConfig{Provider: "word2vec"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if e.ModelName() != tt.expectedModel {
				t.Errorf("ModelName() = %q; want %q", e.ModelName(), tt.expectedModel)
			}
		})
	}
}

func TestWithCache(t *testing.T) {
	base, err := New(context.Background(), config.EmbedderConfig{Provider: "hash", Dimension: 32})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mr := miniredis.RunT(t)
	tests := []struct {
		name string
		cfg  config.CacheConfig
		keys int
	}{
		{"redis", config.CacheConfig{RedisAddr: mr.Addr(), LRUSize: 8, TTL: time.Hour}, 1},
		{"offline_falls_back", config.CacheConfig{RedisAddr: "127.0.0.1:1", LRUSize: 8, TTL: time.Hour}, 0},
		{"no_redis", config.CacheConfig{LRUSize: 8, TTL: time.Hour}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr.FlushAll()
			e := WithCache(ctx, base, tt.cfg)
			first, err := e.GetEmbedding(ctx, "deadlock")
			if err != nil {
				t.Fatal(err)
			}
			second, err := e.GetEmbedding(ctx, "deadlock")
			if err != nil {
				t.Fatal(err)
			}
			for i := range first {
				if first[i] != second[i] {
					t.Fatal("cached vector differs")
				}
			}
			if got := len(mr.Keys()); got != tt.keys {
				t.Errorf("redis holds %d keys; want %d", got, tt.keys)
			}
		})
	}
}

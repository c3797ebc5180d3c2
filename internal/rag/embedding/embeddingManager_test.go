package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
)

type mockEmbedder struct {
	batchFunc func(ctx context.Context, chunks []string) ([][]float32, error)
	queryFunc func(ctx context.Context, query string) ([]float32, error)
	calls     atomic.Int32
}

func (m *mockEmbedder) ModelName() string { return "mock" }

func (m *mockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	m.calls.Add(1)
	if m.queryFunc != nil {
		return m.queryFunc(ctx, query)
	}
	return []float32{float32(len(query))}, nil
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	m.calls.Add(1)
	if m.batchFunc != nil {
		return m.batchFunc(ctx, chunks)
	}
	out := make([][]float32, len(chunks))
	for i, c := range chunks {
		out[i] = []float32{float32(len(c)), 1}
	}
	return out, nil
}

func TestBatched_PreservesOrder(t *testing.T) {
	inner := &mockEmbedder{}
	e := Batched(inner, 2, 3)

	chunks := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := e.BatchEmbedding(context.Background(), chunks)
	if err != nil {
		t.Fatalf("BatchEmbedding failed: %v", err)
	}
	if len(vectors) != len(chunks) {
		t.Fatalf("got %d vectors, want %d", len(vectors), len(chunks))
	}
	for i, v := range vectors {
		if int(v[0]) != len(chunks[i]) {
			t.Errorf("vector %d belongs to chunk of length %d", i, int(v[0]))
		}
	}
	if got := inner.calls.Load(); got != 3 {
		t.Errorf("expected 3 batch calls, got %d", got)
	}
}

func TestBatched_FailsWholeBatch(t *testing.T) {
	tests := []struct {
		name      string
		batchFunc func(ctx context.Context, chunks []string) ([][]float32, error)
		target    error
	}{
		{
			name: "provider error",
			batchFunc: func(ctx context.Context, chunks []string) ([][]float32, error) {
				return nil, errors.New("quota")
			},
			target: commonModels.ErrEmbedding,
		},
		{
			name: "short result",
			batchFunc: func(ctx context.Context, chunks []string) ([][]float32, error) {
				return make([][]float32, len(chunks)-1), nil
			},
			target: commonModels.ErrEmbedding,
		},
		{
			name: "nil vector",
			batchFunc: func(ctx context.Context, chunks []string) ([][]float32, error) {
				return make([][]float32, len(chunks)), nil
			},
			target: commonModels.ErrEmbedding,
		},
		{
			name: "ragged dimensions",
			batchFunc: func(ctx context.Context, chunks []string) ([][]float32, error) {
				out := make([][]float32, len(chunks))
				for i := range chunks {
					out[i] = make([]float32, i+1)
				}
				return out, nil
			},
			target: commonModels.ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Batched(&mockEmbedder{batchFunc: tt.batchFunc}, 10, 1)
			vectors, err := e.BatchEmbedding(context.Background(), []string{"a", "b", "c"})
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
			if vectors != nil {
				t.Errorf("expected no vectors on failure, got %d", len(vectors))
			}
		})
	}
}

func TestBatched_QueryError(t *testing.T) {
	e := Batched(&mockEmbedder{queryFunc: func(ctx context.Context, q string) ([]float32, error) {
		return nil, errors.New("down")
	}}, 1, 1)
	if _, err := e.GetEmbedding(context.Background(), "q"); !errors.Is(err, commonModels.ErrEmbedding) {
		t.Errorf("expected ErrEmbedding, got %v", err)
	}
}

func TestWithQueryCache(t *testing.T) {
	inner := &mockEmbedder{}
	e := WithQueryCache(inner, NewLRUCache(10, time.Minute))
	ctx := context.Background()

	first, err := e.GetEmbedding(ctx, "deadlock")
	if err != nil {
		t.Fatal(err)
	}
	first[0] = 99 // caller mutation must not leak into the cache

	second, err := e.GetEmbedding(ctx, "deadlock")
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls.Load() != 1 {
		t.Errorf("expected 1 model call, got %d", inner.calls.Load())
	}
	if second[0] != float32(len("deadlock")) {
		t.Errorf("cached vector was mutated: %v", second)
	}

	if _, err := e.BatchEmbedding(ctx, []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if inner.calls.Load() != 2 {
		t.Errorf("batch calls should bypass the cache")
	}
}

func TestCacheKey_SeparatesModels(t *testing.T) {
	if CacheKey("a", "q") == CacheKey("b", "q") {
		t.Error("cache keys must differ across models")
	}
	if CacheKey("a", "q") != CacheKey("a", "q") {
		t.Error("cache key must be stable")
	}
}

package embedding

import (
	"context"
	"fmt"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"golang.org/x/sync/errgroup"
)

// Embedder maps text to fixed-dimension vectors. ModelName identifies the
// vector space; vectors from different models are not comparable.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
	ModelName() string
}

type batchedEmbedder struct {
	next      Embedder
	batchSize int
	workers   int
}

// Batched splits BatchEmbedding calls into batchSize slices run on up to
// workers goroutines. Output order always matches input order.
func Batched(e Embedder, batchSize, workers int) Embedder {
	if batchSize <= 0 {
		batchSize = 32
	}
	if workers <= 0 {
		workers = 1
	}
	return &batchedEmbedder{next: e, batchSize: batchSize, workers: workers}
}

func (b *batchedEmbedder) ModelName() string {
	return b.next.ModelName()
}

func (b *batchedEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vec, err := b.next.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", commonModels.ErrEmbedding, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", commonModels.ErrEmbedding)
	}
	return vec, nil
}

func (b *batchedEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for start := 0; start < len(chunks); start += b.batchSize {
		end := min(start+b.batchSize, len(chunks))
		g.Go(func() error {
			vectors, err := b.next.BatchEmbedding(gctx, chunks[start:end])
			if err != nil {
				return fmt.Errorf("batch [%d:%d]: %w", start, end, err)
			}
			if len(vectors) != end-start {
				return fmt.Errorf("batch [%d:%d]: got %d vectors", start, end, len(vectors))
			}
			copy(out[start:end], vectors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", commonModels.ErrEmbedding, err)
	}

	if err := checkVectors(out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkVectors rejects partial results: a nil or differently sized vector
// would shift every later position out of line with its chunk.
func checkVectors(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: missing vector at %d", commonModels.ErrEmbedding, i)
		}
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", commonModels.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}

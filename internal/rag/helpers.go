package rag

import (
	"context"
	"strings"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
)

// Score maps a squared L2 distance onto (0, 1]; 0 maps to 1.
func Score(distance float32) float64 {
	return 1 / (1 + float64(distance))
}

// Confidence is the heuristic shown next to an answer built from n passages.
func Confidence(formula string, n int) int {
	if n <= 0 {
		return 0
	}
	switch formula {
	case config.ConfidenceBase60:
		return min(95, 60+n*10)
	default:
		return min(90, n*20)
	}
}

// joinHits keeps the index's ascending-distance order. Hits whose position
// has no chunk are dropped, as are hits outside subject when one is given.
func (s *service) joinHits(hits []vectorDB.Hit, subject string, topK int) []commonModels.RetrievalResult {
	results := make([]commonModels.RetrievalResult, 0, min(len(hits), topK))
	for _, h := range hits {
		if len(results) == topK {
			break
		}
		text, meta, ok := s.corpus.Get(h.Position)
		if !ok {
			s.logger.Warn("search returned unknown position", "position", h.Position, "corpus", s.corpus.Len())
			continue
		}
		label := orDefault(meta.Subject, s.opts.UnknownSubject)
		if subject != "" && !strings.EqualFold(label, subject) {
			continue
		}
		results = append(results, commonModels.RetrievalResult{
			Text:    text,
			Score:   Score(h.Distance),
			Source:  orDefault(meta.Source, s.opts.UnknownSource),
			Subject: label,
		})
	}
	return results
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func (s *service) executeEmbeddingStep(ctx context.Context, query string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.GetEmbedding(ctx, query)
}

func (s *service) executeVectorSearchStep(ctx context.Context, queryVector []float32, k int) ([]vectorDB.Hit, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.corpus.Index().Search(queryVector, k)
}

func (s *service) executeLLMStep(ctx context.Context, req AnswerRequest, sources []commonModels.RetrievalResult) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.llmProvider.Generate(ctx, req.Question, sources, req.AnswerType)
}

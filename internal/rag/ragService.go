package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/internal/rag/embedding"
	"github.com/akolanti/StudyRAG/internal/rag/llm"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

// Corpus is the read-only view of a loaded CorpusStore.
type Corpus interface {
	Index() vectorDB.Searcher
	Get(i int) (string, commonModels.ChunkMetadata, bool)
	Len() int
}

type RetrieveOptions struct {
	TopK    int
	Subject string
}

type AnswerRequest struct {
	Question   string
	AnswerType llm.AnswerType
	TopK       int
	Subject    string
}

type AnswerResult struct {
	Answer     string
	Sources    []commonModels.RetrievalResult
	Confidence int
}

// Service is what the http and mcp boundaries call. It is safe for
// concurrent use: the corpus is never written after construction.
type Service interface {
	Retrieve(ctx context.Context, query string, opts RetrieveOptions) ([]commonModels.RetrievalResult, error)
	Answer(ctx context.Context, req AnswerRequest) (AnswerResult, error)
	CorpusSize() int
}

type Options struct {
	TopK              int
	UnknownSource     string
	UnknownSubject    string
	ConfidenceFormula string
}

type service struct {
	corpus      Corpus
	embedder    embedding.Embedder
	llmProvider llm.Provider
	opts        Options
	logger      *logger_i.Logger
}

// NewService wires an already loaded corpus. llmProvider may be nil, in
// which case Answer returns ErrNoGenerator once context is found.
func NewService(corpus Corpus, em embedding.Embedder, provider llm.Provider, opts Options) Service {
	if opts.TopK <= 0 {
		opts.TopK = config.DefaultTopK
	}
	if opts.UnknownSource == "" {
		opts.UnknownSource = config.DefaultUnknownSource
	}
	if opts.UnknownSubject == "" {
		opts.UnknownSubject = config.DefaultUnknownSubject
	}
	if opts.ConfidenceFormula == "" {
		opts.ConfidenceFormula = config.DefaultConfidenceFormula
	}
	return &service{
		corpus:      corpus,
		embedder:    em,
		llmProvider: provider,
		opts:        opts,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

var ErrNoGenerator = errors.New("no answer generator configured")

func (s *service) CorpusSize() int {
	return s.corpus.Len()
}

// Retrieve returns at most TopK passages ordered by descending score.
// An empty corpus yields an empty slice and no error.
func (s *service) Retrieve(ctx context.Context, query string, opts RetrieveOptions) ([]commonModels.RetrievalResult, error) {
	log := s.logger.WithTrace(ctx)
	topK := opts.TopK
	if topK <= 0 {
		topK = s.opts.TopK
	}

	if s.corpus.Len() == 0 || s.corpus.Index().Size() == 0 {
		log.Info("empty corpus, nothing to retrieve")
		metrics.RecordRetrieval("empty_corpus")
		return []commonModels.RetrievalResult{}, nil
	}

	queryVector, err := s.executeEmbeddingStep(ctx, query)
	if err != nil {
		log.Error("query embedding failed", "error", err)
		metrics.RecordRetrieval("failure")
		if !errors.Is(err, commonModels.ErrEmbedding) {
			err = fmt.Errorf("%w: %w", commonModels.ErrEmbedding, err)
		}
		return nil, err
	}

	// a subject filter can discard hits, so search everything and cut later
	k := topK
	if opts.Subject != "" {
		k = s.corpus.Index().Size()
	}
	hits, err := s.executeVectorSearchStep(ctx, queryVector, k)
	if err != nil {
		log.Error("vector search failed", "kind", "retrieval_failure", "error", err)
		metrics.RecordRetrieval("failure")
		return nil, fmt.Errorf("%w: %w", commonModels.ErrRetrieval, err)
	}

	results := s.joinHits(hits, opts.Subject, topK)
	if len(results) == 0 {
		metrics.RecordRetrieval("no_results")
	} else {
		metrics.RecordRetrieval("results")
	}
	log.Debug("retrieved", "results", len(results), "topK", topK, "subject", opts.Subject)
	return results, nil
}

// Answer retrieves context and hands it to the generation collaborator.
// Retrieval failures degrade to the no-context answer; the model is never
// called without context.
func (s *service) Answer(ctx context.Context, req AnswerRequest) (AnswerResult, error) {
	log := s.logger.WithTrace(ctx)
	start := time.Now()
	defer func() { metrics.CaptureRequestMetrics("answer", time.Since(start)) }()

	sources, err := s.Retrieve(ctx, req.Question, RetrieveOptions{TopK: req.TopK, Subject: req.Subject})
	switch {
	case errors.Is(err, commonModels.ErrRetrieval):
		log.Warn("answering without context after retrieval failure", "kind", "retrieval_failure", "error", err)
		sources = []commonModels.RetrievalResult{}
	case err != nil:
		return AnswerResult{}, err
	}

	if len(sources) == 0 {
		return AnswerResult{Answer: config.NoContextAnswer, Sources: sources, Confidence: 0}, nil
	}
	if s.llmProvider == nil {
		return AnswerResult{}, ErrNoGenerator
	}

	answer, err := s.executeLLMStep(ctx, req, sources)
	if err != nil {
		log.Error("LLM_GENERATION_FAILURE", "error", err)
		return AnswerResult{}, err
	}
	return AnswerResult{
		Answer:     answer,
		Sources:    sources,
		Confidence: Confidence(s.opts.ConfidenceFormula, len(sources)),
	}, nil
}

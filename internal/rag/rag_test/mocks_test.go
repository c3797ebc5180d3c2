package rag_test

import (
	"context"
	"sync/atomic"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/rag/llm"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
)

// MockSearcher implements vectorDB.Searcher
type MockSearcher struct {
	OnSearch func(query []float32, k int) ([]vectorDB.Hit, error)
	Entries  int
}

func (m *MockSearcher) Search(q []float32, k int) ([]vectorDB.Hit, error) {
	if m.OnSearch != nil {
		return m.OnSearch(q, k)
	}
	return []vectorDB.Hit{}, nil
}

func (m *MockSearcher) Size() int      { return m.Entries }
func (m *MockSearcher) Dimension() int { return 1 }

// MockCorpus implements rag.Corpus over plain slices.
type MockCorpus struct {
	Texts    []string
	Metadata []commonModels.ChunkMetadata
	Searcher *MockSearcher
}

func (m *MockCorpus) Index() vectorDB.Searcher { return m.Searcher }
func (m *MockCorpus) Len() int                 { return len(m.Texts) }

func (m *MockCorpus) Get(i int) (string, commonModels.ChunkMetadata, bool) {
	if i < 0 || i >= len(m.Texts) {
		return "", commonModels.ChunkMetadata{}, false
	}
	return m.Texts[i], m.Metadata[i], true
}

type MockEmbedder struct {
	OnGetEmbedding func(ctx context.Context, text string) ([]float32, error)
	Calls          int32
}

func (m *MockEmbedder) ModelName() string { return "mock" }

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	for i := range out {
		out[i] = []float32{0.1}
	}
	return out, nil
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1}, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, q string, contexts []commonModels.RetrievalResult, at llm.AnswerType) (string, error)
	Calls      int32
}

func (m *MockLLM) Generate(ctx context.Context, q string, contexts []commonModels.RetrievalResult, at llm.AnswerType) (string, error) {
	atomic.AddInt32(&m.Calls, 1)
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, q, contexts, at)
	}
	return "mocked llm response", nil
}

package adapter

import (
	"net/http"

	"github.com/akolanti/StudyRAG/internal/api"
	"github.com/akolanti/StudyRAG/internal/data/store"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/rag"
	"github.com/akolanti/StudyRAG/internal/rag/llm"
)

func ToAnswerRequest(req api.QueryRequest) rag.AnswerRequest {
	return rag.AnswerRequest{
		Question:   req.Question,
		AnswerType: llm.ParseAnswerType(req.AnswerType),
		TopK:       req.TopK,
		Subject:    req.Subject,
	}
}

func ToRetrieveOptions(req api.RetrieveRequest) rag.RetrieveOptions {
	return rag.RetrieveOptions{TopK: req.TopK, Subject: req.Subject}
}

func ToQueryResponse(res rag.AnswerResult) api.QueryResponse {
	return api.QueryResponse{
		Answer:     res.Answer,
		Sources:    ToSources(res.Sources),
		Confidence: res.Confidence,
	}
}

func ToRetrieveResponse(results []commonModels.RetrievalResult) api.RetrieveResponse {
	return api.RetrieveResponse{Results: ToSources(results)}
}

// ToSources never returns nil so the json field is always an array.
func ToSources(results []commonModels.RetrievalResult) []api.Source {
	sources := make([]api.Source, len(results))
	for i, r := range results {
		sources[i] = api.Source{Text: r.Text, Score: r.Score, Source: r.Source, Subject: r.Subject}
	}
	return sources
}

func ToHealthResponse(chunks int, manifest store.Manifest) api.HealthResponse {
	return api.HealthResponse{
		Status:     "ok",
		Chunks:     chunks,
		Model:      manifest.Model,
		Dimension:  manifest.Dimension,
		SnapshotId: manifest.SnapshotId,
	}
}

func BadRequest(traceId string, message string, code int) api.ErrorResponse {
	return api.ErrorResponse{
		TraceId: traceId,
		Error: api.OutgoingError{
			Code:    code,
			Message: message,
			Retry:   code == http.StatusTooManyRequests || code >= http.StatusInternalServerError,
		},
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/akolanti/StudyRAG/internal/adapter"
	"github.com/akolanti/StudyRAG/internal/api"
	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/data/store"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/rag"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

const maxRequestBody = 1 << 20

type RAGHandler struct {
	service  rag.Service
	manifest store.Manifest
	logger   *logger_i.Logger
}

func NewRAGHandler(service rag.Service, manifest store.Manifest) *RAGHandler {
	return &RAGHandler{
		service:  service,
		manifest: manifest,
		logger:   logger_i.NewLogger("RequestHandler"),
	}
}

// QueryHandler godoc
// @Summary      Answer an exam question
// @Description  Retrieves the closest passages from the corpus and asks the model for an exam style answer. With no relevant context a fixed answer is returned and the model is not called.
// @Tags         RAG
// @Accept       json
// @Produce      json
// @Param        request  body      api.QueryRequest   true  "Question, answer type (short|medium|long), top_k and optional subject"
// @Success      200      {object}  api.QueryResponse  "Answer with sources and confidence"
// @Failure      400      {object}  api.ErrorResponse  "Invalid request"
// @Failure      502      {object}  api.ErrorResponse  "Embedding or generation provider failed"
// @Failure      504      {object}  api.ErrorResponse  "Query timed out"
// @Router       /query [post]
func (h *RAGHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		h.logger.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}
	log := h.logger.WithTrace(r.Context())

	var req api.QueryRequest
	if err := decodeBody(w, r, &req); err != nil || strings.TrimSpace(req.Question) == "" || req.TopK < 0 {
		log.Warn("Bad query request", "error", err, "topK", req.TopK)
		WriteErrorResponse(w, r, http.StatusBadRequest, "question is required and top_k must not be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.QueryTimeout)
	defer cancel()

	res, err := h.service.Answer(ctx, adapter.ToAnswerRequest(req))
	if err != nil {
		log.Error("query failed", "error", err)
		WriteErrorResponse(w, r, statusFor(err), publicMessage(err))
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToQueryResponse(res))
}

// RetrieveHandler godoc
// @Summary      Retrieve passages
// @Description  Returns up to top_k passages ordered by descending score. An empty corpus, or a failed index search, yields an empty list.
// @Tags         RAG
// @Accept       json
// @Produce      json
// @Param        request  body      api.RetrieveRequest   true  "Query, top_k and optional subject"
// @Success      200      {object}  api.RetrieveResponse  "Ranked passages"
// @Failure      400      {object}  api.ErrorResponse     "Invalid request"
// @Failure      502      {object}  api.ErrorResponse     "Embedding provider failed"
// @Failure      504      {object}  api.ErrorResponse     "Query timed out"
// @Router       /retrieve [post]
func (h *RAGHandler) RetrieveHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		h.logger.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}
	log := h.logger.WithTrace(r.Context())

	req, err := parseRetrieveRequest(w, r)
	if err != nil || strings.TrimSpace(req.Query) == "" || req.TopK < 0 {
		log.Warn("Bad retrieve request", "error", err, "topK", req.TopK)
		WriteErrorResponse(w, r, http.StatusBadRequest, "query is required and top_k must not be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.QueryTimeout)
	defer cancel()

	results, err := h.service.Retrieve(ctx, req.Query, adapter.ToRetrieveOptions(req))
	if errors.Is(err, commonModels.ErrRetrieval) {
		// same degradation as /query: no context rather than an error
		log.Warn("returning no passages after retrieval failure", "kind", "retrieval_failure", "error", err)
		results, err = []commonModels.RetrievalResult{}, nil
	}
	if err != nil {
		log.Error("retrieve failed", "error", err)
		WriteErrorResponse(w, r, statusFor(err), publicMessage(err))
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToRetrieveResponse(results))
}

// HealthHandler godoc
// @Summary      Service health
// @Description  Reports the loaded snapshot and its chunk count.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func (h *RAGHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, adapter.ToHealthResponse(h.service.CorpusSize(), h.manifest))
}

// GET /retrieve?q=...&top_k=...&subject=... is accepted for quick manual checks.
func parseRetrieveRequest(w http.ResponseWriter, r *http.Request) (api.RetrieveRequest, error) {
	var req api.RetrieveRequest
	if r.Method != http.MethodGet {
		return req, decodeBody(w, r, &req)
	}
	q := r.URL.Query()
	req.Query = q.Get("q")
	req.Subject = q.Get("subject")
	if v := q.Get("top_k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			return req, err
		}
		req.TopK = k
	}
	return req, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger().Error("Couldn't close the request body", "error", err)
		}
	}(r.Body)
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(dst)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, rag.ErrNoGenerator):
		return http.StatusServiceUnavailable
	case errors.Is(err, commonModels.ErrEmbedding):
		return http.StatusBadGateway
	case errors.Is(err, commonModels.ErrRetrieval):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// publicMessage keeps provider error text out of responses.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "query timed out"
	case errors.Is(err, rag.ErrNoGenerator):
		return "answer generation is not configured"
	case errors.Is(err, commonModels.ErrEmbedding):
		return "embedding provider failed"
	case errors.Is(err, commonModels.ErrRetrieval):
		return "retrieval failed"
	default:
		return "answer generation failed"
	}
}

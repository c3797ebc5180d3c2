package mcpserver

import (
	"context"
	"errors"

	"github.com/akolanti/StudyRAG/internal/adapter"
	"github.com/akolanti/StudyRAG/internal/api"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/rag"
	"github.com/akolanti/StudyRAG/internal/rag/llm"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "0.1.0"

// Server exposes the retriever, and the answer flow when a generator is
// configured, as MCP tools.
type Server struct {
	service rag.Service
	server  *mcp.Server
	logger  *logger_i.Logger
}

type RetrieveInput struct {
	Query   string `json:"query" jsonschema:"the question or keywords to search the study corpus for"`
	TopK    int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default 3)"`
	Subject string `json:"subject,omitempty" jsonschema:"only return passages from this subject, e.g. Operating System"`
}

type RetrieveOutput struct {
	Results []api.Source `json:"results"`
	Count   int          `json:"count"`
}

type AnswerInput struct {
	Question   string `json:"question" jsonschema:"the exam question to answer"`
	AnswerType string `json:"answer_type,omitempty" jsonschema:"short, medium or long (default long)"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"number of passages used as context (default 3)"`
	Subject    string `json:"subject,omitempty" jsonschema:"restrict context to this subject"`
}

var errEmptyQuery = errors.New("query is required")

func NewServer(service rag.Service) *Server {
	s := &Server{
		service: service,
		server:  mcp.NewServer(&mcp.Implementation{Name: "studyrag", Version: Version}, nil),
		logger:  logger_i.NewLogger("MCP Server"),
	}
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the passages of the study corpus closest to a query",
	}, s.handleRetrieve)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer",
		Description: "Answer an exam question from the study corpus",
	}, s.handleAnswer)
	return s
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio", "chunks", s.service.CorpusSize())
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) handleRetrieve(ctx context.Context, _ *mcp.CallToolRequest, input RetrieveInput) (*mcp.CallToolResult, RetrieveOutput, error) {
	if input.Query == "" {
		return nil, RetrieveOutput{}, errEmptyQuery
	}
	results, err := s.service.Retrieve(ctx, input.Query, rag.RetrieveOptions{TopK: input.TopK, Subject: input.Subject})
	if errors.Is(err, commonModels.ErrRetrieval) {
		s.logger.Warn("returning no passages after retrieval failure", "kind", "retrieval_failure", "error", err)
		results, err = []commonModels.RetrievalResult{}, nil
	}
	if err != nil {
		s.logger.Error("retrieve tool failed", "error", err)
		return nil, RetrieveOutput{}, err
	}
	return nil, RetrieveOutput{Results: adapter.ToSources(results), Count: len(results)}, nil
}

func (s *Server) handleAnswer(ctx context.Context, _ *mcp.CallToolRequest, input AnswerInput) (*mcp.CallToolResult, api.QueryResponse, error) {
	if input.Question == "" {
		return nil, api.QueryResponse{}, errEmptyQuery
	}
	res, err := s.service.Answer(ctx, rag.AnswerRequest{
		Question:   input.Question,
		AnswerType: llm.ParseAnswerType(input.AnswerType),
		TopK:       input.TopK,
		Subject:    input.Subject,
	})
	if err != nil {
		s.logger.Error("answer tool failed", "error", err)
		return nil, api.QueryResponse{}, err
	}
	return nil, adapter.ToQueryResponse(res), nil
}

package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/customHttpClient"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client is the Gemini embedding provider.
type Client struct {
	genAi      *genai.Client
	model      string
	dimension  int32
	retryDelay time.Duration
	logger     *logger_i.Logger
}

func NewGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string, dimension int) (*Client, error) {
	if apikey == "" {
		return nil, errors.New("google embedding: missing api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apikey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.GetPooledClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating google embedding client: %w", err)
	}
	log := logger_i.NewLogger("google_embedding")
	log.Info("Google Embedding client created", "model", modelName, "dimension", dimension)
	return &Client{
		genAi:      c,
		model:      modelName,
		dimension:  int32(dimension),
		retryDelay: config.EmbeddingRetryDelay,
		logger:     log,
	}, nil
}

// ModelName includes the output dimensionality since it changes the vector space.
func (c *Client) ModelName() string {
	return fmt.Sprintf("google/%s@%d", c.model, c.dimension)
}

func (c *Client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	log := c.logger.WithTrace(ctx)
	res, err := c.doCallWithRetry(ctx, genai.Text(query), "RETRIEVAL_QUERY", log)
	if err != nil {
		log.Error("Error getting query embedding from Google", "error", err)
		return nil, err
	}
	if len(res.Embeddings) != 1 || res.Embeddings[0] == nil {
		return nil, fmt.Errorf("google embedding: expected 1 embedding, got %d", len(res.Embeddings))
	}
	return res.Embeddings[0].Values, nil
}

func (c *Client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	log := c.logger.WithTrace(ctx).With("batch", len(chunks))

	res, err := c.doCallWithRetry(ctx, getContent(chunks), "RETRIEVAL_DOCUMENT", log)
	if err != nil {
		log.Error("Error getting Embeddings from Google", "error", err)
		return nil, err
	}
	if len(res.Embeddings) != len(chunks) {
		return nil, fmt.Errorf("google embedding: got %d embeddings for %d chunks", len(res.Embeddings), len(chunks))
	}

	embeddingResults := make([][]float32, 0, len(chunks))
	for i, r := range res.Embeddings {
		if r == nil || len(r.Values) == 0 {
			return nil, fmt.Errorf("google embedding: empty embedding at %d", i)
		}
		embeddingResults = append(embeddingResults, r.Values)
	}
	return embeddingResults, nil
}

func (c *Client) doCallWithRetry(ctx context.Context, content []*genai.Content, taskType string, log *logger_i.Logger) (*genai.EmbedContentResponse, error) {
	res, err := c.doCall(ctx, content, taskType)
	if err == nil || !doRetry(err, log) {
		return res, err
	}

	log.Debug("Retrying embedding call", "delay", c.retryDelay)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.retryDelay):
	}
	return c.doCall(ctx, content, taskType)
}

func (c *Client) doCall(ctx context.Context, content []*genai.Content, taskType string) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: &c.dimension,
		TaskType:             taskType,
	})
}

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))
	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

func doRetry(err error, log *logger_i.Logger) bool {
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		log.Error("Rate limit hit! ", "error", err)
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		log.Error("Rate limit hit! ", "error", err)
		return true
	}
	return false
}

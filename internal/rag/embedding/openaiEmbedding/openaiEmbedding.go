package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/StudyRAG/internal/customHttpClient"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client is the OpenAI embedding provider.
type Client struct {
	api    openai.Client
	model  string
	logger *logger_i.Logger
}

func NewOpenAIEmbeddingClient(modelName string, apikey string, opts ...option.RequestOption) (*Client, error) {
	if apikey == "" {
		return nil, errors.New("openai embedding: missing api key")
	}
	base := []option.RequestOption{
		option.WithAPIKey(apikey),
		option.WithHTTPClient(customHttpClient.GetPooledClient()),
	}
	log := logger_i.NewLogger("openai_embedding")
	log.Info("OpenAI Embedding client created", "model", modelName)
	return &Client{
		api:    openai.NewClient(append(base, opts...)...),
		model:  modelName,
		logger: log,
	}, nil
}

func (c *Client) ModelName() string {
	return "openai/" + c.model
}

func (c *Client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.BatchEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	log := c.logger.WithTrace(ctx).With("batch", len(chunks))

	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: chunks},
		Model:          openai.EmbeddingModel(c.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		log.Error("Error getting Embeddings from OpenAI", "error", err)
		return nil, err
	}
	if len(resp.Data) != len(chunks) {
		return nil, fmt.Errorf("openai embedding: got %d embeddings for %d chunks", len(resp.Data), len(chunks))
	}

	// the API reports each vector's input index; do not rely on response order
	out := make([][]float32, len(chunks))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) || out[d.Index] != nil {
			return nil, fmt.Errorf("openai embedding: bad index %d", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

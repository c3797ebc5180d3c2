// Package hashEmbedding is an offline, deterministic embedder based on
// signed feature hashing of lowercase word tokens.
package hashEmbedding

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type Embedder struct {
	dimension int
	pattern   *regexp.Regexp
	stopwords map[string]struct{}
}

func NewHashEmbedder(dimension int) (*Embedder, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dimension)
	}
	return &Embedder{
		dimension: dimension,
		pattern:   regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*`),
		stopwords: defaultStopwords(),
	}, nil
}

func (c *Embedder) ModelName() string {
	return fmt.Sprintf("hash-xxh64-%d", c.dimension)
}

func (c *Embedder) Dimension() int { return c.dimension }

func (c *Embedder) GetEmbedding(_ context.Context, query string) ([]float32, error) {
	return c.embed(query), nil
}

func (c *Embedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = c.embed(chunk)
	}
	return out, nil
}

func (c *Embedder) embed(text string) []float32 {
	vec := make([]float64, c.dimension)
	for _, tok := range c.tokenize(text) {
		h := xxhash.Sum64String(tok)
		idx := int(h % uint64(c.dimension))
		if h>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, c.dimension)
	for i, v := range vec {
		if norm > 0 {
			v /= norm
		}
		out[i] = float32(v)
	}
	return out
}

func (c *Embedder) tokenize(text string) []string {
	raw := c.pattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := c.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"what", "why", "how", "when", "which", "who", "does", "do", "explain", "describe",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

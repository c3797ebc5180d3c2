// Package chunker splits extracted text into overlapping token windows.
package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akolanti/StudyRAG/internal/config"
)

// Chunker produces token-bounded windows of MaxTokens ids, each starting
// MaxTokens-Overlap ids after the previous one.
type Chunker struct {
	tokenizer Tokenizer
	maxTokens int
	overlap   int
}

type Option func(*Chunker)

func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

func WithOverlap(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

func New(t Tokenizer, opts ...Option) (*Chunker, error) {
	if t == nil {
		return nil, errors.New("chunker: nil tokenizer")
	}
	c := &Chunker{
		tokenizer: t,
		maxTokens: config.DefaultMaxTokens,
		overlap:   config.DefaultTokenOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.maxTokens {
		return nil, fmt.Errorf("chunker: overlap %d must be smaller than max tokens %d", c.overlap, c.maxTokens)
	}
	return c, nil
}

func (c *Chunker) MaxTokens() int { return c.maxTokens }
func (c *Chunker) Overlap() int   { return c.overlap }
func (c *Chunker) Stride() int    { return c.maxTokens - c.overlap }

// Chunk encodes text once and decodes each window back to a string.
// Boundaries follow tokens, not sentences. The last window may be short.
// A BPE window can end inside a multibyte rune; such partial bytes are
// replaced with U+FFFD so every chunk is valid UTF-8 and survives
// persistence unchanged.
func (c *Chunker) Chunk(text string) ([]string, error) {
	ids, err := c.tokenizer.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	var chunks []string
	for _, w := range Windows(len(ids), c.maxTokens, c.overlap) {
		decoded, err := c.tokenizer.Decode(ids[w[0]:w[1]])
		if err != nil {
			return nil, fmt.Errorf("decode window [%d:%d]: %w", w[0], w[1], err)
		}
		chunks = append(chunks, strings.ToValidUTF8(decoded, "\uFFFD"))
	}
	return chunks, nil
}

// Windows returns the [start, end) token ranges for n tokens. It stops at the
// first window that reaches n, so a window never lies wholly inside its
// predecessor and the count is ceil((n-overlap)/stride).
func Windows(n, maxTokens, overlap int) [][2]int {
	stride := maxTokens - overlap
	if n <= 0 || stride <= 0 {
		return nil
	}
	windows := make([][2]int, 0, n/stride+1)
	for start := 0; start < n; start += stride {
		end := start + maxTokens
		if end > n {
			end = n
		}
		windows = append(windows, [2]int{start, end})
		if end == n {
			break
		}
	}
	return windows
}

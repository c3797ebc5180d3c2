package store

import (
	"errors"
	"fmt"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
)

var ErrFrozen = errors.New("corpus store is read-only")

// CorpusStore owns the three position-aligned structures of a corpus: chunk
// texts, chunk metadata and the vector index. Position i in each one always
// describes the same chunk, and Append is the only way to grow them.
//
// Append is for the single ingestion writer. Once frozen (every loaded store
// is) the store is never mutated and is safe for any number of readers.
type CorpusStore struct {
	texts    []string
	metadata []commonModels.ChunkMetadata
	index    *vectorDB.FlatIndex
	frozen   bool
}

func NewCorpusStore(model string) *CorpusStore {
	idx, _ := vectorDB.NewFlatIndex(0, model)
	return &CorpusStore{index: idx}
}

// Append adds chunks in lockstep. Nothing is appended unless all three slices
// have the same length and every vector fits the index.
func (c *CorpusStore) Append(texts []string, metadata []commonModels.ChunkMetadata, vectors [][]float32) error {
	if c.frozen {
		return ErrFrozen
	}
	if len(texts) != len(metadata) || len(texts) != len(vectors) {
		return fmt.Errorf("%w: append of %d texts, %d metadata records, %d vectors",
			commonModels.ErrCorpusCorrupt, len(texts), len(metadata), len(vectors))
	}
	if err := c.index.Add(vectors); err != nil {
		return err
	}
	c.texts = append(c.texts, texts...)
	c.metadata = append(c.metadata, metadata...)
	return nil
}

func (c *CorpusStore) Freeze() {
	c.frozen = true
}

func (c *CorpusStore) Len() int {
	return len(c.texts)
}

func (c *CorpusStore) Model() string {
	return c.index.Model()
}

func (c *CorpusStore) Dimension() int {
	return c.index.Dimension()
}

// Get returns the chunk at position i, or false when i is out of range.
func (c *CorpusStore) Get(i int) (string, commonModels.ChunkMetadata, bool) {
	if i < 0 || i >= len(c.texts) || i >= len(c.metadata) {
		return "", commonModels.ChunkMetadata{}, false
	}
	return c.texts[i], c.metadata[i], true
}

// Vector returns a copy of the embedding stored for position i.
func (c *CorpusStore) Vector(i int) []float32 {
	return c.index.Vector(i)
}

// Index exposes the read side of the vector index.
func (c *CorpusStore) Index() vectorDB.Searcher {
	return c.index
}

func (c *CorpusStore) validate() error {
	if len(c.texts) != len(c.metadata) || len(c.texts) != c.index.Size() {
		return fmt.Errorf("%w: %d chunks, %d metadata records, %d vectors",
			commonModels.ErrCorpusCorrupt, len(c.texts), len(c.metadata), c.index.Size())
	}
	return nil
}

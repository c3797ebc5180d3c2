package commonModels

import (
	"errors"
	"fmt"
)

var (
	ErrExtraction        = errors.New("extraction failed")
	ErrEmbedding         = errors.New("embedding failed")
	ErrCorpusNotFound    = errors.New("corpus not found")
	ErrCorpusCorrupt     = errors.New("corpus corrupt")
	ErrRetrieval         = errors.New("retrieval failed")
	ErrModelMismatch     = errors.New("embedding model mismatch")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// ExtractionError scopes an extraction failure to one file.
type ExtractionError struct {
	File string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

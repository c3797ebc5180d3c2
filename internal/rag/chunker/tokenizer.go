package chunker

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// Tokenizer maps text to token ids and back over a fixed vocabulary.
type Tokenizer interface {
	Encode(text string) ([]uint, error)
	Decode(ids []uint) (string, error)
}

type bpeTokenizer struct {
	codec tokenizer.Codec
}

// NewBPETokenizer loads one of the embedded tiktoken vocabularies, e.g. "cl100k_base".
func NewBPETokenizer(encoding string) (Tokenizer, error) {
	codec, err := tokenizer.Get(tokenizer.Encoding(encoding))
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer %q: %w", encoding, err)
	}
	return &bpeTokenizer{codec: codec}, nil
}

func (t *bpeTokenizer) Encode(text string) ([]uint, error) {
	ids, _, err := t.codec.Encode(text)
	return ids, err
}

func (t *bpeTokenizer) Decode(ids []uint) (string, error) {
	return t.codec.Decode(ids)
}

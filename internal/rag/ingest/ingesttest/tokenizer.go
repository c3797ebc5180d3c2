package ingesttest

import (
	"fmt"
	"strings"
	"sync"
)

// WordTokenizer gives every whitespace separated word its own id, so token
// counts in tests are plain word counts.
type WordTokenizer struct {
	mu    sync.Mutex
	ids   map[string]uint
	words []string
}

func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{ids: make(map[string]uint)}
}

func (w *WordTokenizer) Encode(text string) ([]uint, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []uint
	for _, f := range strings.Fields(text) {
		id, ok := w.ids[f]
		if !ok {
			id = uint(len(w.words))
			w.ids[f] = id
			w.words = append(w.words, f)
		}
		out = append(out, id)
	}
	return out, nil
}

func (w *WordTokenizer) Decode(ids []uint) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	parts := make([]string, len(ids))
	for i, id := range ids {
		if int(id) >= len(w.words) {
			return "", fmt.Errorf("unknown id %d", id)
		}
		parts[i] = w.words[id]
	}
	return strings.Join(parts, " "), nil
}

// Words returns n distinct words prefixed with prefix.
func Words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(parts, " ")
}

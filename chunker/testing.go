package chunker

import (
	"fmt"
	"strings"
	"sync"
)

// WordTokenizer is a deterministic Tokenizer that treats every
// whitespace-separated word as one token. It needs no vocabulary download
// and is intended for tests.
type WordTokenizer struct {
	mu    sync.Mutex
	ids   map[string]int
	words []string
}

var _ Tokenizer = (*WordTokenizer)(nil)

// NewWordTokenizer creates an empty WordTokenizer.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{ids: make(map[string]int)}
}

func (w *WordTokenizer) Encode(text string) ([]int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fields := strings.Fields(text)
	tokens := make([]int, len(fields))
	for i, f := range fields {
		id, ok := w.ids[f]
		if !ok {
			id = len(w.words)
			w.ids[f] = id
			w.words = append(w.words, f)
		}
		tokens[i] = id
	}
	return tokens, nil
}

func (w *WordTokenizer) Decode(tokens []int) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	parts := make([]string, len(tokens))
	for i, id := range tokens {
		if id < 0 || id >= len(w.words) {
			return "", fmt.Errorf("unknown token %d", id)
		}
		parts[i] = w.words[id]
	}
	return strings.Join(parts, " "), nil
}

package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"sync/atomic"
)

// Dimensions is the length of vectors produced by the default MockEmbedder.
const Dimensions = 384

// MockEmbedder is a test double for ai.Embedder.
//
// EmbedFunc controls the vector for a single text and is applied per text by
// both EmbedText and EmbedTexts, so a test can fail one chunk no matter how
// the caller batches. EmbedTextFunc and EmbedTextsFunc replace a whole call.
type MockEmbedder struct {
	EmbedFunc      func(ctx context.Context, text string) ([]float32, error)
	EmbedTextFunc  func(ctx context.Context, text string) ([]float32, error)
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	callCount atomic.Int64

	mu    sync.Mutex
	texts []string
}

// NewMockEmbedder creates a mock embedder that returns deterministic unit
// vectors of length Dimensions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// NewFailingEmbedder returns an embedder that fails with err for every text
// containing substr and embeds everything else deterministically.
func NewFailingEmbedder(substr string, err error) *MockEmbedder {
	return &MockEmbedder{
		EmbedFunc: func(_ context.Context, text string) ([]float32, error) {
			if strings.Contains(text, substr) {
				return nil, err
			}
			return deterministicVector(text, Dimensions), nil
		},
	}
}

// EmbedText embeds a single text.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)
	m.record(text)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return m.embed(ctx, text)
}

// EmbedTexts embeds texts in order. The first per-text failure fails the batch.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)
	m.record(texts...)

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

func (m *MockEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return deterministicVector(text, Dimensions), nil
}

func (m *MockEmbedder) record(texts ...string) {
	m.mu.Lock()
	m.texts = append(m.texts, texts...)
	m.mu.Unlock()
}

// CallCount returns the number of EmbedText and EmbedTexts calls.
func (m *MockEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// Texts returns every text passed to the embedder, in call order.
func (m *MockEmbedder) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Reset clears recorded calls and every hook.
func (m *MockEmbedder) Reset() {
	m.callCount.Store(0)
	m.mu.Lock()
	m.texts = nil
	m.mu.Unlock()
	m.EmbedFunc = nil
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// deterministicVector derives a unit vector from an FNV hash of text.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	var sumSquares float64
	for i := range vector {
		seed = seed*1664525 + 1013904223
		vector[i] = float32(seed%1000)/1000.0 + 0.001
		sumSquares += float64(vector[i]) * float64(vector[i])
	}
	norm := float32(1 / math.Sqrt(sumSquares))
	for i := range vector {
		vector[i] *= norm
	}
	return vector
}

package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/docket/core"
)

// MockExtractor is a test double for ai.Extractor.
// It allows custom behavior injection via function fields.
type MockExtractor struct {
	// ExtractFunc is called by Extract if set.
	// If nil, uses default simple word extraction.
	ExtractFunc func(ctx context.Context, text string) (*core.Extraction, error)

	callCount atomic.Int64
}

// NewMockExtractor creates a mock extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// Extract builds a mock extraction record from text.
// Default behavior: the whole text becomes a single answer and the first
// three words become topic labels.
func (m *MockExtractor) Extract(ctx context.Context, text string) (*core.Extraction, error) {
	m.callCount.Add(1)

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, text)
	}

	labels := make([]string, 0, 3)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if len(labels) >= 3 {
			break
		}
		word = strings.Trim(word, ".,!?;:\"'()[]{}<>=")
		if word == "" {
			continue
		}
		labels = append(labels, word)
	}

	return &core.Extraction{
		RawInput: text,
		QA: []core.QAPair{
			{QuestionText: "content", Answer: text},
		},
		TopicLabels: labels,
	}, nil
}

// CallCount returns the number of times Extract was called.
func (m *MockExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockExtractor) Reset() {
	m.callCount.Store(0)
	m.ExtractFunc = nil
}

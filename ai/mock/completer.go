package mock

import (
	"context"
	"fmt"
	"sync/atomic"
)

// MockCompleter is a test double for ai.Completer.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, the user prompt is returned unchanged.
	CompleteFunc func(ctx context.Context, system, user string) (string, error)

	callCount atomic.Int64
}

// NewMockCompleter creates a mock completer with default echo behavior.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete returns the user prompt unless CompleteFunc is set.
func (m *MockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.callCount.Add(1)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, user)
	}
	return user, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockCompleter) Reset() {
	m.callCount.Store(0)
	m.CompleteFunc = nil
}

// MockImageDescriber is a test double for ai.ImageDescriber.
type MockImageDescriber struct {
	// DescribeImageFunc is called by DescribeImage if set.
	DescribeImageFunc func(ctx context.Context, mimeType string, data []byte) (string, error)

	callCount atomic.Int64
}

// NewMockImageDescriber creates a mock image describer with default behavior.
func NewMockImageDescriber() *MockImageDescriber {
	return &MockImageDescriber{}
}

// DescribeImage returns a description naming the MIME type and size.
func (m *MockImageDescriber) DescribeImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	m.callCount.Add(1)

	if m.DescribeImageFunc != nil {
		return m.DescribeImageFunc(ctx, mimeType, data)
	}
	return fmt.Sprintf("image of type %s, %d bytes", mimeType, len(data)), nil
}

// CallCount returns the number of times DescribeImage was called.
func (m *MockImageDescriber) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockImageDescriber) Reset() {
	m.callCount.Store(0)
	m.DescribeImageFunc = nil
}

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import "github.com/poiesic/docket/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock instances of every service.
type MockProvider struct {
	embedder  *MockEmbedder
	extractor *MockExtractor
	completer *MockCompleter
	describer *MockImageDescriber
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use the GetMock accessors to reach concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		extractor: NewMockExtractor(),
		completer: NewMockCompleter(),
		describer: NewMockImageDescriber(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// Nil services are replaced with defaults.
func NewMockProviderWithServices(embedder *MockEmbedder, extractor *MockExtractor, completer *MockCompleter) ai.AIProvider {
	if embedder == nil {
		embedder = NewMockEmbedder()
	}
	if extractor == nil {
		extractor = NewMockExtractor()
	}
	if completer == nil {
		completer = NewMockCompleter()
	}
	return &MockProvider{
		embedder:  embedder,
		extractor: extractor,
		completer: completer,
		describer: NewMockImageDescriber(),
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Extractor returns the mock extractor.
func (p *MockProvider) Extractor() ai.Extractor {
	return p.extractor
}

// Completer returns the mock completer.
func (p *MockProvider) Completer() ai.Completer {
	return p.completer
}

// ImageDescriber returns the mock image describer.
func (p *MockProvider) ImageDescriber() ai.ImageDescriber {
	return p.describer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockExtractor returns the underlying mock extractor for test assertions.
func (p *MockProvider) GetMockExtractor() *MockExtractor {
	return p.extractor
}

// GetMockCompleter returns the underlying mock completer for test assertions.
func (p *MockProvider) GetMockCompleter() *MockCompleter {
	return p.completer
}

// GetMockImageDescriber returns the underlying mock image describer for test assertions.
func (p *MockProvider) GetMockImageDescriber() *MockImageDescriber {
	return p.describer
}

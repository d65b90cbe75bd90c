// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Extractor,
// ai.Completer, ai.ImageDescriber and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Fail every text containing a marker
//	failing := mock.NewFailingEmbedder("chunk 3", errors.New("timeout"))
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// Call counts are safe to read while the mocks are used concurrently.
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockExtractor: Echoes the text as one answer and labels its first words
//   - MockCompleter: Returns the user prompt
//   - MockImageDescriber: Describes the image by MIME type and size
//   - MockProvider: Aggregates all of the above
package mock

package ai

import (
	"context"

	"github.com/poiesic/docket/core"
)

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Extractor turns a chunk of text into question/answer pairs and topic labels.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract analyzes text and returns its structured extraction.
	// A response that cannot be decoded is an error wrapping
	// ErrMalformedResponse, never an empty extraction.
	Extract(ctx context.Context, text string) (*core.Extraction, error)
}

// Completer produces free text from a system and a user prompt.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ImageDescriber produces a textual description of an image.
// Implementations must be thread-safe for concurrent use.
type ImageDescriber interface {
	// DescribeImage describes the image held in data, of the given MIME type.
	DescribeImage(ctx context.Context, mimeType string, data []byte) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages the service instances, ensuring they share
// configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Extractor returns the structured extraction service.
	Extractor() Extractor

	// Completer returns the free-text completion service.
	Completer() Completer

	// ImageDescriber returns the image description service.
	ImageDescriber() ImageDescriber

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreRequired is returned when a store is not provided.
	ErrStoreRequired = errors.New("store required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrChunkerRequired is returned when a chunker is not provided.
	ErrChunkerRequired = errors.New("chunker required")

	// ErrInvalidChunkParams is returned when chunk parameters are unusable.
	ErrInvalidChunkParams = errors.New("invalid chunk parameters")

	// ErrDocumentUpsert is returned when the document cannot be stored.
	// Chunking does not start.
	ErrDocumentUpsert = errors.New("document upsert failed")
)

// Per-chunk stage failures. A chunk that fails is skipped; these never
// surface as the error returned by Ingest.
var (
	ErrExtraction       = errors.New("extraction failed")
	ErrEmbedding        = errors.New("embedding failed")
	ErrPersistence      = errors.New("persistence failed")
	ErrLabelAssociation = errors.New("label association failed")
)

// StageError records why a chunk was skipped.
// errors.Is matches it against the sentinel of its stage.
type StageError struct {
	Stage   Stage
	Ordinal int
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("chunk %d: %s: %v", e.Ordinal, e.Stage.sentinel(), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	return target == e.Stage.sentinel()
}

package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a backoff allows no attempts.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbeddingCountMismatch is returned when the embedder answers a batch
	// with a different number of vectors than texts it was given.
	ErrEmbeddingCountMismatch = errors.New("embedding count does not match batch size")
)

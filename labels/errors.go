package labels

import (
	"errors"
	"fmt"

	"github.com/poiesic/docket/core"
)

var (
	// ErrLabelRepositoryRequired is returned when a label repository is not provided.
	ErrLabelRepositoryRequired = errors.New("label repository required")

	// ErrEmptyLabel is returned for names that normalize to nothing.
	ErrEmptyLabel = errors.New("label normalizes to an empty name")
)

// AssociationError reports a label that could not be attached to a chunk.
type AssociationError struct {
	Chunk core.ChunkKey
	Label string
	Err   error
}

func (e *AssociationError) Error() string {
	return fmt.Sprintf("associate label %q with chunk %s: %v", e.Label, e.Chunk, e.Err)
}

func (e *AssociationError) Unwrap() error {
	return e.Err
}

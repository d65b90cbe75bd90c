package storage

import (
	"context"

	"github.com/poiesic/docket/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository
	// UpsertDocument inserts or replaces a document by name.
	// CreatedAt is preserved on replacement; UpdatedAt is always set.
	UpsertDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by name.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, name string) (*core.Document, error)
}

// ChunkRepository provides operations for managing chunks.
type ChunkRepository interface {
	Repository
	// UpsertChunk inserts or replaces a chunk keyed by (document name, ordinal).
	// Existing label associations for the key are kept.
	UpsertChunk(ctx context.Context, chunk *core.Chunk) (*core.Chunk, error)

	// GetChunk retrieves a single chunk.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, key core.ChunkKey) (*core.Chunk, error)

	// GetChunksByDocument returns a document's chunks in ordinal order.
	GetChunksByDocument(ctx context.Context, documentName string) ([]*core.Chunk, error)

	// GetChunksByLabelIDs returns the distinct chunks associated with at
	// least one of the given labels, ordered by key.
	GetChunksByLabelIDs(ctx context.Context, labelIDs ...core.ID) ([]*core.Chunk, error)

	// ListChunks returns up to limit chunks ordered by key, starting after
	// the given key (nil starts from the beginning).
	ListChunks(ctx context.Context, after *core.ChunkKey, limit int) ([]*core.Chunk, error)

	// UpdateChunkEmbedding replaces a chunk's embedding.
	// Returns ErrNotFound if the chunk doesn't exist.
	UpdateChunkEmbedding(ctx context.Context, key core.ChunkKey, embedding []float32) error
}

// LabelRepository provides operations for managing labels and their
// associations with chunks.
type LabelRepository interface {
	Repository
	// FindLabelByNormalizedName finds a label by its unique normalized name.
	// Returns ErrNotFound if no label matches.
	FindLabelByNormalizedName(ctx context.Context, normalizedName string) (*core.Label, error)

	// GetLabel retrieves a label by ID.
	// Returns ErrNotFound if the label doesn't exist.
	GetLabel(ctx context.Context, id core.ID) (*core.Label, error)

	// GetAllLabels returns every label ordered by usage count descending,
	// then name ascending.
	GetAllLabels(ctx context.Context) ([]*core.Label, error)

	// CreateLabel inserts a new label with a zero usage count and assigns its ID.
	// Returns ErrDuplicateKey if a label with the same normalized name exists.
	CreateLabel(ctx context.Context, label *core.Label) (*core.Label, error)

	// AssociateLabel records that a chunk carries a label. The association is
	// set-like: repeating it is not an error and creates nothing.
	// Reports whether a new association was created.
	AssociateLabel(ctx context.Context, key core.ChunkKey, labelID core.ID) (bool, error)

	// IncrementLabelUsage adds one to a label's usage count and returns the new count.
	// Returns ErrNotFound if the label doesn't exist.
	IncrementLabelUsage(ctx context.Context, labelID core.ID) (int64, error)

	// GetLabelsForChunk returns the labels associated with a chunk ordered by name.
	GetLabelsForChunk(ctx context.Context, key core.ChunkKey) ([]*core.Label, error)
}

// Store bundles the repositories a backend provides.
type Store interface {
	Documents() DocumentRepository
	Chunks() ChunkRepository
	Labels() LabelRepository
	Close() error
}

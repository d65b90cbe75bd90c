package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

// ChunkRepository implements storage.ChunkRepository.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// Chunks sort by document name bytes then ordinal, matching the Badger key order.
const chunkColumns = `document_name, ordinal, content, token_count, extraction, embedding, created_at, updated_at`
const chunkOrder = ` ORDER BY document_name COLLATE "C", ordinal`

// Close is a no-op; the pool belongs to the Store.
func (r *ChunkRepository) Close() error { return nil }

func embeddingParam(embedding []float32) *pgvector.Vector {
	if len(embedding) == 0 {
		return nil
	}
	v := pgvector.NewVector(embedding)
	return &v
}

func scanChunk(row pgx.Row) (*core.Chunk, error) {
	var (
		chunk     core.Chunk
		embedding *pgvector.Vector
	)
	err := row.Scan(
		&chunk.Key.DocumentName, &chunk.Key.Ordinal, &chunk.Content, &chunk.TokenCount,
		&chunk.Extraction, &embedding, &chunk.CreatedAt, &chunk.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if embedding != nil {
		chunk.Embedding = embedding.Slice()
	}
	return &chunk, nil
}

func collectChunks(rows pgx.Rows) ([]*core.Chunk, error) {
	defer rows.Close()
	var results []*core.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, chunk)
	}
	return results, rows.Err()
}

// UpsertChunk inserts or replaces a chunk. Label associations are untouched.
func (r *ChunkRepository) UpsertChunk(ctx context.Context, chunk *core.Chunk) (*core.Chunk, error) {
	if err := core.ValidateChunk(chunk); err != nil {
		return nil, err
	}

	const query = `
		INSERT INTO chunks (document_name, ordinal, content, token_count, extraction, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (document_name, ordinal) DO UPDATE
			SET content = EXCLUDED.content,
			    token_count = EXCLUDED.token_count,
			    extraction = EXCLUDED.extraction,
			    embedding = EXCLUDED.embedding,
			    updated_at = now()
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		chunk.Key.DocumentName, chunk.Key.Ordinal, chunk.Content, chunk.TokenCount,
		chunk.Extraction, embeddingParam(chunk.Embedding),
	).Scan(&chunk.CreatedAt, &chunk.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return chunk, nil
}

// GetChunk retrieves a single chunk.
func (r *ChunkRepository) GetChunk(ctx context.Context, key core.ChunkKey) (*core.Chunk, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE document_name = $1 AND ordinal = $2`,
		key.DocumentName, key.Ordinal)
	chunk, err := scanChunk(row)
	if err != nil {
		return nil, translateError(err)
	}
	return chunk, nil
}

// GetChunksByDocument returns a document's chunks in ordinal order.
func (r *ChunkRepository) GetChunksByDocument(ctx context.Context, documentName string) ([]*core.Chunk, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE document_name = $1 ORDER BY ordinal`,
		documentName)
	if err != nil {
		return nil, err
	}
	return collectChunks(rows)
}

// GetChunksByLabelIDs returns the distinct chunks carrying any of the labels.
func (r *ChunkRepository) GetChunksByLabelIDs(ctx context.Context, labelIDs ...core.ID) ([]*core.Chunk, error) {
	if len(labelIDs) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(labelIDs))
	for i, id := range labelIDs {
		ids[i] = toDBID(id)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+chunkColumns+` FROM chunks c
		WHERE EXISTS (
			SELECT 1 FROM chunk_labels cl
			WHERE cl.document_name = c.document_name
			  AND cl.ordinal = c.ordinal
			  AND cl.label_id = ANY($1)
		)`+chunkOrder, ids)
	if err != nil {
		return nil, err
	}
	return collectChunks(rows)
}

// ListChunks returns up to limit chunks ordered by key, starting after the given key.
// A limit <= 0 returns all remaining chunks.
func (r *ChunkRepository) ListChunks(ctx context.Context, after *core.ChunkKey, limit int) ([]*core.Chunk, error) {
	var (
		query = `SELECT ` + chunkColumns + ` FROM chunks`
		args  []any
	)
	if after != nil {
		query += ` WHERE (document_name COLLATE "C", ordinal) > ($1::text COLLATE "C", $2::integer)`
		args = append(args, after.DocumentName, after.Ordinal)
	}
	query += chunkOrder
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectChunks(rows)
}

// UpdateChunkEmbedding replaces a chunk's embedding.
func (r *ChunkRepository) UpdateChunkEmbedding(ctx context.Context, key core.ChunkKey, embedding []float32) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE chunks SET embedding = $3, updated_at = now() WHERE document_name = $1 AND ordinal = $2`,
		key.DocumentName, key.Ordinal, embeddingParam(embedding))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

// DocumentRepository implements storage.DocumentRepository.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// Close is a no-op; the pool belongs to the Store.
func (r *DocumentRepository) Close() error { return nil }

// UpsertDocument inserts or replaces a document by name, keeping the original
// creation time.
func (r *DocumentRepository) UpsertDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	const query = `
		INSERT INTO documents (name, content, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (name) DO UPDATE
			SET content = EXCLUDED.content, updated_at = now()
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, doc.Name, doc.Content).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return doc, nil
}

// GetDocument retrieves a document by name.
func (r *DocumentRepository) GetDocument(ctx context.Context, name string) (*core.Document, error) {
	doc := &core.Document{Name: name}
	err := r.pool.QueryRow(ctx,
		`SELECT content, created_at, updated_at FROM documents WHERE name = $1`, name,
	).Scan(&doc.Content, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return doc, nil
}

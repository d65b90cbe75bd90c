package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

// LabelRepository implements storage.LabelRepository.
type LabelRepository struct {
	pool *pgxpool.Pool
}

var _ storage.LabelRepository = (*LabelRepository)(nil)

const labelColumns = `id, name, normalized_name, category, usage_count, created_at, updated_at`

// Close is a no-op; the pool belongs to the Store.
func (r *LabelRepository) Close() error { return nil }

func scanLabel(row pgx.Row) (*core.Label, error) {
	var (
		label core.Label
		id    int64
	)
	err := row.Scan(&id, &label.Name, &label.NormalizedName, &label.Category,
		&label.UsageCount, &label.CreatedAt, &label.UpdatedAt)
	if err != nil {
		return nil, err
	}
	label.ID = fromDBID(id)
	return &label, nil
}

func collectLabels(rows pgx.Rows) ([]*core.Label, error) {
	defer rows.Close()
	var results []*core.Label
	for rows.Next() {
		label, err := scanLabel(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, label)
	}
	return results, rows.Err()
}

// FindLabelByNormalizedName finds a label by its unique normalized name.
func (r *LabelRepository) FindLabelByNormalizedName(ctx context.Context, normalizedName string) (*core.Label, error) {
	label, err := scanLabel(r.pool.QueryRow(ctx,
		`SELECT `+labelColumns+` FROM labels WHERE normalized_name = $1`, normalizedName))
	if err != nil {
		return nil, translateError(err)
	}
	return label, nil
}

// GetLabel retrieves a label by ID.
func (r *LabelRepository) GetLabel(ctx context.Context, id core.ID) (*core.Label, error) {
	label, err := scanLabel(r.pool.QueryRow(ctx,
		`SELECT `+labelColumns+` FROM labels WHERE id = $1`, toDBID(id)))
	if err != nil {
		return nil, translateError(err)
	}
	return label, nil
}

// GetAllLabels returns every label by usage count descending, then name.
func (r *LabelRepository) GetAllLabels(ctx context.Context) ([]*core.Label, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+labelColumns+` FROM labels ORDER BY usage_count DESC, name COLLATE "C"`)
	if err != nil {
		return nil, err
	}
	return collectLabels(rows)
}

// CreateLabel inserts a new label. A taken normalized name, including one
// claimed by a concurrent writer, yields storage.ErrDuplicateKey.
func (r *LabelRepository) CreateLabel(ctx context.Context, label *core.Label) (*core.Label, error) {
	if err := core.ValidateLabel(label); err != nil {
		return nil, err
	}

	label.ID = core.IDFromContent(label.NormalizedName)
	label.UsageCount = 0

	err := r.pool.QueryRow(ctx, `
		INSERT INTO labels (id, name, normalized_name, category, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, now(), now())
		RETURNING created_at, updated_at`,
		toDBID(label.ID), label.Name, label.NormalizedName, label.Category,
	).Scan(&label.CreatedAt, &label.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return label, nil
}

// AssociateLabel records a chunk-label association once.
func (r *LabelRepository) AssociateLabel(ctx context.Context, key core.ChunkKey, labelID core.ID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO chunk_labels (document_name, ordinal, label_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		key.DocumentName, key.Ordinal, toDBID(labelID))
	if err != nil {
		return false, translateError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// IncrementLabelUsage adds one to a label's usage count atomically.
func (r *LabelRepository) IncrementLabelUsage(ctx context.Context, labelID core.ID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`UPDATE labels SET usage_count = usage_count + 1, updated_at = now() WHERE id = $1 RETURNING usage_count`,
		toDBID(labelID)).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	return count, err
}

// GetLabelsForChunk returns the labels associated with a chunk ordered by name.
func (r *LabelRepository) GetLabelsForChunk(ctx context.Context, key core.ChunkKey) ([]*core.Label, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.name, l.normalized_name, l.category, l.usage_count, l.created_at, l.updated_at
		FROM labels l
		JOIN chunk_labels cl ON cl.label_id = l.id
		WHERE cl.document_name = $1 AND cl.ordinal = $2
		ORDER BY l.name COLLATE "C"`,
		key.DocumentName, key.Ordinal)
	if err != nil {
		return nil, err
	}
	return collectLabels(rows)
}

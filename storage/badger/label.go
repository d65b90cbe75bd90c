package badger

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

// LabelRepository implements storage.LabelRepository for BadgerDB.
//
// Label IDs are content-based: IDFromContent of the normalized name.
// Uniqueness of normalized names is enforced by a name index key written
// in the same transaction as the label.
type LabelRepository struct {
	backend *Backend
}

var _ storage.LabelRepository = (*LabelRepository)(nil)

// NewLabelRepository creates a new LabelRepository.
func NewLabelRepository(backend *Backend) *LabelRepository {
	return &LabelRepository{backend: backend}
}

// Close releases resources. LabelRepository has no resources to release.
func (r *LabelRepository) Close() error {
	return nil
}

// FindLabelByNormalizedName finds a label by its unique normalized name.
func (r *LabelRepository) FindLabelByNormalizedName(ctx context.Context, normalizedName string) (*core.Label, error) {
	var result *core.Label
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeLabelNameKey(normalizedName))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		err = item.Value(func(val []byte) error {
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		result, err = readValue(tx, makeLabelKey(id), storage.UnmarshalLabel)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetLabel retrieves a label by ID.
func (r *LabelRepository) GetLabel(ctx context.Context, id core.ID) (*core.Label, error) {
	var result *core.Label
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readValue(tx, makeLabelKey(id), storage.UnmarshalLabel)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetAllLabels returns every label ordered by usage desc, then name asc.
func (r *LabelRepository) GetAllLabels(ctx context.Context) ([]*core.Label, error) {
	var results []*core.Label
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(labelPrefix), true, func(item *badger.Item) error {
			return item.Value(func(val []byte) error {
				label, err := storage.UnmarshalLabel(val)
				if err != nil {
					return err
				}
				results = append(results, label)
				return nil
			})
		})
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Label) int {
		if c := cmp.Compare(b.UsageCount, a.UsageCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return results, nil
}

// CreateLabel inserts a new label.
// Returns storage.ErrDuplicateKey if the normalized name is taken, including
// when a concurrent writer claims it first.
func (r *LabelRepository) CreateLabel(ctx context.Context, label *core.Label) (*core.Label, error) {
	if err := core.ValidateLabel(label); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		nameKey := makeLabelNameKey(label.NormalizedName)
		if _, err := tx.Get(nameKey); err == nil {
			return storage.ErrDuplicateKey
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		label.ID = core.IDFromContent(label.NormalizedName)
		label.UsageCount = 0
		label.CreatedAt = time.Now().UTC()
		label.UpdatedAt = label.CreatedAt

		value, err := storage.MarshalLabel(label)
		if err != nil {
			return err
		}
		if err := tx.Set(makeLabelKey(label.ID), value); err != nil {
			return err
		}
		if err := tx.Set(nameKey, storage.MarshalID(label.ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if errors.Is(err, badger.ErrConflict) {
		return nil, storage.ErrDuplicateKey
	}
	if err != nil {
		return nil, err
	}
	return label, nil
}

// AssociateLabel records a chunk-label association in both index directions.
func (r *LabelRepository) AssociateLabel(ctx context.Context, key core.ChunkKey, labelID core.ID) (bool, error) {
	var created bool
	err := r.backend.Update(func(tx *badger.Txn) error {
		created = false
		forward := makeChunkLabelKey(key, labelID)
		if _, err := tx.Get(forward); err == nil {
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := tx.Set(forward, nil); err != nil {
			return err
		}
		if err := tx.Set(makeLabelChunkKey(labelID, key), nil); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// IncrementLabelUsage adds one to a label's usage count.
func (r *LabelRepository) IncrementLabelUsage(ctx context.Context, labelID core.ID) (int64, error) {
	var count int64
	err := r.backend.Update(func(tx *badger.Txn) error {
		key := makeLabelKey(labelID)
		label, err := readValue(tx, key, storage.UnmarshalLabel)
		if err != nil {
			return err
		}
		if label == nil {
			return storage.ErrNotFound
		}

		label.UsageCount++
		label.UpdatedAt = time.Now().UTC()
		count = label.UsageCount

		value, err := storage.MarshalLabel(label)
		if err != nil {
			return err
		}
		return tx.Set(key, value)
	})
	return count, err
}

// GetLabelsForChunk returns the labels associated with a chunk ordered by name.
func (r *LabelRepository) GetLabelsForChunk(ctx context.Context, key core.ChunkKey) ([]*core.Label, error) {
	var results []*core.Label
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeChunkLabelPrefix(key)
		return scanPrefix(tx, prefix, false, func(item *badger.Item) error {
			id, err := storage.UnmarshalID(item.Key()[len(prefix):])
			if err != nil {
				return err
			}
			label, err := readValue(tx, makeLabelKey(id), storage.UnmarshalLabel)
			if err != nil {
				return err
			}
			if label != nil {
				results = append(results, label)
			}
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Label) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return results, nil
}

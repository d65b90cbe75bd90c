package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{backend: backend}
}

// Close releases resources. DocumentRepository has no resources to release.
func (r *DocumentRepository) Close() error {
	return nil
}

// UpsertDocument inserts or replaces a document by name.
func (r *DocumentRepository) UpsertDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	err := r.backend.Update(func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.Name)
		old, err := readValue(tx, key, storage.UnmarshalDocument)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		doc.UpdatedAt = now
		if old != nil {
			doc.CreatedAt = old.CreatedAt
		} else {
			doc.CreatedAt = now
		}

		value, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		return tx.Set(key, value)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument retrieves a document by name.
func (r *DocumentRepository) GetDocument(ctx context.Context, name string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readValue(tx, makeDocumentKey(name), storage.UnmarshalDocument)
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

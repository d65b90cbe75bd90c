package badger

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// UpsertChunk inserts or replaces a chunk keyed by (document name, ordinal).
func (r *ChunkRepository) UpsertChunk(ctx context.Context, chunk *core.Chunk) (*core.Chunk, error) {
	if err := core.ValidateChunk(chunk); err != nil {
		return nil, err
	}

	err := r.backend.Update(func(tx *badger.Txn) error {
		key := makeChunkKey(chunk.Key)
		old, err := readValue(tx, key, storage.UnmarshalChunk)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		chunk.UpdatedAt = now
		if old != nil {
			chunk.CreatedAt = old.CreatedAt
		} else {
			chunk.CreatedAt = now
		}

		value, err := storage.MarshalChunk(chunk)
		if err != nil {
			return err
		}
		return tx.Set(key, value)
	})
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// GetChunk retrieves a single chunk.
func (r *ChunkRepository) GetChunk(ctx context.Context, key core.ChunkKey) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readValue(tx, makeChunkKey(key), storage.UnmarshalChunk)
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

// GetChunksByDocument returns a document's chunks in ordinal order.
func (r *ChunkRepository) GetChunksByDocument(ctx context.Context, documentName string) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, makeDocumentChunksPrefix(documentName), true, func(item *badger.Item) error {
			return item.Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				results = append(results, chunk)
				return nil
			})
		})
	}, false)
	return results, err
}

// GetChunksByLabelIDs returns the distinct chunks carrying any of the labels.
func (r *ChunkRepository) GetChunksByLabelIDs(ctx context.Context, labelIDs ...core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		seen := make(map[string]struct{})
		var keys [][]byte

		for _, id := range labelIDs {
			prefix := makeLabelChunkPrefix(id)
			err := scanPrefix(tx, prefix, false, func(item *badger.Item) error {
				encoded := item.KeyCopy(nil)[len(prefix):]
				if _, ok := seen[string(encoded)]; ok {
					return nil
				}
				seen[string(encoded)] = struct{}{}
				keys = append(keys, encoded)
				return nil
			})
			if err != nil {
				return err
			}
		}

		slices.SortFunc(keys, bytes.Compare)

		for _, encoded := range keys {
			chunkKey, err := decodeChunkKey(encoded)
			if err != nil {
				return err
			}
			chunk, err := readValue(tx, makeChunkKey(chunkKey), storage.UnmarshalChunk)
			if err != nil {
				return err
			}
			// association may outlive its chunk row
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// ListChunks returns up to limit chunks ordered by key, starting after the given key.
func (r *ChunkRepository) ListChunks(ctx context.Context, after *core.ChunkKey, limit int) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		start := []byte(chunkPrefix)
		var afterKey []byte
		if after != nil {
			afterKey = makeChunkKey(*after)
			start = afterKey
		}

		for iter.Seek(start); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			item := iter.Item()
			if afterKey != nil && bytes.Equal(item.Key(), afterKey) {
				continue
			}
			err := item.Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				results = append(results, chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return results, err
}

// UpdateChunkEmbedding replaces a chunk's embedding.
func (r *ChunkRepository) UpdateChunkEmbedding(ctx context.Context, key core.ChunkKey, embedding []float32) error {
	return r.backend.Update(func(tx *badger.Txn) error {
		k := makeChunkKey(key)
		chunk, err := readValue(tx, k, storage.UnmarshalChunk)
		if err != nil {
			return err
		}
		if chunk == nil {
			return storage.ErrNotFound
		}

		chunk.Embedding = embedding
		chunk.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalChunk(chunk)
		if err != nil {
			return err
		}
		return tx.Set(k, value)
	})
}

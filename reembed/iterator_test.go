package reembed

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
	"github.com/poiesic/docket/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (storage.ChunkRepository, func()) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
	}

	return store.Chunks(), cleanup
}

func addChunks(t *testing.T, repo storage.ChunkRepository, document string, n int) []core.ChunkKey {
	t.Helper()
	keys := make([]core.ChunkKey, n)
	for i := 0; i < n; i++ {
		chunk := &core.Chunk{
			Key:        core.ChunkKey{DocumentName: document, Ordinal: i},
			Content:    fmt.Sprintf("content %d", i),
			Extraction: fmt.Sprintf(`{"raw_input":"content %d","qa":[],"topic_labels":[]}`, i),
			Embedding:  []float32{0, 0, 1},
		}
		_, err := repo.UpsertChunk(context.Background(), chunk)
		require.NoError(t, err)
		keys[i] = chunk.Key
	}
	return keys
}

func TestChunkIterator_Pages(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	addChunks(t, repo, "a.txt", 3)
	addChunks(t, repo, "b.txt", 2)

	iter := NewChunkIterator(repo, 2)
	var sizes []int
	seen := make(map[core.ChunkKey]bool)
	err := iter.ForEach(context.Background(), func(chunks []*core.Chunk) error {
		sizes = append(sizes, len(chunks))
		for _, c := range chunks {
			assert.False(t, seen[c.Key], "chunk %s visited twice", c.Key)
			seen[c.Key] = true
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Len(t, seen, 5)
}

func TestChunkIterator_ExactMultiple(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	addChunks(t, repo, "a.txt", 4)

	count, err := NewChunkIterator(repo, 2).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestChunkIterator_Empty(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	calls := 0
	err := NewChunkIterator(repo, 10).ForEach(context.Background(), func([]*core.Chunk) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestChunkIterator_StopsOnError(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	addChunks(t, repo, "a.txt", 5)

	boom := fmt.Errorf("boom")
	calls := 0
	err := NewChunkIterator(repo, 2).ForEach(context.Background(), func([]*core.Chunk) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestChunkIterator_ContextCanceled(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	addChunks(t, repo, "a.txt", 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewChunkIterator(repo, 2).ForEach(ctx, func([]*core.Chunk) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewChunkIterator_DefaultBatchSize(t *testing.T) {
	iter := NewChunkIterator(nil, 0)
	assert.Equal(t, DefaultBatchSize, iter.batchSize)
}

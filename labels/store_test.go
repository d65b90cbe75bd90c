package labels

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
	"github.com/poiesic/docket/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, storage.LabelRepository) {
	t.Helper()
	backing, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { backing.Close() })

	s, err := NewStore(backing.Labels(), opts...)
	require.NoError(t, err)
	return s, backing.Labels()
}

func chunkKey(ordinal int) core.ChunkKey {
	return core.ChunkKey{DocumentName: "survey.csv", Ordinal: ordinal}
}

func TestNewStore_RequiresRepository(t *testing.T) {
	_, err := NewStore(nil)
	assert.ErrorIs(t, err, ErrLabelRepositoryRequired)
}

func TestGetOrCreate_SameNormalizedName(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	first, err := s.GetOrCreate(ctx, "Teaching Methods", "topic")
	require.NoError(t, err)
	second, err := s.GetOrCreate(ctx, "teaching-methods", "topic")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Teaching Methods", second.Name)
	assert.Equal(t, "teaching_methods", second.NormalizedName)
	assert.Equal(t, "topic", second.Category)

	stored, err := repo.GetLabel(ctx, first.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.UsageCount)
}

func TestGetOrCreate_FuzzyMatchKeepsCanonicalName(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	original, err := s.GetOrCreate(ctx, "Professional Development", "")
	require.NoError(t, err)

	variant, err := s.GetOrCreate(ctx, "professional developmnt", "")
	require.NoError(t, err)
	assert.Equal(t, original.ID, variant.ID)
	assert.Equal(t, "Professional Development", variant.Name)

	plural, err := s.GetOrCreate(ctx, "Professional Developments", "")
	require.NoError(t, err)
	assert.Equal(t, original.ID, plural.ID)

	all, err := repo.GetAllLabels(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetOrCreate_EmptyName(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetOrCreate(context.Background(), " -- ", "")
	assert.ErrorIs(t, err, ErrEmptyLabel)
}

func TestAssociate_IdempotentButCounts(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	_, err := s.Associate(ctx, chunkKey(0), []string{"Obstacles"}, "")
	require.NoError(t, err)
	got, err := s.Associate(ctx, chunkKey(0), []string{"obstacles"}, "")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.EqualValues(t, 2, got[0].UsageCount)

	forChunk, err := repo.GetLabelsForChunk(ctx, chunkKey(0))
	require.NoError(t, err)
	assert.Len(t, forChunk, 1)
}

func TestAssociate_InputOrder(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Associate(context.Background(), chunkKey(1), []string{"Zeta", "alpha", "Mid"}, "")
	require.NoError(t, err)

	var names []string
	for _, l := range got {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"Zeta", "alpha", "Mid"}, names)
}

// flakyRepo fails increments for one label name.
type flakyRepo struct {
	storage.LabelRepository
	failFor core.ID
}

func (r *flakyRepo) IncrementLabelUsage(ctx context.Context, id core.ID) (int64, error) {
	if id == r.failFor {
		return 0, errors.New("connection reset")
	}
	return r.LabelRepository.IncrementLabelUsage(ctx, id)
}

func TestAssociate_BestEffortPerLabel(t *testing.T) {
	backing, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer backing.Close()

	repo := &flakyRepo{LabelRepository: backing.Labels(), failFor: core.IDFromContent("broken")}
	s, err := NewStore(repo)
	require.NoError(t, err)

	got, err := s.Associate(context.Background(), chunkKey(2), []string{"first", "broken", "", "last"}, "")

	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, "last", got[1].Name)

	var assocErr *AssociationError
	require.ErrorAs(t, err, &assocErr)
	assert.Equal(t, chunkKey(2), assocErr.Chunk)
	assert.ErrorIs(t, err, ErrEmptyLabel)
	assert.ErrorContains(t, err, "connection reset")
}

func TestGetOrCreate_ConcurrentExactDuplicates(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]core.ID, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, err := s.GetOrCreate(ctx, "Student Engagement", "")
			if assert.NoError(t, err) {
				ids[i] = l.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	all, err := repo.GetAllLabels(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetOrCreate_SerializedCreationDedupesVariants(t *testing.T) {
	s, repo := newTestStore(t, WithSerializedCreation())
	ctx := context.Background()

	variants := []string{"aha moment", "aha moments", "Aha-Moment", "AHA  moment!"}
	var wg sync.WaitGroup
	for _, v := range variants {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := s.GetOrCreate(ctx, name, "")
			assert.NoError(t, err)
		}(v)
	}
	wg.Wait()

	all, err := repo.GetAllLabels(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

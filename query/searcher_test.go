package query

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/docket/ai/mock"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/labels"
	"github.com/poiesic/docket/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seededChunk struct {
	question string
	answer   string
	labels   []string
}

// setupKnowledgeBase stores one chunk per entry of doc "survey" and
// associates its labels.
func setupKnowledgeBase(t *testing.T, chunks ...seededChunk) *badger.Store {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	labelStore, err := labels.NewStore(store.Labels())
	require.NoError(t, err)

	for i, c := range chunks {
		extraction := &core.Extraction{
			RawInput:    c.question + " " + c.answer,
			QA:          []core.QAPair{{QuestionText: c.question, Answer: c.answer}},
			TopicLabels: c.labels,
		}
		serialized, err := extraction.Marshal()
		require.NoError(t, err)

		key := core.ChunkKey{DocumentName: "survey", Ordinal: i}
		_, err = store.Chunks().UpsertChunk(ctx, &core.Chunk{
			Key:        key,
			Content:    c.question + "=" + c.answer,
			Extraction: serialized,
			Embedding:  []float32{float32(i + 1), 1, 0},
		})
		require.NoError(t, err)

		_, err = labelStore.Associate(ctx, key, c.labels, "")
		require.NoError(t, err)
	}
	return store
}

func defaultKnowledgeBase(t *testing.T) *badger.Store {
	return setupKnowledgeBase(t,
		seededChunk{"Which methods work?", "Project based learning", []string{"teaching_methods"}},
		seededChunk{"What blocks you?", "Lack of time", []string{"obstacles"}},
		seededChunk{"What would help?", "Fewer tests and more time", []string{"teaching_methods", "obstacles"}},
	)
}

func newTestSearcher(t *testing.T, store *badger.Store, completer *mock.MockCompleter, opts ...Option) *Searcher {
	provider := mock.NewMockProviderWithServices(nil, nil, completer)
	s, err := NewSearcher(store.Chunks(), store.Labels(), provider, opts...)
	require.NoError(t, err)
	return s
}

func chunkOrdinals(chunks []*core.ChunkWithLabels) []int {
	ordinals := make([]int, len(chunks))
	for i, c := range chunks {
		ordinals[i] = c.Chunk.Key.Ordinal
	}
	return ordinals
}

func TestNewSearcher(t *testing.T) {
	store := setupKnowledgeBase(t)
	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		s, err := NewSearcher(store.Chunks(), store.Labels(), provider)
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		s, err := NewSearcher(store.Chunks(), store.Labels(), provider, WithLogger(nil), WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		_, err := NewSearcher(nil, store.Labels(), provider)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil label repository", func(t *testing.T) {
		_, err := NewSearcher(store.Chunks(), nil, provider)
		assert.Equal(t, ErrLabelRepositoryRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewSearcher(store.Chunks(), store.Labels(), nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestChunksByLabels(t *testing.T) {
	ctx := context.Background()
	store := defaultKnowledgeBase(t)
	s := newTestSearcher(t, store, mock.NewMockCompleter())

	methods, err := store.Labels().FindLabelByNormalizedName(ctx, "teaching_methods")
	require.NoError(t, err)

	chunks, err := s.ChunksByLabels(ctx, methods.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 2}, chunkOrdinals(chunks))
	for _, c := range chunks {
		if c.Chunk.Key.Ordinal == 2 {
			assert.Len(t, c.Labels, 2)
		}
	}

	empty, err := s.ChunksByLabels(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestChunksByLabelNames(t *testing.T) {
	ctx := context.Background()
	store := defaultKnowledgeBase(t)
	s := newTestSearcher(t, store, mock.NewMockCompleter())

	chunks, err := s.ChunksByLabelNames(ctx, "Obstacles", "never-used")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, chunkOrdinals(chunks))

	chunks, err = s.ChunksByLabelNames(ctx, "never-used")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	s := newTestSearcher(t, defaultKnowledgeBase(t), mock.NewMockCompleter())
	_, err := s.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAsk_NoData(t *testing.T) {
	completer := mock.NewMockCompleter()
	s := newTestSearcher(t, setupKnowledgeBase(t), completer)

	answer, err := s.Ask(context.Background(), "What blocks participants?")
	require.NoError(t, err)
	assert.Equal(t, NoDataAnswer, answer.Answer)
	assert.Empty(t, answer.SelectedLabels)
	assert.Zero(t, completer.CallCount())
}

func TestAsk_ModelSelectsLabels(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		if system == labelSelectionPrompt {
			assert.Contains(t, user, "Question: What blocks participants?")
			assert.Contains(t, user, "- obstacles")
			return "```json\n[\"Obstacles\", \"unknown\"]\n```", nil
		}
		assert.Equal(t, answerPrompt, system)
		assert.Contains(t, user, "Q: What blocks you?\nA: Lack of time")
		assert.NotContains(t, user, "Project based learning")
		return "Lack of time is the main obstacle.", nil
	}
	s := newTestSearcher(t, defaultKnowledgeBase(t), completer)

	answer, err := s.Ask(context.Background(), "What blocks participants?")
	require.NoError(t, err)
	assert.Equal(t, "Lack of time is the main obstacle.", answer.Answer)
	require.Len(t, answer.SelectedLabels, 1)
	assert.Equal(t, "obstacles", answer.SelectedLabels[0].NormalizedName)
	assert.ElementsMatch(t, []int{1, 2}, chunkOrdinals(answer.Chunks))
	assert.Equal(t, 2, completer.CallCount())
}

func TestAsk_FallsBackToLabelsInQuestion(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		if system == labelSelectionPrompt {
			return "I am not sure.", nil
		}
		return "Project based learning works.", nil
	}
	s := newTestSearcher(t, defaultKnowledgeBase(t), completer)

	answer, err := s.Ask(context.Background(), "Which teaching methods do you use?")
	require.NoError(t, err)
	require.Len(t, answer.SelectedLabels, 1)
	assert.Equal(t, "teaching_methods", answer.SelectedLabels[0].NormalizedName)
	assert.ElementsMatch(t, []int{0, 2}, chunkOrdinals(answer.Chunks))
}

func TestAsk_SelectionErrorFallsBack(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		if system == labelSelectionPrompt {
			return "", errors.New("rate limited")
		}
		return "ok", nil
	}
	s := newTestSearcher(t, defaultKnowledgeBase(t), completer)

	answer, err := s.Ask(context.Background(), "Tell me about obstacles")
	require.NoError(t, err)
	require.Len(t, answer.SelectedLabels, 1)
	assert.Equal(t, "ok", answer.Answer)
}

func TestAsk_NoRelevantLabels(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "[]", nil
	}
	s := newTestSearcher(t, defaultKnowledgeBase(t), completer)

	answer, err := s.Ask(context.Background(), "What is the weather?")
	require.NoError(t, err)
	assert.Equal(t, NoLabelsAnswer, answer.Answer)
	assert.Equal(t, 1, completer.CallCount())
}

func TestAsk_AnswerErrorPropagates(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		if system == labelSelectionPrompt {
			return `["obstacles"]`, nil
		}
		return "", errors.New("model unavailable")
	}
	s := newTestSearcher(t, defaultKnowledgeBase(t), completer)

	_, err := s.Ask(context.Background(), "What blocks participants?")
	assert.EqualError(t, err, "model unavailable")
}

func TestAsk_MaxChunks(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		if system == labelSelectionPrompt {
			return `["obstacles", "teaching_methods"]`, nil
		}
		return "answer", nil
	}
	s := newTestSearcher(t, defaultKnowledgeBase(t), completer, WithMaxChunks(1))

	answer, err := s.Ask(context.Background(), "Everything")
	require.NoError(t, err)
	require.Len(t, answer.Chunks, 1)
	// the only chunk carrying both selected labels ranks first
	assert.Equal(t, 2, answer.Chunks[0].Chunk.Key.Ordinal)
}

type recordingMonitor struct {
	started      string
	selected     int
	usedFallback bool
	retrieved    int
	finished     *Answer
}

func (m *recordingMonitor) Start(q string) { m.started = q }
func (m *recordingMonitor) AfterLabelSelection(l []*core.Label, fallback bool) {
	m.selected = len(l)
	m.usedFallback = fallback
}
func (m *recordingMonitor) AfterChunkRetrieval(c []*core.ChunkWithLabels) { m.retrieved = len(c) }
func (m *recordingMonitor) Finish(a *Answer)                              { m.finished = a }

func TestAskWithMonitor(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		if system == labelSelectionPrompt {
			return `["obstacles"]`, nil
		}
		return "answer", nil
	}
	s := newTestSearcher(t, defaultKnowledgeBase(t), completer)

	monitor := &recordingMonitor{}
	answer, err := s.AskWithMonitor(context.Background(), " What blocks participants? ", monitor)
	require.NoError(t, err)
	assert.Equal(t, "What blocks participants?", monitor.started)
	assert.Equal(t, 1, monitor.selected)
	assert.False(t, monitor.usedFallback)
	assert.Equal(t, 2, monitor.retrieved)
	assert.Same(t, answer, monitor.finished)
}

func TestParseLabelNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseLabelNames(`Here you go: ["a", "b"]`))
	assert.Equal(t, []string{}, parseLabelNames(`[]`))
	assert.Nil(t, parseLabelNames("no array"))
	assert.Nil(t, parseLabelNames("[1, 2]"))
}

func TestMentionedLabels(t *testing.T) {
	all := []*core.Label{
		{ID: 1, Name: "Teaching Methods", NormalizedName: "teaching_methods"},
		{ID: 2, Name: "obstacles", NormalizedName: "obstacles"},
		{ID: 3, Name: "assessment", NormalizedName: "assessment"},
	}
	found := mentionedLabels("Obstacles to ASSESSMENT and teaching methods", all)
	assert.Len(t, found, 3)

	assert.Empty(t, mentionedLabels("weather", all))
}

func TestContainsAllQueryWords(t *testing.T) {
	assert.True(t, containsAllQueryWords("Lack of time, mostly.", "What is the time?"))
	assert.False(t, containsAllQueryWords("Lack of time", "time and money"))
	assert.False(t, containsAllQueryWords("anything", "the of and"))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}

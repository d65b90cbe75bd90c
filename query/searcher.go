package query

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/docket/ai"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/labels"
	"github.com/poiesic/docket/storage"
)

const (
	// DefaultMaxChunks is the number of chunks given to the model as context.
	DefaultMaxChunks = 10

	maxSelectedLabels = 5
	maxFallbackLabels = 3
)

// Answer is the result of Ask.
type Answer struct {
	Question       string
	Answer         string
	SelectedLabels []*core.Label
	Chunks         []*core.ChunkWithLabels
}

// Searcher retrieves chunks by label and answers questions over them.
type Searcher struct {
	chunkRepository storage.ChunkRepository
	labelRepository storage.LabelRepository
	embedder        ai.Embedder
	completer       ai.Completer
	maxChunks       int
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMaxChunks sets how many ranked chunks are used to answer.
// Default is DefaultMaxChunks, with a minimum of 1.
func WithMaxChunks(n int) Option {
	return func(s *Searcher) error {
		if n < 1 {
			n = 1
		}
		s.maxChunks = n
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	chunkRepository storage.ChunkRepository,
	labelRepository storage.LabelRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if labelRepository == nil {
		return nil, ErrLabelRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		chunkRepository: chunkRepository,
		labelRepository: labelRepository,
		embedder:        provider.Embedder(),
		completer:       provider.Completer(),
		maxChunks:       DefaultMaxChunks,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "query")

	return s, nil
}

// Labels returns every label, most used first.
func (s *Searcher) Labels(ctx context.Context) ([]*core.Label, error) {
	return s.labelRepository.GetAllLabels(ctx)
}

// ChunksByLabels returns the chunks carrying at least one of the labels,
// each with all of its labels.
func (s *Searcher) ChunksByLabels(ctx context.Context, ids ...core.ID) ([]*core.ChunkWithLabels, error) {
	if len(ids) == 0 {
		return []*core.ChunkWithLabels{}, nil
	}

	chunks, err := s.chunkRepository.GetChunksByLabelIDs(ctx, ids...)
	if err != nil {
		s.logger.Error("error retrieving chunks by label", "labels", len(ids), "err", err)
		return nil, err
	}

	results := make([]*core.ChunkWithLabels, 0, len(chunks))
	for _, chunk := range chunks {
		attached, err := s.labelRepository.GetLabelsForChunk(ctx, chunk.Key)
		if err != nil {
			s.logger.Error("error retrieving chunk labels", "chunk", chunk.Key.String(), "err", err)
			return nil, err
		}
		results = append(results, &core.ChunkWithLabels{Chunk: chunk, Labels: attached})
	}
	return results, nil
}

// ChunksByLabelNames is ChunksByLabels for label names. Names are
// normalized first; names matching no label are ignored.
func (s *Searcher) ChunksByLabelNames(ctx context.Context, names ...string) ([]*core.ChunkWithLabels, error) {
	ids := make([]core.ID, 0, len(names))
	for _, name := range names {
		label, err := s.labelRepository.FindLabelByNormalizedName(ctx, labels.Normalize(name))
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug("label not found", "label", name)
			continue
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, label.ID)
	}
	return s.ChunksByLabels(ctx, ids...)
}

// Ask answers a question from the chunks whose labels are relevant to it.
func (s *Searcher) Ask(ctx context.Context, question string) (*Answer, error) {
	return s.AskWithMonitor(ctx, question, nil)
}

// AskWithMonitor is Ask with callbacks at each stage.
func (s *Searcher) AskWithMonitor(ctx context.Context, question string, monitor Monitor) (*Answer, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	monitor.Start(question)

	answer := &Answer{
		Question:       question,
		SelectedLabels: []*core.Label{},
		Chunks:         []*core.ChunkWithLabels{},
	}

	all, err := s.labelRepository.GetAllLabels(ctx)
	if err != nil {
		s.logger.Error("error retrieving labels", "err", err)
		return nil, err
	}
	if len(all) == 0 {
		answer.Answer = NoDataAnswer
		monitor.Finish(answer)
		return answer, nil
	}

	selected, usedFallback := s.selectLabels(ctx, question, all)
	monitor.AfterLabelSelection(selected, usedFallback)
	if len(selected) == 0 {
		answer.Answer = NoLabelsAnswer
		monitor.Finish(answer)
		return answer, nil
	}
	answer.SelectedLabels = selected

	ids := make([]core.ID, len(selected))
	for i, l := range selected {
		ids[i] = l.ID
	}
	chunks, err := s.ChunksByLabels(ctx, ids...)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		answer.Answer = NoChunksAnswer
		monitor.Finish(answer)
		return answer, nil
	}

	answer.Chunks = s.rank(ctx, question, ids, chunks)
	monitor.AfterChunkRetrieval(answer.Chunks)

	text, err := s.completer.Complete(ctx, answerPrompt, buildAnswerPrompt(question, answer.Chunks))
	if err != nil {
		s.logger.Error("error generating answer", "err", err)
		return nil, err
	}
	answer.Answer = text

	s.logger.Debug("question answered",
		"labels", len(selected),
		"chunks", len(answer.Chunks))
	monitor.Finish(answer)
	return answer, nil
}

// selectLabels asks the model for relevant label names. When the model
// fails or names no known label, labels mentioned in the question are used.
func (s *Searcher) selectLabels(ctx context.Context, question string, all []*core.Label) ([]*core.Label, bool) {
	response, err := s.completer.Complete(ctx, labelSelectionPrompt, buildLabelSelectionPrompt(question, all))
	if err != nil {
		s.logger.Warn("label selection failed, matching labels in question", "err", err)
		return mentionedLabels(question, all), true
	}

	selected := matchLabelNames(parseLabelNames(response), all)
	if len(selected) == 0 {
		return mentionedLabels(question, all), true
	}
	return selected, false
}

// parseLabelNames extracts a JSON array of strings from a model response.
func parseLabelNames(response string) []string {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start < 0 || end < start {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(response[start:end+1]), &names); err != nil {
		return nil
	}
	return names
}

func matchLabelNames(names []string, all []*core.Label) []*core.Label {
	var selected []*core.Label
	seen := make(map[core.ID]bool)
	for _, name := range names {
		normalized := labels.Normalize(name)
		for _, l := range all {
			if seen[l.ID] {
				continue
			}
			if strings.EqualFold(l.Name, strings.TrimSpace(name)) || l.NormalizedName == normalized {
				selected = append(selected, l)
				seen[l.ID] = true
				break
			}
		}
		if len(selected) == maxSelectedLabels {
			break
		}
	}
	return selected
}

// mentionedLabels returns up to three labels whose name occurs in the question.
func mentionedLabels(question string, all []*core.Label) []*core.Label {
	q := strings.ToLower(question)
	var found []*core.Label
	for _, l := range all {
		spaced := strings.ReplaceAll(l.NormalizedName, "_", " ")
		if strings.Contains(q, strings.ToLower(l.Name)) || strings.Contains(q, l.NormalizedName) || strings.Contains(q, spaced) {
			found = append(found, l)
			if len(found) == maxFallbackLabels {
				break
			}
		}
	}
	return found
}

// rank orders chunks by the share of selected labels they carry, their
// semantic similarity to the question and a verbatim keyword boost.
func (s *Searcher) rank(ctx context.Context, question string, selected []core.ID, chunks []*core.ChunkWithLabels) []*core.ChunkWithLabels {
	wanted := make(map[core.ID]bool, len(selected))
	for _, id := range selected {
		wanted[id] = true
	}

	questionVector, err := s.embedder.EmbedText(ctx, question)
	if err != nil {
		s.logger.Warn("error embedding question, ranking by labels only", "err", err)
		questionVector = nil
	}

	scores := make(map[*core.ChunkWithLabels]float64, len(chunks))
	for _, c := range chunks {
		overlap := 0
		for _, l := range c.Labels {
			if wanted[l.ID] {
				overlap++
			}
		}
		score := float64(overlap) / float64(len(selected))
		if questionVector != nil {
			score += cosineSimilarity(questionVector, c.Chunk.Embedding)
		}
		if containsAllQueryWords(c.Chunk.Content, question) {
			score += 0.3
		}
		scores[c] = score
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return scores[chunks[i]] > scores[chunks[j]]
	})
	if len(chunks) > s.maxChunks {
		chunks = chunks[:s.maxChunks]
	}
	return chunks
}

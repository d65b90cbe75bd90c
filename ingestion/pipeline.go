package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docket/ai"
	"github.com/poiesic/docket/chunker"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/labels"
	"github.com/poiesic/docket/storage"
)

// DefaultConcurrency is the number of chunks processed at the same time.
const DefaultConcurrency = 5

// Pipeline orchestrates the ingestion of documents.
// It is safe for concurrent use; the worker pool bounds the number of
// chunks in flight across all Ingest calls.
type Pipeline struct {
	documents   storage.DocumentRepository
	chunker     *chunker.Chunker
	proc        *chunkProcessor
	labels      *labels.Store
	pool        *ants.Pool
	concurrency int
	params      chunker.Params
	category    string
	timeout     time.Duration
	hook        func(document string, outcome Outcome)
	hookMu      sync.Mutex
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConcurrency sets how many chunks are processed simultaneously.
// Default is DefaultConcurrency, with a minimum of 1.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		p.concurrency = n
		return nil
	}
}

// WithChunkParams sets the chunk budget. The separator applies to prose;
// record-oriented text always uses chunker.RecordSeparator.
// OverlapTokens must be non-negative and smaller than TargetTokens.
func WithChunkParams(params chunker.Params) Option {
	return func(p *Pipeline) error {
		if params.TargetTokens <= 0 || params.OverlapTokens < 0 || params.OverlapTokens >= params.TargetTokens {
			return fmt.Errorf("%w: target %d, overlap %d", ErrInvalidChunkParams, params.TargetTokens, params.OverlapTokens)
		}
		p.params = params
		return nil
	}
}

// WithCategory sets the category given to labels created by this pipeline.
func WithCategory(category string) Option {
	return func(p *Pipeline) error {
		p.category = category
		return nil
	}
}

// WithOutcomeHook registers a function called as each chunk finishes.
// Calls are serialized but arrive in completion order, not ordinal order.
func WithOutcomeHook(hook func(document string, outcome Outcome)) Option {
	return func(p *Pipeline) error {
		p.hook = hook
		return nil
	}
}

// WithTimeout bounds the total duration of each Ingest call. Chunks not
// finished when it expires are skipped. Default is no limit.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		p.timeout = d
		return nil
	}
}

// WithLabelStore sets the label store used for association.
// Default is a labels.Store over the store's label repository.
func WithLabelStore(store *labels.Store) Option {
	return func(p *Pipeline) error {
		p.labels = store
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	store storage.Store,
	provider ai.AIProvider,
	chunks *chunker.Chunker,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if chunks == nil {
		return nil, ErrChunkerRequired
	}

	p := &Pipeline{
		documents:   store.Documents(),
		chunker:     chunks,
		concurrency: DefaultConcurrency,
		params:      chunker.DefaultParams(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	if p.labels == nil {
		labelStore, err := labels.NewStore(store.Labels(), labels.WithLogger(p.logger))
		if err != nil {
			return nil, err
		}
		p.labels = labelStore
	}

	pool, err := ants.NewPool(p.concurrency)
	if err != nil {
		return nil, err
	}
	p.pool = pool

	p.proc = &chunkProcessor{
		extractor: provider.Extractor(),
		embedder:  provider.Embedder(),
		chunks:    store.Chunks(),
		labels:    p.labels,
		category:  p.category,
		logger:    p.logger,
	}

	return p, nil
}

// Ingest stores a document and processes its chunks.
//
// The returned error is non-nil only when the run could not start: the
// document is invalid, cannot be stored, or cannot be chunked. Chunk
// failures are recorded in the Report and logged. Cancelling ctx skips
// chunks that have not finished.
func (p *Pipeline) Ingest(ctx context.Context, name, text string) (*Report, error) {
	report := &Report{
		RunID:     uuid.New(),
		Document:  name,
		StartedAt: time.Now().UTC(),
	}
	logger := p.logger.With("document", name, "run", report.RunID.String())

	doc := &core.Document{Name: name, Content: text}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if _, err := p.documents.UpsertDocument(ctx, doc); err != nil {
		logger.Error("failed to store document", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrDocumentUpsert, err)
	}

	report.Strategy = chunker.DetectStrategy(text)
	pieces, err := p.chunker.Chunk(text, report.Strategy, p.params)
	if err != nil {
		logger.Error("failed to chunk document", "strategy", report.Strategy.String(), "err", err)
		return nil, err
	}
	logger.Info("ingesting document",
		"strategy", report.Strategy.String(),
		"chunks", len(pieces))

	report.Outcomes = make([]Outcome, len(pieces))
	var wg sync.WaitGroup
	for i, piece := range pieces {
		if err := ctx.Err(); err != nil {
			p.record(name, report, i, pendingSkip(piece.Ordinal, err))
			continue
		}

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			p.record(name, report, i, p.proc.process(ctx, name, piece))
		})
		if err != nil {
			wg.Done()
			logger.Error("failed to schedule chunk", "ordinal", piece.Ordinal, "err", err)
			p.record(name, report, i, pendingSkip(piece.Ordinal, err))
		}
	}
	wg.Wait()

	report.Duration = time.Since(report.StartedAt)
	logger.Info("document ingested",
		"chunks", report.Chunks(),
		"succeeded", report.Succeeded(),
		"skipped", len(report.Skipped()),
		"duration", report.Duration)
	return report, nil
}

// record stores an outcome at its slot and notifies the hook.
func (p *Pipeline) record(document string, report *Report, slot int, outcome Outcome) {
	report.Outcomes[slot] = outcome
	if p.hook == nil {
		return
	}
	p.hookMu.Lock()
	defer p.hookMu.Unlock()
	p.hook(document, outcome)
}

func pendingSkip(ordinal int, err error) Outcome {
	return Outcome{
		Ordinal: ordinal,
		Stage:   StagePending,
		Status:  StatusSkipped,
		Err:     &StageError{Stage: StagePending, Ordinal: ordinal, Err: err},
	}
}

// Labels returns the label store the pipeline associates through.
func (p *Pipeline) Labels() *labels.Store {
	return p.labels
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package docket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/docket/ai"
	"github.com/poiesic/docket/ai/openai"
	"github.com/poiesic/docket/chunker"
	"github.com/poiesic/docket/extract"
	"github.com/poiesic/docket/ingestion"
	"github.com/poiesic/docket/query"
	"github.com/poiesic/docket/reembed"
	"github.com/poiesic/docket/storage"
	"github.com/poiesic/docket/storage/badger"
	"github.com/poiesic/docket/storage/postgres"
)

var (
	// ErrNoBackend is returned when Open is given no storage option.
	ErrNoBackend = errors.New("no storage backend configured")

	// ErrMultipleBackends is returned when more than one storage option is given.
	ErrMultipleBackends = errors.New("more than one storage backend configured")
)

type backendKind int

const (
	backendNone backendKind = iota
	backendBadger
	backendMemory
	backendPostgres
)

// KnowledgeBase wires a store, an AI provider and a tokenizer into the
// ingestion pipeline, the file extractors and the question answerer.
type KnowledgeBase struct {
	store    storage.Store
	provider ai.AIProvider
	pipeline *ingestion.Pipeline
	registry *extract.Registry
	searcher *query.Searcher
	logger   *slog.Logger
}

// Option configures Open.
type Option func(*options) error

type options struct {
	backend      backendKind
	location     string
	aiConfig     *ai.Config
	provider     ai.AIProvider
	tokenizer    chunker.Tokenizer
	pipelineOpts []ingestion.Option
	whisperURL   string
	whisperModel string
	logger       *slog.Logger
}

func (o *options) setBackend(kind backendKind, location string) error {
	if o.backend != backendNone {
		return ErrMultipleBackends
	}
	o.backend = kind
	o.location = location
	return nil
}

// WithBadger stores data in a BadgerDB directory at path.
func WithBadger(path string) Option {
	return func(o *options) error {
		if path == "" {
			return errors.New("badger path is empty")
		}
		return o.setBackend(backendBadger, path)
	}
}

// WithInMemory stores data in an in-memory BadgerDB, lost on Close.
func WithInMemory() Option {
	return func(o *options) error {
		return o.setBackend(backendMemory, "")
	}
}

// WithPostgres stores data in PostgreSQL at the given connection URL.
func WithPostgres(url string) Option {
	return func(o *options) error {
		if url == "" {
			return postgres.ErrEmptyURL
		}
		return o.setBackend(backendPostgres, url)
	}
}

// WithAIConfig configures the OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) Option {
	return func(o *options) error {
		o.aiConfig = config
		return nil
	}
}

// WithAIProvider uses provider instead of building one from the AI config.
// The knowledge base closes it on Close.
func WithAIProvider(provider ai.AIProvider) Option {
	return func(o *options) error {
		o.provider = provider
		return nil
	}
}

// WithTokenizer replaces the default cl100k_base tokenizer.
func WithTokenizer(tokenizer chunker.Tokenizer) Option {
	return func(o *options) error {
		o.tokenizer = tokenizer
		return nil
	}
}

// WithChunkParams sets the chunk size, overlap and separator.
func WithChunkParams(params chunker.Params) Option {
	return func(o *options) error {
		o.pipelineOpts = append(o.pipelineOpts, ingestion.WithChunkParams(params))
		return nil
	}
}

// WithConcurrency sets how many chunks are processed at once.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		o.pipelineOpts = append(o.pipelineOpts, ingestion.WithConcurrency(n))
		return nil
	}
}

// WithPipelineOptions passes options straight to the ingestion pipeline.
func WithPipelineOptions(opts ...ingestion.Option) Option {
	return func(o *options) error {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
		return nil
	}
}

// WithWhisper sets the transcription server used for audio files.
func WithWhisper(url, model string) Option {
	return func(o *options) error {
		o.whisperURL = url
		o.whisperModel = model
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

func openStore(ctx context.Context, o *options) (storage.Store, error) {
	switch o.backend {
	case backendBadger:
		return badger.Open(o.location)
	case backendMemory:
		return badger.NewMemoryStore()
	case backendPostgres:
		return postgres.Open(ctx, o.location, postgres.WithLogger(o.logger))
	default:
		return nil, ErrNoBackend
	}
}

// Open builds a knowledge base from the given options. Exactly one storage
// option is required.
func Open(ctx context.Context, opts ...Option) (*KnowledgeBase, error) {
	o := &options{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.backend == backendNone {
		return nil, ErrNoBackend
	}

	tokenizer := o.tokenizer
	if tokenizer == nil {
		tk, err := chunker.NewTiktokenTokenizer(chunker.DefaultEncoding)
		if err != nil {
			return nil, err
		}
		tokenizer = tk
	}
	chunks, err := chunker.New(tokenizer)
	if err != nil {
		return nil, err
	}

	provider := o.provider
	if provider == nil {
		provider, err = openai.NewProvider(o.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	store, err := openStore(ctx, o)
	if err != nil {
		provider.Close()
		return nil, err
	}

	pipelineOpts := append([]ingestion.Option{ingestion.WithLogger(o.logger)}, o.pipelineOpts...)
	pipeline, err := ingestion.NewPipeline(store, provider, chunks, pipelineOpts...)
	if err != nil {
		store.Close()
		provider.Close()
		return nil, err
	}

	searcher, err := query.NewSearcher(store.Chunks(), store.Labels(), provider, query.WithLogger(o.logger))
	if err != nil {
		pipeline.Release()
		store.Close()
		provider.Close()
		return nil, err
	}

	registry := extract.NewRegistry(
		extract.WithLogger(o.logger),
		extract.WithExtractor(extract.FamilyImage, extract.NewImageExtractor(provider.ImageDescriber())),
		extract.WithExtractor(extract.FamilyAudio,
			extract.NewWhisperTranscriber(o.whisperURL, o.whisperModel, o.aiConfig.RequestTimeout, o.logger)),
	)

	return &KnowledgeBase{
		store:    store,
		provider: provider,
		pipeline: pipeline,
		registry: registry,
		searcher: searcher,
		logger:   o.logger.With("component", "docket"),
	}, nil
}

// Close releases the worker pool, the AI provider and the store.
func (kb *KnowledgeBase) Close() error {
	kb.pipeline.Release()

	if err := kb.provider.Close(); err != nil {
		kb.logger.Error("error closing AI provider", "err", err)
	}
	if err := kb.store.Close(); err != nil {
		kb.logger.Error("error closing store", "err", err)
		return err
	}
	return nil
}

// FileReport is the result of ingesting one file.
type FileReport struct {
	Name   string
	Family extract.Family
	Report *ingestion.Report
}

// IngestText stores text under name and processes its chunks.
func (kb *KnowledgeBase) IngestText(ctx context.Context, name, text string) (*ingestion.Report, error) {
	return kb.pipeline.Ingest(ctx, name, text)
}

// IngestFile extracts the file at path and ingests it under its base name.
func (kb *KnowledgeBase) IngestFile(ctx context.Context, path string) (*FileReport, error) {
	result, err := kb.registry.ExtractFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return kb.ingestResult(ctx, result)
}

// IngestBytes extracts in-memory file contents and ingests them under name.
func (kb *KnowledgeBase) IngestBytes(ctx context.Context, name string, data []byte) (*FileReport, error) {
	result, err := kb.registry.Extract(ctx, name, data)
	if err != nil {
		return nil, err
	}
	return kb.ingestResult(ctx, result)
}

func (kb *KnowledgeBase) ingestResult(ctx context.Context, result *extract.Result) (*FileReport, error) {
	report, err := kb.pipeline.Ingest(ctx, result.Name, result.Text)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", result.Name, err)
	}
	return &FileReport{Name: result.Name, Family: result.Family, Report: report}, nil
}

// Supports reports whether a file name has an extractor.
func (kb *KnowledgeBase) Supports(name string) bool {
	return kb.registry.Supports(name)
}

// Searcher returns the question answerer.
func (kb *KnowledgeBase) Searcher() *query.Searcher {
	return kb.searcher
}

// Store returns the underlying store.
func (kb *KnowledgeBase) Store() storage.Store {
	return kb.store
}

// Reembed recomputes every chunk embedding with the current embedder.
func (kb *KnowledgeBase) Reembed(ctx context.Context, config *reembed.Config, progress io.Writer) (*reembed.Result, error) {
	r := reembed.NewReembedder(kb.store.Chunks(), kb.provider.Embedder(), config, progress, kb.logger)
	return r.Run(ctx)
}


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


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/docket/ai"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

// Config holds configuration for a reembedding run.
type Config struct {
	// BatchSize is the number of chunks embedded per request
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// MaxRetryDelay caps a single backoff wait
	MaxRetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		MaxRetryDelay:  30 * time.Second,
	}
}

// Result summarizes a completed run.
type Result struct {
	Chunks   int
	Duration time.Duration
}

// Reembedder re-embeds every stored chunk.
type Reembedder struct {
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ChunkIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer, logger *slog.Logger) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}

	backoff := Backoff{
		MaxAttempts: config.MaxRetries,
		BaseDelay:   config.RetryDelay,
		MaxDelay:    config.MaxRetryDelay,
	}

	return &Reembedder{
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, backoff, logger),
		iterator:  NewChunkIterator(repo, config.BatchSize),
		logger:    logger.With("component", "reembed"),
	}
}

// Run re-embeds all chunks. The first batch that cannot be embedded after
// retries stops the run; chunks of earlier batches keep their new vectors.
func (r *Reembedder) Run(ctx context.Context) (*Result, error) {
	total, err := r.iterator.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found (0 chunks)\n")
		return &Result{}, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks (batch size: %d)\n",
		total, r.iterator.batchSize)
	r.logger.Info("reembedding started", "chunks", total)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(chunks []*core.Chunk) error {
		if err := r.processor.Process(ctx, chunks); err != nil {
			return err
		}
		tracker.Add(len(chunks))
		return nil
	})
	tracker.Finish()

	result := &Result{Chunks: tracker.Current(), Duration: tracker.Elapsed()}
	if err != nil {
		r.logger.Error("reembedding stopped", "done", result.Chunks, "chunks", total, "err", err)
		return result, err
	}

	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v\n",
		result.Chunks, result.Duration.Round(time.Millisecond))
	r.logger.Info("reembedding complete", "chunks", result.Chunks, "duration", result.Duration)
	return result, nil
}

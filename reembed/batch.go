package reembed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docket/ai"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

// BatchProcessor embeds one page of chunks and stores the new vectors.
type BatchProcessor struct {
	repo     storage.ChunkRepository
	embedder ai.Embedder
	backoff  Backoff
	logger   *slog.Logger
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, backoff Backoff, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		backoff:  backoff,
		logger:   logger.With("component", "reembed"),
	}
}

// embeddingText is what the ingestion pipeline embeds for a chunk: its
// serialized extraction. Chunks stored without one fall back to their content.
func embeddingText(chunk *core.Chunk) string {
	if chunk.Extraction != "" {
		return chunk.Extraction
	}
	return chunk.Content
}

// Process re-embeds chunks and writes each vector back. Chunks are updated
// in place on success.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = embeddingText(chunk)
	}

	var embeddings [][]float32
	err := bp.backoff.Do(ctx, func() error {
		var embedErr error
		embeddings, embedErr = bp.embedder.EmbedTexts(ctx, texts)
		if embedErr != nil {
			bp.logger.Warn("embedding batch failed", "chunks", len(chunks), "err", embedErr)
		}
		return embedErr
	})
	if err != nil {
		return fmt.Errorf("failed to embed batch: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: got %d, want %d", ErrEmbeddingCountMismatch, len(embeddings), len(chunks))
	}

	for i, chunk := range chunks {
		if err := bp.repo.UpdateChunkEmbedding(ctx, chunk.Key, embeddings[i]); err != nil {
			return fmt.Errorf("failed to update chunk %s: %w", chunk.Key, err)
		}
		chunk.Embedding = embeddings[i]
	}
	return nil
}

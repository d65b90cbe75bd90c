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


package ingestion

import (
	"context"
	"log/slog"

	"github.com/poiesic/docket/ai"
	"github.com/poiesic/docket/chunker"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/labels"
	"github.com/poiesic/docket/storage"
)

// chunkProcessor runs the per-chunk stages:
// extracting, embedding, persisting and labeling.
type chunkProcessor struct {
	extractor ai.Extractor
	embedder  ai.Embedder
	chunks    storage.ChunkRepository
	labels    *labels.Store
	category  string
	logger    *slog.Logger
}

// process never returns an error; failures are reported in the Outcome.
func (cp *chunkProcessor) process(ctx context.Context, document string, chunk chunker.Chunk) Outcome {
	key := core.ChunkKey{DocumentName: document, Ordinal: chunk.Ordinal}
	logger := cp.logger.With("chunk", key.String())

	skip := func(stage Stage, err error) Outcome {
		logger.Warn("skipping chunk", "stage", stage.String(), "err", err)
		return Outcome{
			Ordinal: chunk.Ordinal,
			Stage:   stage,
			Status:  StatusSkipped,
			Err:     &StageError{Stage: stage, Ordinal: chunk.Ordinal, Err: err},
		}
	}

	if err := ctx.Err(); err != nil {
		return skip(StageExtracting, err)
	}
	extraction, err := cp.extractor.Extract(ctx, chunk.Text)
	if err != nil {
		return skip(StageExtracting, err)
	}
	serialized, err := extraction.Marshal()
	if err != nil {
		return skip(StageExtracting, err)
	}

	if err := ctx.Err(); err != nil {
		return skip(StageEmbedding, err)
	}
	embedding, err := cp.embedder.EmbedText(ctx, serialized)
	if err != nil {
		return skip(StageEmbedding, err)
	}

	if err := ctx.Err(); err != nil {
		return skip(StagePersisting, err)
	}
	_, err = cp.chunks.UpsertChunk(ctx, &core.Chunk{
		Key:        key,
		Content:    chunk.Text,
		TokenCount: chunk.TokenCount,
		Extraction: serialized,
		Embedding:  embedding,
	})
	if err != nil {
		return skip(StagePersisting, err)
	}

	outcome := Outcome{Ordinal: chunk.Ordinal, Stage: StageDone, Status: StatusDone}
	if len(extraction.TopicLabels) == 0 {
		logger.Debug("chunk processed", "labels", 0)
		return outcome
	}

	if err := ctx.Err(); err != nil {
		return skip(StageLabeling, err)
	}
	attached, err := cp.labels.Associate(ctx, key, extraction.TopicLabels, cp.category)
	outcome.Labels = len(attached)
	if err != nil {
		outcome.LabelWarnings = countErrors(err)
		logger.Warn("some labels were not associated",
			"attached", len(attached),
			"failed", outcome.LabelWarnings,
			"err", err)
	}
	logger.Debug("chunk processed", "labels", len(attached))
	return outcome
}

// countErrors counts the errors joined into err.
func countErrors(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}

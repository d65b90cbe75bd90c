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

	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

const (
	// DefaultBatchSize is the default number of chunks fetched per page.
	DefaultBatchSize = 100
)

// ChunkIterator pages through every stored chunk in key order.
type ChunkIterator struct {
	repo      storage.ChunkRepository
	batchSize int
}

// NewChunkIterator creates a new chunk iterator.
// A batchSize <= 0 selects DefaultBatchSize.
func NewChunkIterator(repo storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ChunkIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with successive pages of chunks until the repository is
// exhausted or fn returns an error. Context cancellation is checked between pages.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.Chunk) error) error {
	var after *core.ChunkKey
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := it.repo.ListChunks(ctx, after, it.batchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		if err := fn(page); err != nil {
			return err
		}

		if len(page) < it.batchSize {
			return nil
		}
		last := page[len(page)-1].Key
		after = &last
	}
}

// Count returns the number of stored chunks.
func (it *ChunkIterator) Count(ctx context.Context) (int, error) {
	total := 0
	err := it.ForEach(ctx, func(page []*core.Chunk) error {
		total += len(page)
		return nil
	})
	return total, err
}

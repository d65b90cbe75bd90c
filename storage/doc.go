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


// Package storage provides the storage abstraction layer for docket.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic. Two backends implement them: an embedded BadgerDB store
// (storage/badger) and a PostgreSQL store with pgvector columns
// (storage/postgres).
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - DocumentRepository: upsert and fetch whole documents by name
//   - ChunkRepository: chunks keyed by (document name, ordinal) with embeddings
//   - LabelRepository: labels, chunk-label associations and usage counts
//
// # Usage
//
// Open an on-disk store:
//
//	store, err := badger.Open("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines. Label creation relies on the
// backend to reject a second label with the same normalized name
// (ErrDuplicateKey); callers re-read on conflict.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage

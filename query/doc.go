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


// Package query answers questions over the labeled knowledge base.
//
// The Searcher type implements a label-driven retrieval flow:
//   - A completion model picks the topic labels relevant to a question
//   - Chunks carrying those labels are fetched from the store
//   - Chunks are ranked by label overlap, semantic similarity and
//     verbatim keyword matches
//   - The model answers from the question-answer pairs of the best chunks
package query

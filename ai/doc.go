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


// Package ai provides abstractions for AI services used in docket.
//
// This package defines interfaces for AI operations including structured
// extraction, text embeddings, free-text completion and image description.
// It follows the dependency inversion principle, allowing the ingestion
// pipeline and query layer to depend on abstractions rather than concrete
// implementations.
//
// # Design Principles
//
// The package is designed around these interfaces:
//
//   - Extractor: Turns a chunk into question/answer pairs and topic labels
//   - Embedder: Generates vector embeddings from text
//   - Completer: Answers a system/user prompt pair with free text
//   - ImageDescriber: Describes an image as text
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockExtractor)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields and methods (CallCount, XFunc, Reset).
//
// # Timeouts
//
// Every outbound call carries its own deadline (Config.RequestTimeout). A
// call that times out fails like any other error.
package ai

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


package core

import (
	"fmt"
	"strings"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Name must not be blank
//   - Content must not be blank
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if strings.TrimSpace(doc.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyName)
	}

	if strings.TrimSpace(doc.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - DocumentName must not be blank
//   - Ordinal must not be negative
//
// NOT validated (populated by the pipeline):
//   - Extraction
//   - Embedding
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Key.DocumentName) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyName)
	}

	if chunk.Key.Ordinal < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeOrdinal)
	}

	return nil
}

// ValidateLabel validates a Label according to domain rules.
func ValidateLabel(label *Label) error {
	if label == nil {
		return fmt.Errorf("%w: label is nil", ErrInvalidLabel)
	}

	if label.Name == "" || label.NormalizedName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLabel, ErrEmptyName)
	}

	return nil
}

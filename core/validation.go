// Copyright 2026 Veritom Systems
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

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - SourceType must be one of the defined values
//   - Metadata fields must carry a valid value kind
//
// NOT validated (populated by the ingestion path):
//   - ID ("" is valid; the dedup gate assigns one)
//   - ContentHash (computed by the hasher)
//   - Embedding (checked separately; the vector store enforces dimension)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if err := ValidateSourceType(doc.SourceType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if err := ValidateMetadata(doc.Metadata); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateSourceType validates that a SourceType is one of the defined values.
func ValidateSourceType(s SourceType) error {
	switch s {
	case SourceTypeIssue, SourceTypeJiraTicket, SourceTypeConfluencePage, SourceTypeStackOverflowItem:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidSourceType, s)
	}
}

// ValidateMetadata validates that every field has a non-empty key and a
// recognized value kind.
func ValidateMetadata(m Metadata) error {
	for _, f := range m {
		if f.Key == "" {
			return fmt.Errorf("%w: empty key", ErrInvalidMetadata)
		}
		switch f.Value.Kind {
		case KindString, KindNumber, KindStringList:
		default:
			return fmt.Errorf("%w: key %q has unknown value kind %d", ErrInvalidMetadata, f.Key, f.Value.Kind)
		}
	}
	return nil
}

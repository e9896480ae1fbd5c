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

import "fmt"

// ValidateMessage validates a Message according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Role must be valid (Human or AI)
//
// NOT validated:
//   - Id (populated by NewMessage or by the caller)
//   - CreatedAt (zero is tolerated for replayed messages)
func ValidateMessage(m *Message) error {
	if m == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}
	if m.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyContent)
	}
	if err := ValidateRole(m.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return nil
}

// ValidateRole validates that a Role has a valid value.
func ValidateRole(r Role) error {
	switch r {
	case RoleHuman, RoleAI:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidRole, r)
	}
}

// ValidateThreadKey validates that both components of a key are present.
func ValidateThreadKey(k ThreadKey) error {
	if k.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidThreadKey, ErrEmptyUserID)
	}
	if k.ThreadID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidThreadKey, ErrEmptyThreadID)
	}
	return nil
}

// ValidateIndexedDocument validates a chunk before indexing.
//
// Validation rules:
//   - Content must not be empty
//   - UserID and ThreadID must be present (the index is always filtered)
//
// NOT validated (populated by the ingestion pipeline):
//   - Vector (can be empty until embedded)
//   - Id (derived from content when zero)
func ValidateIndexedDocument(doc *IndexedDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}
	if doc.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyUserID)
	}
	if doc.ThreadID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyThreadID)
	}
	return nil
}

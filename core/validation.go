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
	"time"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Timestamps must not be in the future
//
// NOT validated (populated by processors):
//   - Vector (can be empty until the embedding processor runs)
//   - AnchorSlug / MatchedAnchors (empty until the tagging pass runs)
//   - Id (0 is valid from database sequences)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if !IsValidTimestamp(chunk.InsertedAt) || !IsValidTimestamp(chunk.UpdatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateAnchor validates an Anchor according to domain rules.
//
// Validation rules:
//   - Slug must not be empty
//   - MutationStatus must be a known value
//   - A pending mutation must carry a non-empty SuggestedLabel
//   - Origin, when set, must be a known value
func ValidateAnchor(anchor *Anchor) error {
	if anchor == nil {
		return fmt.Errorf("%w: anchor is nil", ErrInvalidAnchor)
	}

	if anchor.Slug == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAnchor, ErrEmptySlug)
	}

	switch anchor.MutationStatus {
	case MutationNone, MutationPending, MutationApplied:
	default:
		return fmt.Errorf("%w: %w: %d", ErrInvalidAnchor, ErrInvalidMutationStatus, anchor.MutationStatus)
	}

	if anchor.MutationStatus == MutationPending && anchor.SuggestedLabel == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAnchor, ErrPendingWithoutSuggestion)
	}

	if anchor.Origin != 0 {
		switch anchor.Origin {
		case OriginSeed, OriginRagBoost, OriginMemoryToken, OriginManual:
		default:
			return fmt.Errorf("%w: %w: %d", ErrInvalidAnchor, ErrInvalidOrigin, anchor.Origin)
		}
	}

	return nil
}

// ValidateLogEntry validates a GroundingLogEntry according to domain rules.
//
// Validation rules:
//   - Query must not be empty
//   - Timestamp must not be in the future
func ValidateLogEntry(entry *GroundingLogEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidLogEntry)
	}

	if entry.Query == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLogEntry, ErrEmptyQuery)
	}

	if !IsValidTimestamp(entry.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidLogEntry, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp reports whether a timestamp is zero or not in the future.
// A small tolerance covers clock skew between writers.
func IsValidTimestamp(t time.Time) bool {
	if t.IsZero() {
		return true
	}
	return !t.After(time.Now().UTC().Add(5 * time.Minute))
}

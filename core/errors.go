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

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidAnchor indicates an Anchor failed validation.
	ErrInvalidAnchor = errors.New("invalid anchor")

	// ErrInvalidLogEntry indicates a GroundingLogEntry failed validation.
	ErrInvalidLogEntry = errors.New("invalid grounding log entry")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptySlug indicates the anchor Slug field is empty.
	ErrEmptySlug = errors.New("anchor slug cannot be empty")

	// ErrEmptyQuery indicates the log entry Query field is empty.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrPendingWithoutSuggestion indicates a pending mutation with no suggested label.
	ErrPendingWithoutSuggestion = errors.New("pending mutation requires a suggested label")

	// ErrInvalidMutationStatus indicates an out-of-range MutationStatus value.
	ErrInvalidMutationStatus = errors.New("invalid mutation status")

	// ErrInvalidOrigin indicates an out-of-range AnchorOrigin value.
	ErrInvalidOrigin = errors.New("invalid anchor origin")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")
)

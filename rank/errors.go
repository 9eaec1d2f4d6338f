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


package rank

import "errors"

var (
	// ErrEmbeddingUnavailable is returned when the embedding provider fails
	// or times out. Retrieval for that query fails closed.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrDimensionMismatch is returned by Cosine when vector lengths differ
	// or either vector is empty or all-zero. SafeCosine recovers it locally.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrAnchorRepositoryRequired is returned when an anchor repository is not provided.
	ErrAnchorRepositoryRequired = errors.New("anchor repository required")

	// ErrLogRepositoryRequired is returned when a grounding log repository is not provided.
	ErrLogRepositoryRequired = errors.New("grounding log repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)

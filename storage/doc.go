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


// Package storage provides the storage abstraction layer for the grounding
// engine.
//
// This package defines repository interfaces that decouple storage
// implementation from the retrieval, drift, and diagnostics logic:
//
//   - ChunkRepository: the chunk store (scoped candidate reads; only the
//     score and anchor-association fields are ever mutated)
//   - AnchorRepository: the anchor registry, keyed by slug with atomic
//     upsert and per-anchor mutation-state arbitration
//   - GroundingLogRepository: the append-only grounding log sink
//   - DriftRepository: the (anchor, day) drift observation cache
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return these interfaces to
// enforce abstraction and enable alternative backends:
//
//	repo, err := badger.NewChunkRepository(backend)  // returns storage.ChunkRepository
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines. The only write contention
// point in the engine is the anchor mutation state; see
// AnchorRepository.RequestMutation for the arbitration contract.
package storage

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


// Package ai provides abstractions for the AI services the grounding
// engine depends on.
//
// The engine calls exactly two external AI collaborators:
//
//   - Embedder: turns text into fixed-length vectors for similarity ranking
//   - SuggestionGenerator: proposes replacement labels for drifting anchors
//
// AIProvider aggregates both for convenient initialization. CachedEmbedder
// adds an explicit, injectable TTL cache in front of any Embedder.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles
//
// Public constructors in ai/openai return interface types to enforce
// abstraction; the mock constructors return concrete types so tests can
// inject behavior and assert call counts.
package ai

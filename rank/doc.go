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


// Package rank implements confidence-thresholded retrieval ranking with
// anchor-term boosting.
//
// The Ranker type implements a multi-stage ranking algorithm:
//   - Vector similarity scoring of candidate chunks against the query
//   - Additive boosting for focus anchors referenced by the query text
//   - Force-inclusion of literal-recall content (opening lines)
//   - Threshold selection with best-available fallback
//
// Every ranking call emits one append-only grounding log entry recording
// the top scores, the fallback decision, and which query-referenced
// anchors the returned chunks hit or missed. Scoring itself is pure and
// safe to run in parallel across independent queries.
package rank

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


// Package match implements the anchor matcher: a multi-strategy fuzzy
// term matcher that decides whether text references a controlled-vocabulary
// anchor.
//
// Strategies escalate and short-circuit on the first hit:
//
//  1. Exact: case-insensitive substring containment of the anchor's label
//     or its slug-with-spaces form.
//  2. Stem: Porter-stemmed token comparison, with a naive singular
//     (trailing "s" stripped) fallback per word.
//  3. Fuzzy: LCS-based character similarity ratio against the full text.
//
// Matching is pure and deterministic, which the diagnostics harness relies
// on for reproducible replays.
package match

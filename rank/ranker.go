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

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/grounder/ai"
	"github.com/poiesic/grounder/core"
	"github.com/poiesic/grounder/match"
	"github.com/poiesic/grounder/storage"
)

const (
	// DefaultScoreThreshold is the minimum boosted score for a chunk to be
	// selected outside fallback mode.
	DefaultScoreThreshold = 0.75

	// DefaultAnchorBoost is the global additive boost for focus anchors
	// matched in the query.
	DefaultAnchorBoost = 0.1

	// DefaultMaxResults caps the number of chunks returned per call.
	DefaultMaxResults = 8
)

// Fallback reasons recorded on GroundingLogEntry.
const (
	FallbackLowScore = "low score"
	FallbackNoChunks = "no_chunks"
)

// literalRecallPatterns are query phrases that force-include chunks
// flagged HasOpeningLine, bypassing threshold and anchor logic.
var literalRecallPatterns = []string{
	"opening line",
	"first message",
	"first line",
	"how did it start",
	"how did it begin",
}

// Config holds the ranking knobs. The zero value is not usable; use
// DefaultConfig or the Ranker's defaults.
type Config struct {
	ScoreThreshold float64
	AnchorBoost    float64
	MaxResults     int
}

// DefaultConfig returns the default ranking configuration.
func DefaultConfig() Config {
	return Config{
		ScoreThreshold: DefaultScoreThreshold,
		AnchorBoost:    DefaultAnchorBoost,
		MaxResults:     DefaultMaxResults,
	}
}

// Result is one returned chunk with its scoring annotations.
type Result struct {
	Chunk          *core.Chunk
	RawScore       float64
	BoostedScore   float64
	BoostApplied   float64
	AnchorSlug     string
	MatchMethod    core.MatchMethod
	Fingerprint    uint64
	ForcedIncluded bool
}

// Response is the outcome of one ranking call.
type Response struct {
	Results           []*Result
	FallbackTriggered bool
	FallbackReason    string
	LogEntry          *core.GroundingLogEntry
}

// Ranker scores candidate chunks against a query, applies anchor
// boosting, and selects results under a confidence threshold with
// fallback. Scoring is pure; the only side effect is one grounding log
// entry appended per call.
type Ranker struct {
	chunkRepository  storage.ChunkRepository
	anchorRepository storage.AnchorRepository
	logRepository    storage.GroundingLogRepository
	embedder         ai.Embedder
	matcher          *match.Matcher
	config           Config
	logger           *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithConfig overrides the ranking configuration. Zero-valued fields
// keep their defaults.
func WithConfig(config Config) Option {
	return func(r *Ranker) error {
		if config.ScoreThreshold > 0 {
			r.config.ScoreThreshold = config.ScoreThreshold
		}
		if config.AnchorBoost > 0 {
			r.config.AnchorBoost = config.AnchorBoost
		}
		if config.MaxResults > 0 {
			r.config.MaxResults = config.MaxResults
		}
		return nil
	}
}

// WithMatcher sets a custom anchor matcher.
func WithMatcher(matcher *match.Matcher) Option {
	return func(r *Ranker) error {
		if matcher != nil {
			r.matcher = matcher
		}
		return nil
	}
}

// NewRanker creates a new ranker.
func NewRanker(
	chunkRepository storage.ChunkRepository,
	anchorRepository storage.AnchorRepository,
	logRepository storage.GroundingLogRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Ranker, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if anchorRepository == nil {
		return nil, ErrAnchorRepositoryRequired
	}
	if logRepository == nil {
		return nil, ErrLogRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Ranker{
		chunkRepository:  chunkRepository,
		anchorRepository: anchorRepository,
		logRepository:    logRepository,
		embedder:         embedder,
		matcher:          match.NewMatcher(),
		config:           DefaultConfig(),
		logger:           slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Rank retrieves and ranks chunks for a query within a scope.
func (r *Ranker) Rank(ctx context.Context, query string, scope storage.Scope) (*Response, error) {
	return r.rank(ctx, query, scope, "", nil)
}

// RankWithMonitor ranks chunks for a query with monitoring.
// The monitor receives callbacks at each stage of the ranking process.
func (r *Ranker) RankWithMonitor(ctx context.Context, query string, scope storage.Scope, monitor Monitor) (*Response, error) {
	return r.rank(ctx, query, scope, "", monitor)
}

// RankExpecting ranks like Rank but stamps the grounding log entry with
// the anchor the caller expects to see among the results. Used by the
// diagnostics replay harness.
func (r *Ranker) RankExpecting(ctx context.Context, query string, scope storage.Scope, expectedAnchor string) (*Response, error) {
	return r.rank(ctx, query, scope, expectedAnchor, nil)
}

func (r *Ranker) rank(ctx context.Context, query string, scope storage.Scope, expectedAnchor string, monitor Monitor) (*Response, error) {
	if query == "" {
		return nil, core.ErrEmptyQuery
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// 1. Embed the query
	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	monitor.AfterEmbedding(len(embedding))

	// 2. Gather candidates
	candidates, err := r.chunkRepository.Candidates(ctx, scope)
	if err != nil {
		r.logger.Error("error loading candidate chunks", "err", err)
		return nil, err
	}
	monitor.AfterCandidates(len(candidates))

	if len(candidates) == 0 {
		// An empty scope is not an error and not a fallback
		response := &Response{
			Results:           []*Result{},
			FallbackTriggered: false,
			FallbackReason:    FallbackNoChunks,
		}
		response.LogEntry = r.appendLog(ctx, query, expectedAnchor, response, nil)
		monitor.Finish(response.Results)
		return response, nil
	}

	// 3. Match registry anchors against the query text
	anchors, err := r.anchorRepository.ListAnchors(ctx, false)
	if err != nil {
		r.logger.Error("error listing anchors", "err", err)
		return nil, err
	}

	anchorsBySlug := make(map[string]*core.Anchor, len(anchors))
	queryMatched := make(map[string]core.MatchMethod)
	for _, anchor := range anchors {
		anchorsBySlug[anchor.Slug] = anchor
		if method, ok := r.matcher.Match(anchor, query); ok {
			queryMatched[anchor.Slug] = method
		}
	}
	monitor.AfterQueryAnchorMatch(queryMatched)

	// 4. Score and annotate every candidate
	literalRecall := isLiteralRecallQuery(query)
	scored := make([]*Result, 0, len(candidates))
	for _, chunk := range candidates {
		raw := SafeCosine(embedding, chunk.Vector, r.logger)
		boosted := raw

		result := &Result{
			Chunk:       chunk,
			RawScore:    raw,
			Fingerprint: chunk.Fingerprint,
		}

		if anchor, ok := anchorsBySlug[chunk.AnchorSlug]; ok && anchor.IsFocusTerm {
			if method, hit := queryMatched[anchor.Slug]; hit {
				boost := anchor.EffectiveBoost(r.config.AnchorBoost)
				boosted = raw + boost
				result.BoostApplied = boost
				result.AnchorSlug = anchor.Slug
				result.MatchMethod = method
			}
		}
		result.BoostedScore = boosted

		if literalRecall && chunk.HasOpeningLine {
			result.ForcedIncluded = true
			monitor.ForcedInclude(chunk.Id)
		}

		monitor.Scored(chunk.Id, raw, boosted)
		scored = append(scored, result)
	}

	// 5. Sort by boosted score descending, stable on ties by candidate order
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].BoostedScore > scored[j].BoostedScore
	})

	// 6. Selection
	response := &Response{}
	selected := make([]*Result, 0, r.config.MaxResults)
	passing := 0
	for _, result := range scored {
		if result.ForcedIncluded {
			selected = append(selected, result)
			continue
		}
		if result.BoostedScore >= r.config.ScoreThreshold && passing < r.config.MaxResults {
			selected = append(selected, result)
			passing++
		}
	}

	if passing == 0 {
		// Fallback: best-available beats an empty answer
		monitor.Fallback(FallbackLowScore)
		response.FallbackTriggered = true
		response.FallbackReason = FallbackLowScore

		selected = selected[:0]
		for _, result := range scored {
			if result.ForcedIncluded {
				selected = append(selected, result)
				continue
			}
			if passing < r.config.MaxResults {
				selected = append(selected, result)
				passing++
			}
		}
	}
	response.Results = selected

	response.LogEntry = r.appendLog(ctx, query, expectedAnchor, response, queryMatched)
	monitor.Finish(response.Results)

	return response, nil
}

// appendLog emits the per-call grounding log entry. Append failures are
// logged and swallowed; a lost log row must not fail the retrieval.
func (r *Ranker) appendLog(ctx context.Context, query, expectedAnchor string, response *Response, queryMatched map[string]core.MatchMethod) *core.GroundingLogEntry {
	entry := &core.GroundingLogEntry{
		Query:             query,
		ExpectedAnchor:    expectedAnchor,
		FallbackTriggered: response.FallbackTriggered,
		FallbackReason:    response.FallbackReason,
		Timestamp:         time.Now().UTC(),
	}

	returnedSlugs := make(map[string]bool)
	for _, result := range response.Results {
		entry.UsedChunkIds = append(entry.UsedChunkIds, result.Chunk.Id)
		if result.Chunk.AnchorSlug != "" {
			returnedSlugs[result.Chunk.AnchorSlug] = true
		}
		for _, slug := range result.Chunk.MatchedAnchors {
			returnedSlugs[slug] = true
		}
		if result.RawScore > entry.RetrievalScore {
			entry.RetrievalScore = result.RawScore
		}
		if result.BoostedScore > entry.AdjustedScore {
			entry.AdjustedScore = result.BoostedScore
		}
	}

	// An anchor referenced by the query counts as missed when no returned
	// chunk carries it
	for slug := range queryMatched {
		if returnedSlugs[slug] {
			entry.GlossaryHits = append(entry.GlossaryHits, slug)
		} else {
			entry.GlossaryMisses = append(entry.GlossaryMisses, slug)
		}
	}
	sort.Strings(entry.GlossaryHits)
	sort.Strings(entry.GlossaryMisses)

	stored, err := r.logRepository.Append(ctx, entry)
	if err != nil {
		r.logger.Error("error appending grounding log entry", "query", query, "err", err)
		return entry
	}
	return stored
}

// isLiteralRecallQuery reports whether the query asks for literal
// opening content.
func isLiteralRecallQuery(query string) bool {
	lowered := strings.ToLower(query)
	for _, pattern := range literalRecallPatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

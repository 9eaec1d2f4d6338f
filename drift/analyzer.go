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


package drift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/grounder/ai"
	"github.com/poiesic/grounder/core"
	"github.com/poiesic/grounder/storage"
)

const maxRecentQueries = 5

// Config holds configuration for the drift analysis batch.
type Config struct {
	// WindowDays is the trailing log window analyzed per anchor
	WindowDays int

	// SlopeThreshold is the per-day score slope below which an anchor
	// counts as drifting
	SlopeThreshold float64

	// ScoreFloor is the latest daily average below which a drifting
	// anchor triggers a relabel suggestion
	ScoreFloor float64

	// MinSamples is the minimum number of log entries in the window
	// before a mutation may be triggered
	MinSamples int

	// PoolSize is the worker pool size for per-anchor fan-out
	PoolSize int

	// MaxRetries is the maximum number of attempts for the suggestion call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// SuggestionTimeout bounds each suggestion call
	SuggestionTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	return &Config{
		WindowDays:        30,
		SlopeThreshold:    -0.05,
		ScoreFloor:        0.4,
		MinSamples:        2,
		PoolSize:          poolSize,
		MaxRetries:        3,
		RetryDelay:        1 * time.Second,
		SuggestionTimeout: 30 * time.Second,
	}
}

// AnchorResult is the per-anchor outcome of one analysis run.
type AnchorResult struct {
	Slug              string
	SampleSize        int
	Days              int
	Slope             float64
	LatestAvgScore    float64
	LatestFallback    float64
	MutationRequested bool
	SuggestedLabel    string
	Err               error
}

// Report aggregates one analysis run. Per-anchor failures are collected
// here rather than aborting the batch.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Analyzed   int
	Triggered  int
	Results    []*AnchorResult
}

// Failed returns the results that carry a per-anchor error.
func (r *Report) Failed() []*AnchorResult {
	var failed []*AnchorResult
	for _, result := range r.Results {
		if result.Err != nil {
			failed = append(failed, result)
		}
	}
	return failed
}

// Analyzer detects sustained downward trends in per-anchor retrieval
// confidence and proposes relabelings for drifting anchors.
//
// A run is idempotent: re-running on the same log window produces the
// same observations, and an anchor already carrying a pending mutation
// is never re-triggered.
type Analyzer struct {
	anchorRepository storage.AnchorRepository
	logRepository    storage.GroundingLogRepository
	driftRepository  storage.DriftRepository
	suggester        ai.SuggestionGenerator
	config           *Config
	pool             *ants.Pool
	logger           *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnalyzer creates a new drift analyzer.
func NewAnalyzer(
	anchorRepository storage.AnchorRepository,
	logRepository storage.GroundingLogRepository,
	driftRepository storage.DriftRepository,
	suggester ai.SuggestionGenerator,
	config *Config,
	opts ...Option,
) (*Analyzer, error) {
	if anchorRepository == nil {
		return nil, ErrAnchorRepositoryRequired
	}
	if logRepository == nil {
		return nil, ErrLogRepositoryRequired
	}
	if driftRepository == nil {
		return nil, ErrDriftRepositoryRequired
	}
	if suggester == nil {
		return nil, ErrSuggesterRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	pool, err := ants.NewPool(config.PoolSize)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		anchorRepository: anchorRepository,
		logRepository:    logRepository,
		driftRepository:  driftRepository,
		suggester:        suggester,
		config:           config,
		pool:             pool,
		logger:           slog.Default().With("component", "drift"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(a); err != nil {
			a.Release()
			return nil, err
		}
	}

	return a, nil
}

// Release releases the worker pool.
// The analyzer should not be used after calling Release.
func (a *Analyzer) Release() {
	if a.pool != nil {
		a.pool.Release()
	}
}

// Run analyzes every non-suppressed anchor over the trailing window.
// Anchors fan out across the worker pool; a cancelled context stops
// launching new per-anchor work but lets started work finish.
func (a *Analyzer) Run(ctx context.Context) (*Report, error) {
	anchors, err := a.anchorRepository.ListAnchors(ctx, false)
	if err != nil {
		return nil, err
	}

	until := time.Now().UTC()
	since := until.AddDate(0, 0, -a.config.WindowDays)

	report := &Report{StartedAt: until}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, anchor := range anchors {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		anchor := anchor
		err := a.pool.Submit(func() {
			defer wg.Done()
			result := a.analyzeAnchor(ctx, anchor, since, until)
			if result == nil {
				return
			}
			mu.Lock()
			report.Results = append(report.Results, result)
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			report.Results = append(report.Results, &AnchorResult{Slug: anchor.Slug, Err: err})
			mu.Unlock()
		}
	}

	wg.Wait()

	slices.SortFunc(report.Results, func(x, y *AnchorResult) int {
		return strings.Compare(x.Slug, y.Slug)
	})
	report.Analyzed = len(report.Results)
	for _, result := range report.Results {
		if result.MutationRequested {
			report.Triggered++
		}
	}
	report.FinishedAt = time.Now().UTC()

	a.logger.Info("drift analysis complete",
		"anchors", report.Analyzed,
		"triggered", report.Triggered,
		"failed", len(report.Failed()))

	return report, nil
}

// analyzeAnchor computes the daily trend for one anchor and, when the
// trend breaches the thresholds, requests a relabel suggestion.
// Returns nil when the anchor has no log entries in the window.
func (a *Analyzer) analyzeAnchor(ctx context.Context, anchor *core.Anchor, since, until time.Time) *AnchorResult {
	result := &AnchorResult{Slug: anchor.Slug}

	entries, err := a.logRepository.Query(ctx, anchor.Slug, since, until)
	if err != nil {
		result.Err = err
		return result
	}
	if len(entries) == 0 {
		return nil
	}
	result.SampleSize = len(entries)

	days, buckets := bucketByDay(entries)
	result.Days = len(days)

	lastDay := days[len(days)-1]
	last := buckets[lastDay]
	result.LatestAvgScore = last.avgScore()
	result.LatestFallback = last.fallbackRate()

	if len(days) >= 2 {
		first := buckets[days[0]]
		result.Slope = (last.avgScore() - first.avgScore()) / float64(len(days)-1)
	}

	// The most recent day's observation is persisted whether or not a
	// mutation triggers, and the anchor's rolling confidence is refreshed
	obs := &core.DriftObservation{
		AnchorSlug:   anchor.Slug,
		Day:          lastDay,
		AvgScore:     result.LatestAvgScore,
		FallbackRate: result.LatestFallback,
		SampleSize:   last.count,
	}
	if err := a.driftRepository.PutObservation(ctx, obs); err != nil {
		result.Err = err
		return result
	}
	if err := a.anchorRepository.UpdateFallbackScore(ctx, anchor.Slug, result.LatestAvgScore); err != nil {
		result.Err = err
		return result
	}

	if !a.shouldTrigger(anchor, result) {
		return result
	}

	a.logger.Info("anchor drift detected",
		"slug", anchor.Slug,
		"slope", result.Slope,
		"latestAvgScore", result.LatestAvgScore,
		"samples", result.SampleSize)

	suggestion, err := a.suggestLabel(ctx, anchor, entries, result.LatestAvgScore)
	if err != nil {
		// No partial pending state: the mutation status stays none
		result.Err = err
		return result
	}

	if err := a.requestMutation(ctx, anchor.Slug, suggestion.Label); err != nil {
		if errors.Is(err, storage.ErrMutationPending) {
			// Another run won the race; same end state, not an error
			return result
		}
		result.Err = err
		return result
	}

	result.MutationRequested = true
	result.SuggestedLabel = suggestion.Label
	a.logger.Info("anchor mutation requested",
		"slug", anchor.Slug,
		"suggestedLabel", suggestion.Label,
		"rationale", suggestion.Rationale)

	return result
}

// shouldTrigger applies the drift thresholds. An anchor already in a
// pending or applied state is never re-triggered.
func (a *Analyzer) shouldTrigger(anchor *core.Anchor, result *AnchorResult) bool {
	if anchor.MutationStatus != core.MutationNone {
		return false
	}
	if result.SampleSize < a.config.MinSamples {
		return false
	}
	return result.Slope < a.config.SlopeThreshold && result.LatestAvgScore < a.config.ScoreFloor
}

// suggestLabel calls the suggestion collaborator with timeout and retry.
func (a *Analyzer) suggestLabel(ctx context.Context, anchor *core.Anchor, entries []*core.GroundingLogEntry, avgScore float64) (*ai.Suggestion, error) {
	request := ai.SuggestionRequest{
		Slug:          anchor.Slug,
		Label:         anchor.Label,
		Description:   anchor.Description,
		RecentQueries: recentQueries(entries),
		AvgScore:      avgScore,
	}

	var suggestion *ai.Suggestion
	err := RetryWithBackoff(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, a.config.SuggestionTimeout)
		defer cancel()

		var err error
		suggestion, err = a.suggester.SuggestLabel(callCtx, request)
		return err
	}, a.config.MaxRetries, a.config.RetryDelay)

	if err != nil {
		switch {
		case errors.Is(err, ai.ErrNoSuggestion):
			return nil, fmt.Errorf("%w: %s", ErrNoSuggestion, anchor.Slug)
		case errors.Is(err, ai.ErrMalformedSuggestion):
			return nil, fmt.Errorf("%w: %v", ErrMalformedSuggestion, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrSuggestionFailed, err)
		}
	}
	return suggestion, nil
}

// requestMutation flips the anchor to pending, retrying a lost
// concurrent race exactly once.
func (a *Analyzer) requestMutation(ctx context.Context, slug, suggestedLabel string) error {
	_, err := a.anchorRepository.RequestMutation(ctx, slug, suggestedLabel, core.OriginRagBoost)
	if errors.Is(err, storage.ErrConcurrentMutation) {
		a.logger.Warn("concurrent mutation conflict, retrying once", "slug", slug)
		_, err = a.anchorRepository.RequestMutation(ctx, slug, suggestedLabel, core.OriginRagBoost)
	}
	return err
}

// dayBucket accumulates one day's log entries.
type dayBucket struct {
	scoreSum  float64
	fallbacks int
	count     int
}

func (b *dayBucket) avgScore() float64 {
	if b.count == 0 {
		return 0
	}
	return b.scoreSum / float64(b.count)
}

func (b *dayBucket) fallbackRate() float64 {
	if b.count == 0 {
		return 0
	}
	return float64(b.fallbacks) / float64(b.count)
}

// bucketByDay groups entries by UTC calendar day.
// Returns the days in ascending order plus the per-day buckets.
func bucketByDay(entries []*core.GroundingLogEntry) ([]time.Time, map[time.Time]*dayBucket) {
	buckets := make(map[time.Time]*dayBucket)
	var days []time.Time

	for _, entry := range entries {
		day := core.DayOf(entry.Timestamp)
		bucket, ok := buckets[day]
		if !ok {
			bucket = &dayBucket{}
			buckets[day] = bucket
			days = append(days, day)
		}
		bucket.scoreSum += entry.AdjustedScore
		if entry.FallbackTriggered {
			bucket.fallbacks++
		}
		bucket.count++
	}

	slices.SortFunc(days, func(x, y time.Time) int {
		return x.Compare(y)
	})
	return days, buckets
}

// recentQueries returns the most recent distinct query texts, newest last.
func recentQueries(entries []*core.GroundingLogEntry) []string {
	seen := make(map[string]bool)
	var queries []string
	for i := len(entries) - 1; i >= 0 && len(queries) < maxRecentQueries; i-- {
		query := entries[i].Query
		if query == "" || seen[query] {
			continue
		}
		seen[query] = true
		queries = append(queries, query)
	}
	slices.Reverse(queries)
	return queries
}

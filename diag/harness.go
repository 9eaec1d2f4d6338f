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


package diag

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/grounder/core"
	"github.com/poiesic/grounder/rank"
	"github.com/poiesic/grounder/storage"
)

// AnchorOutcome is the replay result for one anchor.
type AnchorOutcome struct {
	Slug              string
	Query             string
	Hit               bool
	TopScore          float64
	FallbackTriggered bool
	Err               error
}

// Report aggregates one diagnostics run. For a fixed chunk corpus and
// anchor set, two successive runs produce the same pass rate.
type Report struct {
	RunAt    time.Time
	Total    int
	Misses   int
	Outcomes []*AnchorOutcome
}

// PassRate returns (total - misses) / total. An empty registry passes.
func (r *Report) PassRate() float64 {
	if r.Total == 0 {
		return 1.0
	}
	return float64(r.Total-r.Misses) / float64(r.Total)
}

// Comparison describes how a run moved against a previous one on the
// same corpus.
type Comparison struct {
	Delta       float64
	Regressed   bool
	NewlyMissed []string
}

// Compare diffs this report against a previous run. A pass-rate drop or
// any anchor that went from hit to miss flags a ranking regression.
func (r *Report) Compare(prev *Report) *Comparison {
	comparison := &Comparison{Delta: r.PassRate() - prev.PassRate()}

	prevHits := make(map[string]bool, len(prev.Outcomes))
	for _, outcome := range prev.Outcomes {
		if outcome.Hit {
			prevHits[outcome.Slug] = true
		}
	}
	for _, outcome := range r.Outcomes {
		if !outcome.Hit && prevHits[outcome.Slug] {
			comparison.NewlyMissed = append(comparison.NewlyMissed, outcome.Slug)
		}
	}
	slices.Sort(comparison.NewlyMissed)

	comparison.Regressed = comparison.Delta < 0 || len(comparison.NewlyMissed) > 0
	return comparison
}

// Harness replays the ranker against the anchor registry: each anchor's
// own label becomes a query, and the run records whether any returned
// chunk carries that anchor. Used as a regression gate between ranking
// changes.
type Harness struct {
	anchorRepository storage.AnchorRepository
	ranker           *rank.Ranker
	scope            storage.Scope
	pool             *ants.Pool
	logger           *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) error {
		if logger == nil {
			logger = slog.Default()
		}
		h.logger = logger
		return nil
	}
}

// WithScope restricts the replayed queries to a chunk scope.
func WithScope(scope storage.Scope) Option {
	return func(h *Harness) error {
		h.scope = scope
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent replay.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(h *Harness) error {
		if size < 1 {
			size = 1
		}
		if h.pool != nil {
			h.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		h.pool = pool
		return nil
	}
}

// NewHarness creates a new diagnostics harness.
func NewHarness(anchorRepository storage.AnchorRepository, ranker *rank.Ranker, opts ...Option) (*Harness, error) {
	if anchorRepository == nil {
		return nil, ErrAnchorRepositoryRequired
	}
	if ranker == nil {
		return nil, ErrRankerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		anchorRepository: anchorRepository,
		ranker:           ranker,
		pool:             pool,
		logger:           slog.Default().With("component", "diag"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(h); err != nil {
			h.Release()
			return nil, err
		}
	}

	return h, nil
}

// Release releases the worker pool.
// The harness should not be used after calling Release.
func (h *Harness) Release() {
	if h.pool != nil {
		h.pool.Release()
	}
}

// Run replays every non-suppressed anchor, optionally limited to the
// first limit anchors in slug order (limit <= 0 means all). Per-anchor
// failures are reported as misses with Err set, never as a batch abort.
func (h *Harness) Run(ctx context.Context, limit int) (*Report, error) {
	anchors, err := h.anchorRepository.ListAnchors(ctx, false)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(anchors) > limit {
		anchors = anchors[:limit]
	}

	report := &Report{RunAt: time.Now().UTC()}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, anchor := range anchors {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		anchor := anchor
		err := h.pool.Submit(func() {
			defer wg.Done()
			outcome := h.replayAnchor(ctx, anchor)
			mu.Lock()
			report.Outcomes = append(report.Outcomes, outcome)
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			report.Outcomes = append(report.Outcomes, &AnchorOutcome{Slug: anchor.Slug, Err: err})
			mu.Unlock()
		}
	}

	wg.Wait()

	slices.SortFunc(report.Outcomes, func(x, y *AnchorOutcome) int {
		return strings.Compare(x.Slug, y.Slug)
	})
	report.Total = len(report.Outcomes)
	for _, outcome := range report.Outcomes {
		if !outcome.Hit {
			report.Misses++
		}
	}

	h.logger.Info("diagnostics run complete",
		"anchors", report.Total,
		"misses", report.Misses,
		"passRate", report.PassRate())

	return report, nil
}

// replayAnchor runs one anchor's label through the ranker and checks
// whether any returned chunk carries the anchor.
func (h *Harness) replayAnchor(ctx context.Context, anchor *core.Anchor) *AnchorOutcome {
	outcome := &AnchorOutcome{
		Slug:  anchor.Slug,
		Query: anchor.Term(),
	}

	response, err := h.ranker.RankExpecting(ctx, outcome.Query, h.scope, anchor.Slug)
	if err != nil {
		h.logger.Warn("anchor replay failed", "slug", anchor.Slug, "err", err)
		outcome.Err = err
		return outcome
	}

	outcome.FallbackTriggered = response.FallbackTriggered
	for _, result := range response.Results {
		if result.BoostedScore > outcome.TopScore {
			outcome.TopScore = result.BoostedScore
		}
		if result.Chunk.AnchorSlug == anchor.Slug {
			outcome.Hit = true
			continue
		}
		if slices.Contains(result.Chunk.MatchedAnchors, anchor.Slug) {
			outcome.Hit = true
		}
	}
	return outcome
}

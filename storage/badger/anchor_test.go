package badger

import (
	"context"
	"testing"

	"github.com/poiesic/grounder/core"
	"github.com/poiesic/grounder/storage"
)

func TestAnchorBasics(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	anchor := &core.Anchor{
		Slug:        "zk-rollup",
		Label:       "ZK rollup",
		Description: "A validity-proof based scaling construction",
		IsFocusTerm: true,
		Origin:      core.OriginSeed,
	}

	stored, err := repos.Anchors.PutAnchor(ctx, anchor)
	if err != nil {
		t.Fatalf("Failed to put anchor: %v", err)
	}
	if stored.InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	retrieved, err := repos.Anchors.GetAnchor(ctx, "zk-rollup")
	if err != nil {
		t.Fatalf("Failed to get anchor: %v", err)
	}
	if retrieved.Label != "ZK rollup" {
		t.Fatalf("Expected 'ZK rollup', got %q", retrieved.Label)
	}
	if !retrieved.IsFocusTerm {
		t.Fatal("Expected focus term flag to persist")
	}

	if _, err := repos.Anchors.GetAnchor(ctx, "missing"); err != storage.ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestPutAnchorUpsertKeepsInsertedAt(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	first, err := repos.Anchors.PutAnchor(ctx, &core.Anchor{Slug: "sequencer", Origin: core.OriginSeed})
	if err != nil {
		t.Fatalf("Failed to put anchor: %v", err)
	}
	inserted := first.InsertedAt

	second, err := repos.Anchors.PutAnchor(ctx, &core.Anchor{
		Slug:   "sequencer",
		Label:  "transaction sequencer",
		Origin: core.OriginSeed,
	})
	if err != nil {
		t.Fatalf("Failed to upsert anchor: %v", err)
	}

	if !second.InsertedAt.Equal(inserted) {
		t.Fatal("Expected upsert to preserve InsertedAt")
	}
	if second.Label != "transaction sequencer" {
		t.Fatalf("Expected label updated, got %q", second.Label)
	}
}

func TestListAnchorsSuppression(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	for _, slug := range []string{"beta", "alpha", "gamma"} {
		if _, err := repos.Anchors.PutAnchor(ctx, &core.Anchor{Slug: slug, Origin: core.OriginSeed}); err != nil {
			t.Fatalf("Failed to put anchor %s: %v", slug, err)
		}
	}

	if err := repos.Anchors.Suppress(ctx, "gamma"); err != nil {
		t.Fatalf("Failed to suppress anchor: %v", err)
	}

	visible, err := repos.Anchors.ListAnchors(ctx, false)
	if err != nil {
		t.Fatalf("Failed to list anchors: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("Expected 2 visible anchors, got %d", len(visible))
	}
	if visible[0].Slug != "alpha" || visible[1].Slug != "beta" {
		t.Fatalf("Expected slug order, got %s, %s", visible[0].Slug, visible[1].Slug)
	}

	all, err := repos.Anchors.ListAnchors(ctx, true)
	if err != nil {
		t.Fatalf("Failed to list anchors: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 anchors with suppressed included, got %d", len(all))
	}
}

func TestRequestMutationLifecycle(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	if _, err := repos.Anchors.PutAnchor(ctx, &core.Anchor{
		Slug:   "rollup",
		Label:  "rollup",
		Origin: core.OriginSeed,
	}); err != nil {
		t.Fatalf("Failed to put anchor: %v", err)
	}

	// First request flips none -> pending
	pending, err := repos.Anchors.RequestMutation(ctx, "rollup", "optimistic rollup", core.OriginRagBoost)
	if err != nil {
		t.Fatalf("Failed to request mutation: %v", err)
	}
	if pending.MutationStatus != core.MutationPending {
		t.Fatalf("Expected pending status, got %v", pending.MutationStatus)
	}
	if pending.SuggestedLabel != "optimistic rollup" {
		t.Fatalf("Expected suggested label recorded, got %q", pending.SuggestedLabel)
	}

	// A second request on the same anchor is rejected
	if _, err := repos.Anchors.RequestMutation(ctx, "rollup", "another label", core.OriginRagBoost); err != storage.ErrMutationPending {
		t.Fatalf("Expected ErrMutationPending, got %v", err)
	}

	// Applying adopts the suggestion
	applied, err := repos.Anchors.ApplyMutation(ctx, "rollup")
	if err != nil {
		t.Fatalf("Failed to apply mutation: %v", err)
	}
	if applied.Label != "optimistic rollup" {
		t.Fatalf("Expected label adopted, got %q", applied.Label)
	}
	if applied.MutationStatus != core.MutationApplied {
		t.Fatalf("Expected applied status, got %v", applied.MutationStatus)
	}

	// Applying twice fails
	if _, err := repos.Anchors.ApplyMutation(ctx, "rollup"); err != storage.ErrNoPendingMutation {
		t.Fatalf("Expected ErrNoPendingMutation, got %v", err)
	}
}

func TestRequestMutationValidation(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	if _, err := repos.Anchors.RequestMutation(ctx, "rollup", "", core.OriginRagBoost); err != core.ErrPendingWithoutSuggestion {
		t.Fatalf("Expected ErrPendingWithoutSuggestion for empty label, got %v", err)
	}

	if _, err := repos.Anchors.RequestMutation(ctx, "missing", "label", core.OriginRagBoost); err != storage.ErrNotFound {
		t.Fatalf("Expected ErrNotFound for missing anchor, got %v", err)
	}
}

func TestAnchorFieldMutators(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	if _, err := repos.Anchors.PutAnchor(ctx, &core.Anchor{Slug: "sharding", Origin: core.OriginSeed}); err != nil {
		t.Fatalf("Failed to put anchor: %v", err)
	}

	if err := repos.Anchors.UpdateFallbackScore(ctx, "sharding", 0.62); err != nil {
		t.Fatalf("Failed to update fallback score: %v", err)
	}

	override := 0.25
	if err := repos.Anchors.SetWeightOverride(ctx, "sharding", &override); err != nil {
		t.Fatalf("Failed to set weight override: %v", err)
	}

	anchor, err := repos.Anchors.GetAnchor(ctx, "sharding")
	if err != nil {
		t.Fatalf("Failed to get anchor: %v", err)
	}
	if anchor.FallbackScore != 0.62 {
		t.Fatalf("Expected fallback score 0.62, got %f", anchor.FallbackScore)
	}
	if anchor.WeightOverride == nil || *anchor.WeightOverride != 0.25 {
		t.Fatalf("Expected weight override 0.25, got %v", anchor.WeightOverride)
	}
	if anchor.EffectiveBoost(0.1) != 0.25 {
		t.Fatalf("Expected override to win, got %f", anchor.EffectiveBoost(0.1))
	}

	// Clearing the override restores the global boost
	if err := repos.Anchors.SetWeightOverride(ctx, "sharding", nil); err != nil {
		t.Fatalf("Failed to clear weight override: %v", err)
	}
	anchor, err = repos.Anchors.GetAnchor(ctx, "sharding")
	if err != nil {
		t.Fatalf("Failed to get anchor: %v", err)
	}
	if anchor.EffectiveBoost(0.1) != 0.1 {
		t.Fatalf("Expected global boost after clear, got %f", anchor.EffectiveBoost(0.1))
	}
}

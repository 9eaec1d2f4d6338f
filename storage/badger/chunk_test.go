package badger

import (
	"context"
	"testing"

	"github.com/poiesic/grounder/core"
	"github.com/poiesic/grounder/storage"
)

func TestChunkBasics(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	chunk := &core.Chunk{
		DocumentId: 42,
		Text:       "A zk-rollup batches transactions off-chain.",
		Vector:     []float32{0.1, 0.2, 0.3},
	}

	added, err := repos.Chunks.AddChunks(ctx, chunk)
	if err != nil {
		t.Fatalf("Failed to add chunk: %v", err)
	}

	if len(added) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(added))
	}
	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added[0].Fingerprint == 0 {
		t.Fatal("Expected fingerprint to be computed on insert")
	}
	if added[0].InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	retrieved, err := repos.Chunks.GetChunk(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}
	if retrieved.Text != chunk.Text {
		t.Fatalf("Expected %q, got %q", chunk.Text, retrieved.Text)
	}
	if retrieved.DocumentId != 42 {
		t.Fatalf("Expected document 42, got %d", retrieved.DocumentId)
	}
}

func TestChunkFingerprintNormalization(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	a := &core.Chunk{DocumentId: 1, Text: "Proof of   Stake consensus"}
	b := &core.Chunk{DocumentId: 2, Text: "proof of stake\nconsensus"}

	added, err := repos.Chunks.AddChunks(ctx, a, b)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	if added[0].Fingerprint != added[1].Fingerprint {
		t.Fatalf("Expected reflowed copies to share a fingerprint, got %d and %d",
			added[0].Fingerprint, added[1].Fingerprint)
	}
}

func TestUpdateChunks(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	chunk := &core.Chunk{DocumentId: 1, Text: "validator slashing conditions"}
	added, err := repos.Chunks.AddChunks(ctx, chunk)
	if err != nil {
		t.Fatalf("Failed to add chunk: %v", err)
	}

	// Tag the chunk with anchors and update
	added[0].IsGlossary = true
	added[0].AnchorSlug = "slashing"
	added[0].MatchedAnchors = []string{"slashing", "validator"}

	if _, err := repos.Chunks.UpdateChunks(ctx, added[0]); err != nil {
		t.Fatalf("Failed to update chunk: %v", err)
	}

	retrieved, err := repos.Chunks.GetChunk(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}
	if !retrieved.IsGlossary {
		t.Fatal("Expected IsGlossary to persist")
	}
	if len(retrieved.MatchedAnchors) != 2 {
		t.Fatalf("Expected 2 matched anchors, got %d", len(retrieved.MatchedAnchors))
	}

	// Updating a non-existent chunk fails
	missing := &core.Chunk{Id: 999999, DocumentId: 1, Text: "nope"}
	if _, err := repos.Chunks.UpdateChunks(ctx, missing); err != storage.ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestMutateChunks(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	added, err := repos.Chunks.AddChunks(ctx, &core.Chunk{DocumentId: 1, Text: "rollup data availability"})
	if err != nil {
		t.Fatalf("Failed to add chunk: %v", err)
	}
	id := added[0].Id

	// Two writers update disjoint fields through fresh reads
	_, err = repos.Chunks.MutateChunks(ctx, func(chunk *core.Chunk) bool {
		chunk.MatchedAnchors = []string{"rollup"}
		chunk.IsGlossary = true
		chunk.AnchorSlug = "rollup"
		return true
	}, id)
	if err != nil {
		t.Fatalf("Failed to mutate chunk: %v", err)
	}

	_, err = repos.Chunks.MutateChunks(ctx, func(chunk *core.Chunk) bool {
		chunk.Vector = []float32{0.6, 0.8}
		return true
	}, id)
	if err != nil {
		t.Fatalf("Failed to mutate chunk: %v", err)
	}

	retrieved, err := repos.Chunks.GetChunk(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}
	if len(retrieved.Vector) != 2 {
		t.Fatal("Expected vector from the second writer to persist")
	}
	if !retrieved.IsGlossary || retrieved.AnchorSlug != "rollup" {
		t.Fatal("Expected anchor fields from the first writer to survive the second write")
	}
	if len(retrieved.MatchedAnchors) != 1 || retrieved.MatchedAnchors[0] != "rollup" {
		t.Fatalf("Expected matched anchors preserved, got %v", retrieved.MatchedAnchors)
	}

	// The anchor index follows the mutation
	ids, err := repos.Chunks.ChunksByAnchor(ctx, "rollup")
	if err != nil {
		t.Fatalf("Failed to query anchor index: %v", err)
	}
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("Expected [%d], got %v", id, ids)
	}

	// A no-change mutation writes nothing
	updated, err := repos.Chunks.MutateChunks(ctx, func(chunk *core.Chunk) bool { return false }, id)
	if err != nil {
		t.Fatalf("Failed to mutate chunk: %v", err)
	}
	if len(updated) != 0 {
		t.Fatalf("Expected no chunks written, got %d", len(updated))
	}

	// A missing chunk fails the whole call
	if _, err := repos.Chunks.MutateChunks(ctx, func(chunk *core.Chunk) bool { return true }, 999999); err != storage.ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestChunksByAnchorIndex(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	chunk := &core.Chunk{DocumentId: 1, Text: "rollup data availability"}
	added, err := repos.Chunks.AddChunks(ctx, chunk)
	if err != nil {
		t.Fatalf("Failed to add chunk: %v", err)
	}

	added[0].MatchedAnchors = []string{"rollup", "data-availability"}
	if _, err := repos.Chunks.UpdateChunks(ctx, added[0]); err != nil {
		t.Fatalf("Failed to update chunk: %v", err)
	}

	ids, err := repos.Chunks.ChunksByAnchor(ctx, "rollup")
	if err != nil {
		t.Fatalf("Failed to query anchor index: %v", err)
	}
	if len(ids) != 1 || ids[0] != added[0].Id {
		t.Fatalf("Expected [%d], got %v", added[0].Id, ids)
	}

	// Retagging without the slug removes the index entry
	added[0].MatchedAnchors = []string{"data-availability"}
	if _, err := repos.Chunks.UpdateChunks(ctx, added[0]); err != nil {
		t.Fatalf("Failed to update chunk: %v", err)
	}

	ids, err = repos.Chunks.ChunksByAnchor(ctx, "rollup")
	if err != nil {
		t.Fatalf("Failed to query anchor index: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("Expected stale index entry removed, got %v", ids)
	}
}

func TestCandidatesScopeAndOrder(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	chunks := []*core.Chunk{
		{DocumentId: 1, ProjectId: 7, Text: "first chunk"},
		{DocumentId: 1, ProjectId: 7, Text: "second chunk"},
		{DocumentId: 2, ProjectId: 8, Text: "other project chunk"},
	}
	if _, err := repos.Chunks.AddChunks(ctx, chunks...); err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	candidates, err := repos.Chunks.Candidates(ctx, storage.Scope{ProjectId: 7})
	if err != nil {
		t.Fatalf("Failed to list candidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates in project 7, got %d", len(candidates))
	}
	if candidates[0].Text != "first chunk" || candidates[1].Text != "second chunk" {
		t.Fatal("Expected candidates in insertion order")
	}

	all, err := repos.Chunks.Candidates(ctx, storage.Scope{})
	if err != nil {
		t.Fatalf("Failed to list candidates: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 candidates unscoped, got %d", len(all))
	}
}

func TestDeleteChunksByDocument(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	doomed := &core.Chunk{DocumentId: 5, Text: "chunk to delete", MatchedAnchors: []string{"rollup"}}
	kept := &core.Chunk{DocumentId: 6, Text: "chunk to keep"}
	added, err := repos.Chunks.AddChunks(ctx, doomed, kept)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	if err := repos.Chunks.DeleteChunksByDocument(ctx, 5); err != nil {
		t.Fatalf("Failed to delete chunks: %v", err)
	}

	if _, err := repos.Chunks.GetChunk(ctx, added[0].Id); err != storage.ErrNotFound {
		t.Fatalf("Expected ErrNotFound for deleted chunk, got %v", err)
	}

	ids, err := repos.Chunks.ChunksByAnchor(ctx, "rollup")
	if err != nil {
		t.Fatalf("Failed to query anchor index: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("Expected anchor index cleared on delete, got %v", ids)
	}

	if _, err := repos.Chunks.GetChunk(ctx, added[1].Id); err != nil {
		t.Fatalf("Expected other document untouched, got %v", err)
	}
}

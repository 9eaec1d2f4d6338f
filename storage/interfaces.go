package storage

import (
	"context"
	"time"

	"github.com/poiesic/grounder/core"
)

// Scope narrows the candidate chunk set for a retrieval call.
// Zero-valued fields are ignored.
type Scope struct {
	AssistantId string
	ProjectId   core.ID
	DocumentId  core.ID
}

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ChunkRepository provides operations for managing retrievable chunks.
// The engine never mutates chunk storage except through UpdateChunks and
// MutateChunks, and then only the vector and anchor association fields.
type ChunkRepository interface {
	Repository

	// AddChunks adds one or more chunks to storage.
	// For chunks with Id=0, generates new IDs from sequence.
	// Computes the text fingerprint and sets InsertedAt if not already set.
	// Returns the chunks with generated IDs and timestamps populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks updates existing chunks.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// MutateChunks re-reads each chunk inside a single read-write
	// transaction and applies mutate to the fresh copy, persisting the
	// chunks mutate reports as changed. Writers that hold a chunk struct
	// across a slow external call must use this instead of UpdateChunks:
	// writing the stale struct back would overwrite fields another writer
	// committed in the meantime.
	// Returns ErrNotFound if any chunk doesn't exist.
	MutateChunks(ctx context.Context, mutate func(*core.Chunk) bool, ids ...core.ID) ([]*core.Chunk, error)

	// DeleteChunksByDocument removes all chunks of a document.
	// Chunks are only ever deleted together with their parent document.
	DeleteChunksByDocument(ctx context.Context, documentId core.ID) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// Candidates retrieves the chunks within scope, in insertion order.
	Candidates(ctx context.Context, scope Scope) ([]*core.Chunk, error)

	// ChunksByAnchor retrieves IDs of chunks whose MatchedAnchors contain slug.
	ChunksByAnchor(ctx context.Context, slug string) ([]core.ID, error)
}

// AnchorRepository is the anchor registry: a catalog of controlled-vocabulary
// terms keyed by slug with atomic upsert semantics. Anchors are never
// hard-deleted, only suppressed.
type AnchorRepository interface {
	Repository

	// PutAnchor validates and upserts an anchor by slug.
	// Sets InsertedAt on first write and UpdatedAt on every write.
	PutAnchor(ctx context.Context, anchor *core.Anchor) (*core.Anchor, error)

	// GetAnchor retrieves an anchor by slug.
	// Returns ErrNotFound if the anchor doesn't exist; no implicit creation.
	GetAnchor(ctx context.Context, slug string) (*core.Anchor, error)

	// ListAnchors retrieves all anchors ordered by slug.
	// When includeSuppressed is false, auto-suppressed anchors are omitted.
	ListAnchors(ctx context.Context, includeSuppressed bool) ([]*core.Anchor, error)

	// RequestMutation atomically flips an anchor's mutation status from none
	// to pending, recording the suggested label and origin.
	// Returns ErrMutationPending if a mutation is already pending or applied,
	// and ErrConcurrentMutation if another writer raced on the same anchor;
	// the caller may retry the latter once, explicitly.
	RequestMutation(ctx context.Context, slug, suggestedLabel string, origin core.AnchorOrigin) (*core.Anchor, error)

	// ApplyMutation adopts a pending suggestion: the anchor is relabeled to
	// its suggested label and the status moves to applied.
	// Returns ErrNotFound if the anchor doesn't exist and ErrNoPendingMutation
	// if its status is not pending.
	ApplyMutation(ctx context.Context, slug string) (*core.Anchor, error)

	// UpdateFallbackScore sets the anchor's rolling retrieval confidence.
	UpdateFallbackScore(ctx context.Context, slug string, score float64) error

	// SetWeightOverride sets or clears (nil) the anchor's boost override.
	SetWeightOverride(ctx context.Context, slug string, override *float64) error

	// SetFocus toggles whether the anchor participates in ranking boosts.
	SetFocus(ctx context.Context, slug string, focus bool) error

	// Suppress marks an anchor auto-suppressed. Suppressed anchors are
	// excluded from ranking, drift analysis, and diagnostics.
	Suppress(ctx context.Context, slug string) error
}

// GroundingLogRepository is the append-only log sink for retrieval outcomes.
// No update or delete operation is part of the engine's contract.
type GroundingLogRepository interface {
	Repository

	// Append records one retrieval outcome. The entry's Id is assigned
	// from sequence and its Timestamp defaults to now when zero.
	Append(ctx context.Context, entry *core.GroundingLogEntry) (*core.GroundingLogEntry, error)

	// Query retrieves entries in [since, until) that reference the anchor
	// slug via expected anchor, glossary hits, or glossary misses,
	// ordered by timestamp.
	Query(ctx context.Context, slug string, since, until time.Time) ([]*core.GroundingLogEntry, error)

	// QueryAll retrieves all entries in [since, until), ordered by timestamp.
	QueryAll(ctx context.Context, since, until time.Time) ([]*core.GroundingLogEntry, error)
}

// DriftRepository stores per-(anchor, day) drift observations.
// Observations are derived data: recomputable from the grounding log.
type DriftRepository interface {
	Repository

	// PutObservation upserts the observation for its (anchor, day) key.
	PutObservation(ctx context.Context, obs *core.DriftObservation) error

	// GetObservations retrieves an anchor's observations in [since, until),
	// ordered by day.
	GetObservations(ctx context.Context, slug string, since, until time.Time) ([]*core.DriftObservation, error)
}

package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// FingerprintText computes the dedup fingerprint of a chunk's text.
// The text is lowercased and whitespace-collapsed first so that
// reflowed copies of the same passage fingerprint identically.
func FingerprintText(text string) uint64 {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	return uint64(IDFromContent(normalized))
}

// MatchMethod identifies which matcher strategy associated an anchor with text.
type MatchMethod int

const (
	// MatchNone means no strategy matched.
	MatchNone MatchMethod = iota
	// MatchExact is a case-insensitive substring hit.
	MatchExact
	// MatchStem is a hit between stemmed tokens.
	MatchStem
	// MatchFuzzy is a character-level similarity hit.
	MatchFuzzy
)

// String returns the lowercase name of the match method.
func (m MatchMethod) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchStem:
		return "stem"
	case MatchFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// MutationStatus tracks the relabeling lifecycle of an anchor.
type MutationStatus int

const (
	// MutationNone means no relabeling has been proposed.
	MutationNone MutationStatus = iota
	// MutationPending means a replacement label has been suggested but not reviewed.
	MutationPending
	// MutationApplied means the suggested label has been adopted.
	MutationApplied
)

// String returns the lowercase name of the mutation status.
func (s MutationStatus) String() string {
	switch s {
	case MutationPending:
		return "pending"
	case MutationApplied:
		return "applied"
	default:
		return "none"
	}
}

// AnchorOrigin records how an anchor entered the registry.
type AnchorOrigin int

const (
	// OriginSeed is an anchor loaded from a seed file.
	OriginSeed AnchorOrigin = iota + 1
	// OriginRagBoost is an anchor created by the retrieval boosting path.
	OriginRagBoost
	// OriginMemoryToken is an anchor promoted from high-frequency memory tokens.
	OriginMemoryToken
	// OriginManual is an anchor created by an operator.
	OriginManual
)

// String returns the lowercase name of the anchor origin.
func (o AnchorOrigin) String() string {
	switch o {
	case OriginSeed:
		return "seed"
	case OriginRagBoost:
		return "rag_boost"
	case OriginMemoryToken:
		return "memory_token"
	case OriginManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Chunk is an immutable unit of retrievable text.
// Score, IsGlossary, AnchorSlug and MatchedAnchors are mutated by the
// tagging pass and the ranker; Score is stale until the next retrieval refreshes it.
type Chunk struct {
	Id             ID
	DocumentId     ID
	ProjectId      ID     // Optional scope, 0 when unscoped
	AssistantId    string // Optional scope, empty when unscoped
	Text           string
	Vector         []float32 // Embedding vector (populated by the ingestion pipeline)
	Score          float32   // Last-computed relevance score, not an invariant
	IsGlossary     bool      // True once any anchor has matched this chunk
	AnchorSlug     string    // Primary anchor association, empty when none
	MatchedAnchors []string  // All anchor slugs that matched this chunk
	Fingerprint    uint64    // Stable dedup hash of normalized text
	HasOpeningLine bool      // Flags literal-recall content eligible for force-inclusion
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// Anchor is a controlled-vocabulary term the engine grounds answers against.
type Anchor struct {
	Slug           string
	Label          string
	Description    string
	IsFocusTerm    bool // Only focus anchors receive ranking boosts
	FallbackScore  float64
	MutationStatus MutationStatus
	SuggestedLabel string   // Required when MutationStatus is pending
	WeightOverride *float64 // Replaces the global boost constant when set
	Origin         AnchorOrigin
	AutoSuppressed bool // Suppressed anchors are skipped, never hard-deleted
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// Term returns the text the matcher compares against: the label when
// present, otherwise the slug with separators replaced by spaces.
func (a *Anchor) Term() string {
	if a.Label != "" {
		return a.Label
	}
	return SlugWithSpaces(a.Slug)
}

// EffectiveBoost returns the boost this anchor contributes, preferring
// the per-caller weight override over the global constant.
func (a *Anchor) EffectiveBoost(global float64) float64 {
	if a.WeightOverride != nil {
		return *a.WeightOverride
	}
	return global
}

// SlugWithSpaces converts a slug like "zk-rollup" to "zk rollup".
func SlugWithSpaces(slug string) string {
	slug = strings.ReplaceAll(slug, "-", " ")
	return strings.ReplaceAll(slug, "_", " ")
}

// GroundingLogEntry is one append-only record per retrieval call.
type GroundingLogEntry struct {
	Id                ID
	Query             string
	UsedChunkIds      []ID // Ordered as returned
	RetrievalScore    float64
	AdjustedScore     float64
	FallbackTriggered bool
	FallbackReason    string
	GlossaryHits      []string
	GlossaryMisses    []string
	ExpectedAnchor    string // Set only by the diagnostics harness
	Timestamp         time.Time
}

// References reports whether the entry involves the given anchor slug,
// either as the expected anchor or among glossary hits/misses.
func (e *GroundingLogEntry) References(slug string) bool {
	if e.ExpectedAnchor == slug {
		return true
	}
	for _, hit := range e.GlossaryHits {
		if hit == slug {
			return true
		}
	}
	for _, miss := range e.GlossaryMisses {
		if miss == slug {
			return true
		}
	}
	return false
}

// DriftObservation is one derived row per (anchor, day).
// It is recomputable from the grounding log and treated as a cache.
type DriftObservation struct {
	AnchorSlug   string
	Day          time.Time // Truncated to a UTC calendar day
	AvgScore     float64
	FallbackRate float64
	SampleSize   int
}

// DayOf truncates a timestamp to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

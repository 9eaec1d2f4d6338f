package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// SuggestionGenerator proposes replacement labels for drifting anchors.
// Implementations must be thread-safe for concurrent use.
type SuggestionGenerator interface {
	// SuggestLabel proposes a replacement term for an underperforming anchor.
	// Returns ErrNoSuggestion when the generator has nothing to offer and
	// ErrMalformedSuggestion when the response could not be parsed, so that
	// callers can tell the two apart.
	SuggestLabel(ctx context.Context, req SuggestionRequest) (*Suggestion, error)
}

// SuggestionRequest carries the context the generator needs to propose
// a replacement label for an anchor.
type SuggestionRequest struct {
	// Slug is the anchor's unique key.
	Slug string

	// Label is the anchor's current label.
	Label string

	// Description is the anchor's description, may be empty.
	Description string

	// RecentQueries are queries that recently retrieved against this anchor.
	RecentQueries []string

	// AvgScore is the anchor's most recent daily average retrieval score.
	AvgScore float64
}

// Suggestion is a proposed anchor relabeling.
type Suggestion struct {
	// Label is the proposed replacement term, lowercase, 1-3 words.
	Label string

	// Rationale is a short explanation of why the replacement should retrieve better.
	Rationale string
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and SuggestionGenerator instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// SuggestionGenerator returns the anchor relabeling service.
	// The returned SuggestionGenerator is safe for concurrent use.
	SuggestionGenerator() SuggestionGenerator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

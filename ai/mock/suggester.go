package mock

import (
	"context"
	"strings"

	"github.com/poiesic/grounder/ai"
)

// MockSuggester is a test double for ai.SuggestionGenerator.
// It allows custom behavior injection via function fields.
type MockSuggester struct {
	// SuggestLabelFunc is called by SuggestLabel if set.
	// If nil, uses default deterministic behavior.
	SuggestLabelFunc func(ctx context.Context, req ai.SuggestionRequest) (*ai.Suggestion, error)

	callCount int
}

// NewMockSuggester creates a mock suggestion generator with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockSuggester().
func NewMockSuggester() *MockSuggester {
	return &MockSuggester{}
}

// SuggestLabel proposes a deterministic replacement label.
// Default behavior: prefixes the current label (or slug) with "revised".
func (m *MockSuggester) SuggestLabel(ctx context.Context, req ai.SuggestionRequest) (*ai.Suggestion, error) {
	m.callCount++

	if m.SuggestLabelFunc != nil {
		return m.SuggestLabelFunc(ctx, req)
	}

	term := req.Label
	if term == "" {
		term = strings.ReplaceAll(req.Slug, "-", " ")
	}

	return &ai.Suggestion{
		Label:     "revised " + strings.ToLower(term),
		Rationale: "mock suggestion",
	}, nil
}

// CallCount returns the number of times SuggestLabel was called.
func (m *MockSuggester) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockSuggester) Reset() {
	m.callCount = 0
	m.SuggestLabelFunc = nil
}

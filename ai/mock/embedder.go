package mock

import (
	"context"
	"hash/fnv"
	"math"
)

const mockVectorDimensions = 384

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Fixtures maps exact input text to a fixed vector, checked before the
	// default hash-derived behavior. Useful for scripted ranking scenarios.
	Fixtures map[string][]float32

	callCount int
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockEmbedder().
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// WithFixture registers a fixed vector for an exact input text.
func (m *MockEmbedder) WithFixture(text string, vector []float32) *MockEmbedder {
	if m.Fixtures == nil {
		m.Fixtures = make(map[string][]float32)
	}
	m.Fixtures[text] = vector
	return m
}

// EmbedText returns the fixture for text when registered, otherwise a
// hash-derived unit vector. Same text, same vector, every time.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount++

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return m.vectorFor(text), nil
}

// EmbedTexts embeds a batch with the same per-text behavior as EmbedText.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount++

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vectorFor(text)
	}
	return vectors, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom behavior.
func (m *MockEmbedder) Reset() {
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
	m.Fixtures = nil
}

func (m *MockEmbedder) vectorFor(text string) []float32 {
	if vector, ok := m.Fixtures[text]; ok {
		return vector
	}
	return deterministicVector(text, mockVectorDimensions)
}

// deterministicVector derives a unit vector from an FNV hash of the text,
// expanded through a linear congruential generator.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	state := h.Sum32()

	vector := make([]float32, dim)
	var sumSquares float64
	for i := range vector {
		state = state*1664525 + 1013904223
		v := float32(state%1000) / 1000.0
		vector[i] = v
		sumSquares += float64(v) * float64(v)
	}

	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}
	return vector
}

// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder,
// ai.SuggestionGenerator, and ai.AIProvider for use in unit tests. The mocks
// allow tests to run without external AI service dependencies and enable
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Scripted vectors for ranking scenarios
//	embedder := mock.NewMockEmbedder().
//	    WithFixture("what is zk rollup", []float32{1, 0, 0})
//
//	// Check call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: returns deterministic vectors based on text hash,
//     overridable per input via WithFixture
//   - MockSuggester: returns a "revised <label>" suggestion
//   - MockProvider: aggregates mock embedder and suggester
package mock

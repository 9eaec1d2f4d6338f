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


package mock

import "github.com/poiesic/grounder/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder and suggester instances.
type MockProvider struct {
	embedder  *MockEmbedder
	suggester *MockSuggester
}

// NewMockProvider creates a mock provider with default mock services.
// It returns the ai.AIProvider interface to mirror the production
// constructor; use GetMockEmbedder/GetMockSuggester for assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		suggester: NewMockSuggester(),
	}
}

// NewMockProviderWithServices creates a mock provider around caller-supplied
// mocks, giving the test full control over each service.
func NewMockProviderWithServices(embedder *MockEmbedder, suggester *MockSuggester) ai.AIProvider {
	return &MockProvider{
		embedder:  embedder,
		suggester: suggester,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// SuggestionGenerator returns the mock suggester.
func (p *MockProvider) SuggestionGenerator() ai.SuggestionGenerator {
	return p.suggester
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder exposes the concrete embedder so tests can check call
// counts or inject behavior.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockSuggester exposes the concrete suggester so tests can check call
// counts or inject behavior.
func (p *MockProvider) GetMockSuggester() *MockSuggester {
	return p.suggester
}

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


package openai

import (
	"log/slog"

	"github.com/poiesic/grounder/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
// It manages embedder and suggestion generator instances.
type Provider struct {
	config    *ai.Config
	embedder  *Embedder
	suggester *Suggester
	logger    *slog.Logger
}

// NewProvider builds a provider backed by OpenAI-compatible endpoints,
// validating and normalizing the config first.
//
// The return type is the ai.AIProvider interface so callers never depend
// on the OpenAI-specific implementation.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	suggester, err := newSuggester(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		embedder:  embedder,
		suggester: suggester,
		logger:    slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// SuggestionGenerator returns the anchor relabeling service.
func (p *Provider) SuggestionGenerator() ai.SuggestionGenerator {
	return p.suggester
}

// Close releases provider resources. The langchaingo clients hold no
// connections that need explicit cleanup, so this only logs.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}

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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/grounder/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Suggester implements ai.SuggestionGenerator using OpenAI-compatible chat APIs.
type Suggester struct {
	client llms.Model
	logger *slog.Logger
}

// suggestion is an internal type used for JSON unmarshaling.
// It matches the structure expected from the LLM.
type suggestion struct {
	Label     string `json:"label"`
	Rationale string `json:"rationale"`
}

// newSuggester is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSuggester(config *ai.Config) (*Suggester, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.SuggestionHost),
		openai.WithToken("none"),
		openai.WithModel(config.SuggestionModel),
	)
	if err != nil {
		return nil, err
	}

	return &Suggester{
		client: client,
		logger: slog.Default().With("component", "openai-suggester"),
	}, nil
}

// NewSuggester creates a new suggestion generator using the provided configuration.
//
// Returns ai.SuggestionGenerator interface to enforce abstraction.
func NewSuggester(config *ai.Config) (ai.SuggestionGenerator, error) {
	return newSuggester(config)
}

// SuggestLabel proposes a replacement term for an underperforming anchor.
func (s *Suggester) SuggestLabel(ctx context.Context, req ai.SuggestionRequest) (*ai.Suggestion, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(suggestionSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSuggestionPrompt(req)),
			},
		},
	}

	response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		s.logger.Error("failed to generate suggestion", "slug", req.Slug, "err", err)
		return nil, err
	}

	if len(response.Choices) < 1 {
		s.logger.Debug("no choices returned from model", "slug", req.Slug)
		return nil, ai.ErrNoSuggestion
	}

	// Strip markdown code fences if present
	responseText := strings.TrimSpace(response.Choices[0].Content)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	// Try to repair common JSON issues
	responseText = repairJSON(responseText)

	var result suggestion
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		s.logger.Warn("error parsing suggestion response",
			"slug", req.Slug,
			"response", responseText,
			"err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedSuggestion, err)
	}

	result.Label = strings.ToLower(strings.TrimSpace(result.Label))
	if result.Label == "" {
		return nil, ai.ErrNoSuggestion
	}
	if result.Label == strings.ToLower(strings.TrimSpace(req.Label)) {
		// Suggesting the current label is a decline, not a proposal.
		return nil, ai.ErrNoSuggestion
	}

	s.logger.Debug("generated suggestion", "slug", req.Slug, "label", result.Label)

	return &ai.Suggestion{
		Label:     result.Label,
		Rationale: strings.TrimSpace(result.Rationale),
	}, nil
}

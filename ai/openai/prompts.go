package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/grounder/ai"
)

const suggestionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "label": {
      "type": "string",
      "pattern": "^[a-z0-9]+( [a-z0-9]+)*$"
    },
    "rationale": {
      "type": "string"
    }
  },
  "required": ["label"],
  "additionalProperties": false
}`

var suggestionSystemPrompt = fmt.Sprintf(`You maintain a controlled vocabulary of glossary terms used to ground
retrieval. A term is given to you because its retrieval quality has been
degrading: queries that should surface passages tagged with it no longer do.

Propose a single replacement term that users are more likely to write in
their queries. Output ONLY valid JSON which complies with the schema given
below. Do not include any preamble, explanation, greeting, or
acknowledgment. Start your response directly with the opening brace { and
end with the closing brace }. Your output must exactly follow this schema:

%s

Rules:
- The label must be lowercase, 1-3 words, singular form only.
- Prefer the phrasing that appears in the recent queries over jargon.
- The rationale is one short sentence.
- If the current label is already the best available term, return it unchanged.`, suggestionResponseSchema)

// buildSuggestionPrompt renders the per-anchor user prompt.
func buildSuggestionPrompt(req ai.SuggestionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Term: %q (slug %q)\n", req.Label, req.Slug)
	if req.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", scrubString(req.Description))
	}
	fmt.Fprintf(&b, "Most recent daily average retrieval score: %.2f\n", req.AvgScore)
	if len(req.RecentQueries) > 0 {
		b.WriteString("Recent queries that retrieved against this term:\n")
		for _, q := range req.RecentQueries {
			fmt.Fprintf(&b, "- %s\n", scrubString(q))
		}
	}
	return b.String()
}

package match

import (
	"strings"

	"github.com/blevesearch/go-porterstemmer"
	"github.com/poiesic/grounder/core"
	"github.com/xrash/smetrics"
)

// DefaultFuzzyThreshold is the minimum character-level similarity ratio
// for the fuzzy strategy to count as a hit.
const DefaultFuzzyThreshold = 0.85

// Matcher decides whether a piece of text references a controlled-vocabulary
// term. Strategies are tried in order (exact, stem, fuzzy) and short-circuit
// on the first hit. Matching is pure and deterministic for identical inputs.
type Matcher struct {
	fuzzyThreshold float64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithFuzzyThreshold overrides the fuzzy similarity threshold.
// Values outside (0, 1] are ignored.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold > 0 && threshold <= 1 {
			m.fuzzyThreshold = threshold
		}
	}
}

// NewMatcher creates a Matcher with default thresholds.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{fuzzyThreshold: DefaultFuzzyThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match reports whether the anchor's term is referenced by the text and the
// strategy that found it. Returns (core.MatchNone, false) when nothing hits.
func (m *Matcher) Match(anchor *core.Anchor, text string) (core.MatchMethod, bool) {
	if anchor == nil || text == "" {
		return core.MatchNone, false
	}

	term := strings.ToLower(strings.TrimSpace(anchor.Term()))
	if term == "" {
		return core.MatchNone, false
	}
	lowered := strings.ToLower(text)

	if m.matchExact(anchor, lowered) {
		return core.MatchExact, true
	}
	if m.matchStem(term, lowered) {
		return core.MatchStem, true
	}
	if m.matchFuzzy(term, lowered) {
		return core.MatchFuzzy, true
	}
	return core.MatchNone, false
}

// matchExact checks case-insensitive substring containment of the anchor's
// label or its slug-with-spaces form.
func (m *Matcher) matchExact(anchor *core.Anchor, lowered string) bool {
	if label := strings.ToLower(strings.TrimSpace(anchor.Label)); label != "" {
		if strings.Contains(lowered, label) {
			return true
		}
	}
	if slugTerm := strings.ToLower(core.SlugWithSpaces(anchor.Slug)); slugTerm != "" {
		if strings.Contains(lowered, slugTerm) {
			return true
		}
	}
	return false
}

// matchStem stems both sides and requires every word of the anchor term
// (or its naive singular, trailing "s" stripped) to appear among the
// text's stemmed tokens.
func (m *Matcher) matchStem(term, lowered string) bool {
	tokens := Tokenize(lowered)
	if len(tokens) == 0 {
		return false
	}

	stemmed := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		stemmed[stem(token)] = true
	}

	words := strings.Fields(term)
	if len(words) == 0 {
		return false
	}
	for _, word := range words {
		if stemmed[stem(word)] {
			continue
		}
		if singular := strings.TrimSuffix(word, "s"); singular != word && stemmed[stem(singular)] {
			continue
		}
		return false
	}
	return true
}

// matchFuzzy compares the anchor term against the full text with an
// LCS-based similarity ratio. Wagner-Fischer with substitution cost 2
// reduces to len(a)+len(b)-2*LCS, so the ratio below equals the familiar
// 2*LCS/(len(a)+len(b)).
func (m *Matcher) matchFuzzy(term, lowered string) bool {
	return Ratio(term, lowered) >= m.fuzzyThreshold
}

// Ratio returns the character-level similarity ratio of two strings in [0,1].
func Ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	distance := smetrics.WagnerFischer(a, b, 1, 1, 2)
	total := len(a) + len(b)
	ratio := 1.0 - float64(distance)/float64(total)
	if ratio < 0 {
		return 0
	}
	return ratio
}

// stem applies the Porter stemming transform to a single lowercase token.
func stem(token string) string {
	if token == "" {
		return token
	}
	return porterstemmer.StemString(token)
}

package match

import (
	"testing"

	"github.com/poiesic/grounder/core"
	"github.com/stretchr/testify/assert"
)

func TestMatcher_Match(t *testing.T) {
	matcher := NewMatcher()

	tests := []struct {
		name       string
		anchor     *core.Anchor
		text       string
		wantMethod core.MatchMethod
		wantHit    bool
	}{
		{
			name:       "exact label substring",
			anchor:     &core.Anchor{Slug: "zk-rollup", Label: "zk rollup"},
			text:       "A zk rollup batches transactions off-chain.",
			wantMethod: core.MatchExact,
			wantHit:    true,
		},
		{
			name:       "exact is case-insensitive",
			anchor:     &core.Anchor{Slug: "zk-rollup", Label: "ZK Rollup"},
			text:       "a zk ROLLUP settles on mainnet",
			wantMethod: core.MatchExact,
			wantHit:    true,
		},
		{
			name:       "slug with spaces when label absent",
			anchor:     &core.Anchor{Slug: "zk-rollup"},
			text:       "the zk rollup posts proofs",
			wantMethod: core.MatchExact,
			wantHit:    true,
		},
		{
			name:       "stem match across inflection",
			anchor:     &core.Anchor{Slug: "batching", Label: "batching"},
			text:       "the sequencer batches transactions",
			wantMethod: core.MatchStem,
			wantHit:    true,
		},
		{
			name:       "stem match on plural term",
			anchor:     &core.Anchor{Slug: "validators", Label: "validators"},
			text:       "each validator attests the block",
			wantMethod: core.MatchStem,
			wantHit:    true,
		},
		{
			name:       "fuzzy match survives a typo",
			anchor:     &core.Anchor{Slug: "zk-rollup", Label: "zk rollup"},
			text:       "zk rolup",
			wantMethod: core.MatchFuzzy,
			wantHit:    true,
		},
		{
			name:       "no match",
			anchor:     &core.Anchor{Slug: "sharding", Label: "sharding"},
			text:       "the weather is nice today",
			wantMethod: core.MatchNone,
			wantHit:    false,
		},
		{
			name:       "empty text",
			anchor:     &core.Anchor{Slug: "zk-rollup"},
			text:       "",
			wantMethod: core.MatchNone,
			wantHit:    false,
		},
		{
			name:       "nil anchor",
			anchor:     nil,
			text:       "anything",
			wantMethod: core.MatchNone,
			wantHit:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, hit := matcher.Match(tt.anchor, tt.text)
			assert.Equal(t, tt.wantHit, hit)
			assert.Equal(t, tt.wantMethod, method)
		})
	}
}

func TestMatcher_FuzzyThreshold(t *testing.T) {
	strict := NewMatcher(WithFuzzyThreshold(0.99))
	anchor := &core.Anchor{Slug: "zk-rollup", Label: "zk rollup"}

	_, hit := strict.Match(anchor, "zk rolup")
	assert.False(t, hit, "typo should fall below a 0.99 threshold")

	// Out-of-range overrides are ignored
	lenient := NewMatcher(WithFuzzyThreshold(-1))
	assert.Equal(t, DefaultFuzzyThreshold, lenient.fuzzyThreshold)
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("zk rollup", "zk rollup"))
	assert.Equal(t, 0.0, Ratio("", "zk rollup"))
	assert.Equal(t, 0.0, Ratio("zk rollup", ""))

	// One deletion between near-identical strings stays above the default threshold
	assert.GreaterOrEqual(t, Ratio("zk rollup", "zk rolup"), DefaultFuzzyThreshold)
	assert.Less(t, Ratio("zk rollup", "completely different text"), DefaultFuzzyThreshold)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "punctuation and case",
			text: "A zk-Rollup, batches Transactions!",
			want: []string{"a", "zk", "rollup", "batches", "transactions"},
		},
		{
			name: "empty text",
			text: "",
			want: []string{},
		},
		{
			name: "digits kept",
			text: "layer2 scaling",
			want: []string{"layer2", "scaling"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.text))
		})
	}
}

func TestFrequentTerms(t *testing.T) {
	texts := []string{
		"rollup sequencer rollup",
		"the sequencer orders the rollup batches",
		"sequencer liveness",
	}

	t.Run("threshold filters and sorts by count", func(t *testing.T) {
		// rollup appears 3 times, sequencer 3 times, rest below
		terms := FrequentTerms(texts, 3)
		assert.Equal(t, []string{"rollup", "sequencer"}, terms)
	})

	t.Run("stop words and short tokens excluded", func(t *testing.T) {
		terms := FrequentTerms([]string{"the the the is is to to"}, 1)
		assert.Empty(t, terms)
	})

	t.Run("minCount below one is clamped", func(t *testing.T) {
		terms := FrequentTerms([]string{"liveness"}, 0)
		assert.Equal(t, []string{"liveness"}, terms)
	})
}

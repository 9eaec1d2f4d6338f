package match

import (
	"strings"
	"unicode"
)

// Stop words to filter out when counting candidate memory tokens
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "how": true, "about": true,
}

// Tokenize splits text into lowercase alphanumeric words.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// FrequentTerms counts non-stopword tokens across texts and returns the
// terms that occur at least minCount times, most frequent first. Used to
// promote high-frequency memory tokens into anchors.
func FrequentTerms(texts []string, minCount int) []string {
	if minCount < 1 {
		minCount = 1
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, text := range texts {
		for _, token := range Tokenize(text) {
			if stopWords[token] || len(token) < 3 {
				continue
			}
			if counts[token] == 0 {
				order = append(order, token)
			}
			counts[token]++
		}
	}

	frequent := make([]string, 0, len(order))
	for _, term := range order {
		if counts[term] >= minCount {
			frequent = append(frequent, term)
		}
	}

	// Stable sort: by count descending, first occurrence breaking ties.
	for i := 1; i < len(frequent); i++ {
		for j := i; j > 0 && counts[frequent[j]] > counts[frequent[j-1]]; j-- {
			frequent[j], frequent[j-1] = frequent[j-1], frequent[j]
		}
	}
	return frequent
}

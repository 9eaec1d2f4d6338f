package openai

import "strings"

// scrubString removes quote characters and trims whitespace so that user
// text can be interpolated into prompts without breaking formatting.
func scrubString(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune("\"'`", r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

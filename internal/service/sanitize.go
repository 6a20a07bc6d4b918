package service

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer turns user-supplied free text into plain text safe to place
// in calendar descriptions and emails. It is safe for concurrent use.
type TextSanitizer struct {
	policy *bluemonday.Policy
}

func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean strips all markup, trims whitespace and caps the result at maxRunes
// (no cap when maxRunes <= 0).
func (s *TextSanitizer) Clean(input string, maxRunes int) string {
	out := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(input)))
	if maxRunes > 0 && utf8.RuneCountInString(out) > maxRunes {
		out = string([]rune(out)[:maxRunes])
	}
	return out
}

// Package strutil holds small string helpers shared by the ai packages.
package strutil

import (
	"strings"
	"unicode"
)

// Truncate shortens s to at most maxLen runes and appends "..." when cut.
// Returns "" when maxLen <= 0.
func Truncate(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Normalize lowercases s, maps punctuation other than apostrophes and
// hyphens to spaces, and collapses runs of whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'', r == '-':
			b.WriteRune(r)
			space = false
		case r == '’':
			b.WriteRune('\'')
			space = false
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// WordCount returns the number of whitespace separated fields in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

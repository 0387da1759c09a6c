package store

import (
	"strings"
	"unicode"
)

// Document is a local file indexed for FILE_SEARCH.
type Document struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	IndexedTs int64  `json:"indexed_ts"`
}

// DocumentHit is one full-text search result.
// Rank is higher for better matches.
type DocumentHit struct {
	ID      int64   `json:"id"`
	Path    string  `json:"path"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Rank    float64 `json:"rank"`
}

// FindDocument specifies a full-text lookup.
type FindDocument struct {
	Query string
	Limit int
}

// DefaultSearchLimit caps hits when FindDocument.Limit is unset.
const DefaultSearchLimit = 5

var matchStopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "what": {}, "how": {}, "does": {}, "do": {}, "my": {},
	"our": {}, "for": {}, "on": {}, "about": {}, "say": {}, "says": {}, "me": {},
}

// MatchExpression turns free text into an FTS5 MATCH expression.
// Every token is quoted so user input can never inject FTS syntax.
// Returns "" when nothing searchable remains.
func MatchExpression(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := matchStopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, `"`+f+`"`)
	}
	return strings.Join(terms, " OR ")
}

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchExpression(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "deployment checklist", `"deployment" OR "checklist"`},
		{"stop words dropped", "what does the doc say about onboarding", `"doc" OR "onboarding"`},
		{"fts syntax quoted away", `deploy* NEAR("x" y) -z`, `"deploy" OR "near" OR "x" OR "y" OR "z"`},
		{"duplicates removed", "cache Cache CACHE", `"cache"`},
		{"nothing left", "what is the", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchExpression(tt.input))
		})
	}
}

func TestDocumentTitle(t *testing.T) {
	assert.Equal(t, "Release Process", DocumentTitle("docs/release.md", []byte("intro\n\n# Release Process\n\n## Steps\n")))
	assert.Equal(t, "Setext", DocumentTitle("a.md", []byte("Setext\n======\n\nbody")))
	assert.Equal(t, "notes", DocumentTitle("dir/notes.txt", []byte("no heading here")))
}

package routing

import (
	"regexp"
	"sort"
	"strings"
)

// Built-in vocabularies. Multi-word entries match as phrases.
var defaultVocabulary = map[Signal][]string{
	SignalCoding: {
		"code", "coding", "function", "functions", "program", "programming",
		"script", "debug", "debugging", "bug", "bugs", "compile", "compiler",
		"refactor", "algorithm", "python", "golang", "javascript", "typescript",
		"java", "rust", "sql", "regex", "api", "unit test",
		"stack trace", "snippet", "implement",
	},
	SignalCreative: {
		"poem", "poems", "poetry", "story", "stories", "lyrics", "song",
		"haiku", "creative", "fiction", "novel", "essay", "screenplay",
		"brainstorm", "limerick", "slogan",
	},
	SignalDocuments: {
		"document", "documents", "doc", "docs", "file", "files", "my notes",
		"notes", "pdf", "pdfs", "uploaded", "upload", "knowledge base",
		"folder", "report", "reports", "manual", "spreadsheet",
	},
	SignalWeb: {
		"news", "latest", "today", "today's", "current", "currently", "recent",
		"recently", "this week", "tonight", "yesterday", "weather", "forecast",
		"stock", "stocks", "price", "prices", "score", "scores", "headlines",
		"trending", "breaking", "search the web", "web", "online", "internet",
		"google", "website",
	},
}

// offlinePhrases trigger OFFLINE_PROVIDER regardless of the configured names.
var offlinePhrases = []string{
	"offline", "no internet", "without internet", "without an internet",
	"local model", "local llm", "local assistant", "run locally", "run it locally",
}

// defaultFollowUps reuse the previous route when the context has one.
var defaultFollowUps = []string{
	"ok", "okay", "yes", "yeah", "yep", "sure", "right", "correct", "good",
	"fine", "alright", "go on", "continue", "more", "tell me more",
	"and then", "what else", "elaborate", "keep going", "why", "how so",
}

// nameSuffix lets a provider name carry a version tag or a possessive:
// "llama3", "gpt-4o-mini", "offline-mode", "claude's". A letter right after
// the name still breaks the match, so "claudette" is not "claude".
const nameSuffix = `(?:[-\p{N}][\p{L}\p{N}-]*)?(?:'s)?`

// phraseMatcher matches a list of words or phrases on word boundaries.
type phraseMatcher struct {
	re *regexp.Regexp
}

// newPhraseMatcher matches whole words only. Vocabulary scoring uses it.
func newPhraseMatcher(phrases []string) *phraseMatcher {
	return compilePhrases(phrases, "")
}

// newNameMatcher matches provider names and offline wording, allowing
// nameSuffix after the name.
func newNameMatcher(names []string) *phraseMatcher {
	return compilePhrases(names, nameSuffix)
}

func compilePhrases(phrases []string, suffix string) *phraseMatcher {
	seen := make(map[string]bool, len(phrases))
	quoted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		quoted = append(quoted, regexp.QuoteMeta(p))
	}
	if len(quoted) == 0 {
		return &phraseMatcher{}
	}
	// Longest first so that phrases win over their prefixes.
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return &phraseMatcher{
		re: regexp.MustCompile(`(?:^|[^\p{L}\p{N}'-])(` + strings.Join(quoted, "|") + `)` + suffix + `(?:$|[^\p{L}\p{N}'-])`),
	}
}

// Find returns the first matched phrase.
func (m *phraseMatcher) Find(s string) (string, bool) {
	if m.re == nil {
		return "", false
	}
	sub := m.re.FindStringSubmatch(s)
	if sub == nil {
		return "", false
	}
	return sub[1], true
}

// FindAll returns every distinct matched phrase in order of appearance.
func (m *phraseMatcher) FindAll(s string) []string {
	if m.re == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	// Matches consume the trailing separator, so scan word by word.
	for rest := s; rest != ""; {
		loc := m.re.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		word := rest[loc[2]:loc[3]]
		if !seen[word] {
			seen[word] = true
			out = append(out, word)
		}
		rest = rest[loc[3]:]
	}
	return out
}

// MatchResult is the vocabulary scoring of one normalized query.
type MatchResult struct {
	Scores   map[Signal]int
	Keywords []string
}

// Score returns the summed score of the given signals.
func (r *MatchResult) Score(signals ...Signal) int {
	total := 0
	for _, s := range signals {
		total += r.Scores[s]
	}
	return total
}

// Matched reports whether any vocabulary matched.
func (r *MatchResult) Matched() bool {
	return len(r.Keywords) > 0
}

// RuleMatcher scores normalized query text against the signal vocabularies.
type RuleMatcher struct {
	signals  []Signal
	matchers map[Signal]*phraseMatcher
}

// NewRuleMatcher builds a matcher from the built-in vocabulary plus extra
// keywords per signal.
func NewRuleMatcher(extra map[Signal][]string) *RuleMatcher {
	m := &RuleMatcher{matchers: make(map[Signal]*phraseMatcher)}
	for _, sig := range []Signal{SignalCoding, SignalCreative, SignalDocuments, SignalWeb} {
		words := append([]string{}, defaultVocabulary[sig]...)
		words = append(words, extra[sig]...)
		m.signals = append(m.signals, sig)
		m.matchers[sig] = newPhraseMatcher(words)
	}
	return m
}

// Match scores normalized text. Each distinct matched keyword adds one point.
func (m *RuleMatcher) Match(normalized string) *MatchResult {
	result := &MatchResult{Scores: make(map[Signal]int, len(m.signals))}
	for _, sig := range m.signals {
		hits := m.matchers[sig].FindAll(normalized)
		result.Scores[sig] = len(hits)
		result.Keywords = append(result.Keywords, hits...)
	}
	return result
}

// calculateConfidence maps a winning score and margin to (0.5, 0.95].
func calculateConfidence(score, margin int) float32 {
	confidence := float32(0.6) + float32(score)*0.1 + float32(margin)*0.05
	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence
}

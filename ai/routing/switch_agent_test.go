package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSwitch(t *testing.T) *SwitchAgent {
	t.Helper()
	agent, err := NewSwitchAgent(testConfig())
	require.NoError(t, err)
	return agent
}

func TestSwitchAgent_Precedence(t *testing.T) {
	agent := newTestSwitch(t)

	tests := []struct {
		name   string
		input  string
		family Family
		method Method
	}{
		{"offline keyword", "Answer this offline please", FamilyOffline, MethodExplicit},
		{"offline provider name", "ask ollama what a monad is", FamilyOffline, MethodExplicit},
		{"no internet", "I have no internet, summarize my notes", FamilyOffline, MethodExplicit},
		{"offline beats secondary", "Use Claude but stay offline", FamilyOffline, MethodExplicit},
		{"offline beats primary", "ChatGPT style answer, run locally", FamilyOffline, MethodExplicit},
		{"secondary name", "Help me write a function using Claude", FamilySecondary, MethodExplicit},
		{"secondary beats primary", "Is Anthropic better than OpenAI?", FamilySecondary, MethodExplicit},
		{"secondary beats content", "Ask Claude for the latest news", FamilySecondary, MethodExplicit},
		{"primary name", "ChatGPT, write me a poem", FamilyPrimary, MethodExplicit},
		{"primary model name", "use gpt-4o for this", FamilyPrimary, MethodExplicit},
		{"secondary possessive", "What is Claude's take on today's weather?", FamilySecondary, MethodExplicit},
		{"secondary possessive over documents", "I'd like Anthropic's model to summarize my documents", FamilySecondary, MethodExplicit},
		{"offline versioned name", "Use llama3 for my notes", FamilyOffline, MethodExplicit},
		{"offline possessive", "Search my files with Ollama's model", FamilyOffline, MethodExplicit},
		{"offline hyphenated", "Offline-mode please: summarize my documents", FamilyOffline, MethodExplicit},
		{"offline versioned beats secondary", "Compare llama3.1 with Claude on this script", FamilyOffline, MethodExplicit},
		{"primary possessive", "ChatGPT's opinion on the latest headlines", FamilyPrimary, MethodExplicit},
		{"primary model variant", "use gpt-4o-mini to write a poem", FamilyPrimary, MethodExplicit},
		{"coding vocabulary", "Can you debug this python script?", FamilySecondary, MethodKeyword},
		{"creative vocabulary", "Write a haiku about autumn", FamilySecondary, MethodKeyword},
		{"documents vocabulary", "Search my documents for yoga poses", FamilyPrimary, MethodKeyword},
		{"web vocabulary", "What's the latest news on AI?", FamilyPrimary, MethodKeyword},
		{"no signal", "How tall is Mount Everest?", FamilyPrimary, MethodFallback},
		{"empty", "", FamilyPrimary, MethodFallback},
		{"punctuation only", "?!", FamilyPrimary, MethodFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := agent.Decide(query(tt.input))
			assert.Equal(t, tt.family, d.Family(), d.Rationale)
			assert.Equal(t, tt.method, d.Method)
			assert.Equal(t, DecidedBySwitch, d.DecidedBy)
			assert.NotEmpty(t, d.Rationale)
		})
	}
}

func TestSwitchAgent_WordBoundaries(t *testing.T) {
	agent := newTestSwitch(t)

	// "claudette" and "offlineness" must not trigger explicit rules.
	d := agent.Decide(query("my friend claudette asked about offlineness"))
	assert.NotEqual(t, MethodExplicit, d.Method)

	d = agent.Decide(query("write a story about llamas and gptzero"))
	assert.NotEqual(t, MethodExplicit, d.Method, d.Rationale)
}

func TestSwitchAgent_FallbackIsFlagged(t *testing.T) {
	agent := newTestSwitch(t)

	d := agent.Decide(query("hello there"))
	assert.True(t, d.Fallback)
	assert.Contains(t, d.Rationale, "fallback")

	d = agent.Decide(query("latest headlines"))
	assert.False(t, d.Fallback)
}

func TestSwitchAgent_TieGoesToPrimary(t *testing.T) {
	agent := newTestSwitch(t)

	// one coding keyword, one document keyword
	d := agent.Decide(query("explain the code in this file"))
	assert.Equal(t, FamilyPrimary, d.Family())
	assert.Equal(t, MethodKeyword, d.Method)
}

func TestSwitchAgent_FollowUp(t *testing.T) {
	agent := newTestSwitch(t)

	q := query("tell me more")
	q.Context = fakeView{turns: 2, last: CapabilitySecondary}
	d := agent.Decide(q)
	assert.Equal(t, FamilySecondary, d.Family())
	assert.Equal(t, MethodFollowUp, d.Method)

	// without history a follow-up has nothing to continue
	d = agent.Decide(query("tell me more"))
	assert.Equal(t, MethodFallback, d.Method)

	// explicit naming still wins over continuity
	q = query("ok, use claude")
	q.Context = fakeView{turns: 2, last: CapabilityOffline}
	assert.Equal(t, FamilySecondary, agent.Decide(q).Family())
}

func TestSwitchAgent_ClassifyRecordsOnce(t *testing.T) {
	agent := newTestSwitch(t)
	rec := &memRecorder{}

	d := agent.Classify(query("What's the latest news on AI?"), rec)
	require.Len(t, rec.decisions, 1)
	assert.Equal(t, 1, d.Seq)
	assert.Equal(t, "d-1", d.ID)
	assert.False(t, d.Timestamp.IsZero())
	assert.Equal(t, rec.decisions[0], d)
}

func TestSwitchAgent_Idempotent(t *testing.T) {
	agent := newTestSwitch(t)
	inputs := []string{
		"Search my documents for yoga poses",
		"Help me write a function using Claude",
		"work offline",
		"nothing in particular",
	}

	for _, in := range inputs {
		q := query(in)
		q.Context = fakeView{turns: 4, last: CapabilityWebSearch}
		first := agent.Decide(q)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, agent.Decide(q), in)
		}

		rec := &memRecorder{}
		a := agent.Classify(q, rec)
		b := agent.Classify(q, rec)
		assert.Equal(t, a.Target, b.Target)
		assert.Equal(t, a.Method, b.Method)
		assert.Equal(t, a.Rationale, b.Rationale)
	}
}

func TestSwitchAgent_CustomProviderNames(t *testing.T) {
	cfg := testConfig()
	cfg.Providers.Offline = []string{"mistral-local"}
	agent, err := NewSwitchAgent(cfg)
	require.NoError(t, err)

	assert.Equal(t, FamilyOffline, agent.Decide(query("ask mistral-local")).Family())
	// built-in offline wording stays active
	assert.Equal(t, FamilyOffline, agent.Decide(query("go offline")).Family())
}

func TestSwitchAgent_WithCache(t *testing.T) {
	cfg := testConfig()
	cfg.Cache = NewRouterCache(CacheConfig{Capacity: 10})
	agent, err := NewSwitchAgent(cfg)
	require.NoError(t, err)

	uncached := newTestSwitch(t)
	for _, in := range []string{"What's the latest news on AI?", "what's the LATEST news on ai"} {
		assert.Equal(t, uncached.Decide(query(in)), agent.Decide(query(in)))
	}
	stats := cfg.Cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

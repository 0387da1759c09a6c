package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCELRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		rule RuleConfig
	}{
		{"unknown family", RuleConfig{Name: "x", Expr: "true", Family: "NOPE"}},
		{"syntax error", RuleConfig{Name: "x", Expr: "query.contains(", Family: FamilyPrimary}},
		{"not boolean", RuleConfig{Name: "x", Expr: "turns + 1", Family: FamilyPrimary}},
		{"unknown variable", RuleConfig{Name: "x", Expr: "user == 'a'", Family: FamilyPrimary}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCELRules([]RuleConfig{tt.rule})
			assert.Error(t, err)
		})
	}
}

func TestCELRules_Evaluate(t *testing.T) {
	rules, err := NewCELRules([]RuleConfig{
		{Name: "recipes", Expr: `query.contains("recipe")`, Family: FamilyOffline},
		{Name: "long chats", Expr: `turns > 10 && last_capability == "SECONDARY"`, Family: FamilySecondary},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rules.Len())

	family, name, ok := rules.Evaluate("a recipe for bread", "A recipe for bread", fakeView{})
	require.True(t, ok)
	assert.Equal(t, FamilyOffline, family)
	assert.Equal(t, "recipes", name)

	family, _, ok = rules.Evaluate("anything", "anything", fakeView{turns: 12, last: CapabilitySecondary})
	require.True(t, ok)
	assert.Equal(t, FamilySecondary, family)

	_, _, ok = rules.Evaluate("anything", "anything", fakeView{turns: 3})
	assert.False(t, ok)
}

func TestSwitchAgent_CELRuleOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Rules = []RuleConfig{{Name: "recipes", Expr: `query.contains("recipe")`, Family: FamilyOffline}}
	agent, err := NewSwitchAgent(cfg)
	require.NoError(t, err)

	d := agent.Decide(query("find a recipe in my documents"))
	assert.Equal(t, FamilyOffline, d.Family())
	assert.Equal(t, MethodCEL, d.Method)

	// explicit provider names are evaluated before content rules
	d = agent.Decide(query("ask claude for a recipe"))
	assert.Equal(t, FamilySecondary, d.Family())
}

func TestNewSwitchAgent_InvalidRule(t *testing.T) {
	cfg := testConfig()
	cfg.Rules = []RuleConfig{{Name: "bad", Expr: "1", Family: FamilyPrimary}}
	_, err := NewSwitchAgent(cfg)
	assert.Error(t, err)
}

package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/czapol/multi-agent-playground/ai/capability"
	"github.com/czapol/multi-agent-playground/ai/core/llm"
	"github.com/czapol/multi-agent-playground/ai/routing"
)

func TestConversationContext_AppendOnly(t *testing.T) {
	c := NewConversationContext()
	assert.Zero(t, c.Len())

	u := c.AppendUser("hi")
	a := c.AppendAssistant("hello", routing.CapabilityGeneral, "")
	assert.Equal(t, 1, u.Seq)
	assert.Equal(t, 2, a.Seq)
	assert.False(t, a.Timestamp.IsZero())

	turns := c.Turns()
	require.Len(t, turns, 2)
	turns[0].Text = "mutated"
	assert.Equal(t, "hi", c.Turns()[0].Text)

	for i := 0; i < 100; i++ {
		c.AppendUser("more")
	}
	assert.Equal(t, 102, c.Len())
}

func TestConversationContext_View(t *testing.T) {
	c := NewConversationContext()
	v := c.View()
	assert.Zero(t, v.TurnCount())
	_, ok := v.LastCapability()
	assert.False(t, ok)

	c.AppendUser("docs?")
	c.AppendAssistant("found it", routing.CapabilityFileSearch, "")
	c.AppendUser("next")

	v = c.View()
	assert.Equal(t, 3, v.TurnCount())
	last, ok := v.LastCapability()
	require.True(t, ok)
	assert.Equal(t, routing.CapabilityFileSearch, last)

	c.AppendAssistant("timed out", routing.CapabilityWebSearch, capability.KindTimeout)
	assert.Equal(t, 3, v.TurnCount(), "views are snapshots")
	last, _ = c.View().LastCapability()
	assert.Equal(t, routing.CapabilityWebSearch, last)
}

func TestConversationContext_ToMessages(t *testing.T) {
	c := NewConversationContext()
	c.Append(Turn{Role: RoleSystem, Text: "be nice"})
	c.AppendUser("q1")
	c.AppendAssistant("a1", routing.CapabilityGeneral, "")
	c.AppendUser("q2")
	c.AppendAssistant("error text", routing.CapabilitySecondary, capability.KindAuthMissing)
	c.AppendUser("q3")

	assert.Equal(t, []llm.Message{
		llm.SystemPrompt("be nice"),
		llm.UserMessage("q1"),
		llm.AssistantMessage("a1"),
		llm.UserMessage("q2"),
		llm.UserMessage("q3"),
	}, c.ToMessages(0))

	assert.Equal(t, []llm.Message{
		llm.UserMessage("q2"),
		llm.UserMessage("q3"),
	}, c.ToMessages(3))

	assert.Equal(t, 6, c.Len())
}

func TestConversationContext_ToHistoryPrompt(t *testing.T) {
	c := NewConversationContext()
	assert.Empty(t, c.ToHistoryPrompt())

	c.AppendUser("latest news?")
	c.AppendAssistant("Here it is.", routing.CapabilityWebSearch, "")
	assert.Equal(t, "User: latest news?\nAssistant (web_search): Here it is.\n", c.ToHistoryPrompt())
}

func TestConversationContext_Clock(t *testing.T) {
	fixed := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	c := newConversationContext(func() time.Time { return fixed })
	turn := c.AppendUser("x")
	assert.Equal(t, fixed, turn.Timestamp)
	assert.Equal(t, fixed, c.UpdatedAt)
}

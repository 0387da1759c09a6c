// Package agent holds the per-session conversation state and the
// orchestrator that drives one query through routing and dispatch.
package agent

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/czapol/multi-agent-playground/ai/capability"
	"github.com/czapol/multi-agent-playground/ai/core/llm"
	"github.com/czapol/multi-agent-playground/ai/routing"
)

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one message in the conversation.
type Turn struct {
	Seq         int                `json:"seq"`
	Role        Role               `json:"role"`
	Text        string             `json:"text"`
	Capability  routing.Capability `json:"capability,omitempty"`
	FailureKind capability.Kind    `json:"failure_kind,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

// Failed reports whether the turn carries an error message instead of an answer.
func (t Turn) Failed() bool {
	return t.FailureKind != ""
}

// ConversationContext is the append-only turn history of one session.
// Turns are never removed; prompt windows are applied on read.
type ConversationContext struct {
	mu        sync.RWMutex
	turns     []Turn
	now       func() time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewConversationContext creates an empty context.
func NewConversationContext() *ConversationContext {
	return newConversationContext(time.Now)
}

func newConversationContext(now func() time.Time) *ConversationContext {
	t := now()
	return &ConversationContext{
		turns:     make([]Turn, 0, 8),
		now:       now,
		CreatedAt: t,
		UpdatedAt: t,
	}
}

// Append stores a turn, assigning its sequence number and, when unset,
// its timestamp. The stored copy is returned.
func (c *ConversationContext) Append(t Turn) Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	t.Seq = len(c.turns) + 1
	if t.Timestamp.IsZero() {
		t.Timestamp = c.now()
	}
	c.turns = append(c.turns, t)
	c.UpdatedAt = t.Timestamp
	return t
}

// AppendUser appends a user turn.
func (c *ConversationContext) AppendUser(text string) Turn {
	return c.Append(Turn{Role: RoleUser, Text: text})
}

// AppendAssistant appends an assistant turn produced by by. kind is ""
// for a successful answer.
func (c *ConversationContext) AppendAssistant(text string, by routing.Capability, kind capability.Kind) Turn {
	return c.Append(Turn{Role: RoleAssistant, Text: text, Capability: by, FailureKind: kind})
}

// Len returns the number of stored turns.
func (c *ConversationContext) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Turns returns a copy of every turn in order.
func (c *ConversationContext) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// LastTurn returns a copy of the most recent turn.
func (c *ConversationContext) LastTurn() (Turn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

// View returns an immutable snapshot for the routers.
func (c *ConversationContext) View() routing.ContextView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := contextView{turns: len(c.turns)}
	for i := len(c.turns) - 1; i >= 0; i-- {
		if t := c.turns[i]; t.Role == RoleAssistant && t.Capability != "" {
			v.last, v.hasLast = t.Capability, true
			break
		}
	}
	return v
}

type contextView struct {
	turns   int
	last    routing.Capability
	hasLast bool
}

func (v contextView) TurnCount() int                             { return v.turns }
func (v contextView) LastCapability() (routing.Capability, bool) { return v.last, v.hasLast }

// ToMessages converts the last window turns into provider messages.
// Failed assistant turns are skipped since they hold our own error text.
// window <= 0 means the whole history.
func (c *ConversationContext) ToMessages(window int) []llm.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	turns := c.turns
	if window > 0 && len(turns) > window {
		turns = turns[len(turns)-window:]
	}

	msgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case RoleUser:
			msgs = append(msgs, llm.UserMessage(t.Text))
		case RoleAssistant:
			if !t.Failed() {
				msgs = append(msgs, llm.AssistantMessage(t.Text))
			}
		case RoleSystem:
			msgs = append(msgs, llm.SystemPrompt(t.Text))
		}
	}
	return msgs
}

// ToHistoryPrompt formats the history as "User: ...\nAssistant: ..." lines.
func (c *ConversationContext) ToHistoryPrompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.turns) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, t := range c.turns {
		switch t.Role {
		case RoleUser:
			fmt.Fprintf(&sb, "User: %s\n", t.Text)
		case RoleAssistant:
			if t.Capability != "" {
				fmt.Fprintf(&sb, "Assistant (%s): %s\n", t.Capability.ID(), t.Text)
			} else {
				fmt.Fprintf(&sb, "Assistant: %s\n", t.Text)
			}
		case RoleSystem:
			fmt.Fprintf(&sb, "System: %s\n", t.Text)
		}
	}
	return sb.String()
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent "github.com/czapol/multi-agent-playground/ai/agents"
	"github.com/czapol/multi-agent-playground/ai/aitest"
	"github.com/czapol/multi-agent-playground/ai/e2e/mocks"
	"github.com/czapol/multi-agent-playground/ai/routing"
)

func TestFormatDecision(t *testing.T) {
	tests := []struct {
		name     string
		decision routing.Decision
		want     string
	}{
		{
			name: "keyword",
			decision: routing.Decision{
				Seq: 2, DecidedBy: routing.DecidedBySubRouter, Target: "WEB_SEARCH",
				Method: routing.MethodKeyword, Confidence: 0.8, Rationale: "matched: news",
			},
			want: "#2 sub_router -> WEB_SEARCH (keyword, 0.80) matched: news",
		},
		{
			name: "fallback",
			decision: routing.Decision{
				Seq: 1, DecidedBy: routing.DecidedBySwitch, Target: "PRIMARY_FAMILY",
				Method: routing.MethodFallback, Confidence: 0.5, Fallback: true,
			},
			want: "#1 switch -> PRIMARY_FAMILY (fallback, 0.50) fallback",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDecision(tt.decision))
		})
	}
}

func TestWriteResult(t *testing.T) {
	res := &agent.Result{
		SessionID:  "cli",
		State:      agent.StateCompleted,
		Capability: routing.CapabilityGeneral,
		Answer:     "hi",
		Message:    "hi",
		Decisions: []routing.Decision{
			{Seq: 1, DecidedBy: routing.DecidedBySwitch, Target: "PRIMARY_FAMILY", Method: routing.MethodFallback, Confidence: 0.5},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, res, "text", false))
	assert.Equal(t, "hi\n", buf.String())

	buf.Reset()
	require.NoError(t, writeResult(&buf, res, "text", true))
	assert.Equal(t, "hi\n#1 switch -> PRIMARY_FAMILY (fallback, 0.50)\n", buf.String())

	buf.Reset()
	require.NoError(t, writeResult(&buf, res, "json", false))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "COMPLETED", decoded["state"])
	assert.Equal(t, "GENERAL", decoded["capability"])
}

func TestRunChat(t *testing.T) {
	chat := mocks.NewChatServer(t)
	svc := aitest.NewService(t, chat)

	in := strings.NewReader(strings.Join([]string{
		"Tell me a joke",
		"Use ollama please",
		"/log",
		"/history",
		"/bogus",
		"/reset",
		"/log",
		"/quit",
		"never read",
	}, "\n"))
	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), svc, in, &out))

	text := out.String()
	assert.Contains(t, text, "[general] primary: Tell me a joke")
	assert.Contains(t, text, "[offline] offline: Use ollama please")
	assert.Contains(t, text, "#3 switch -> OFFLINE_PROVIDER")
	assert.Contains(t, text, "User: Tell me a joke")
	assert.Contains(t, text, "unknown command /bogus")
	assert.Contains(t, text, "conversation cleared")
	assert.NotContains(t, text, "never read")

	// The reset log was printed empty, so decision #1 appears only once.
	assert.Equal(t, 1, strings.Count(text, "#1 switch"))
	assert.Len(t, chat.Requests(), 2)
}

func TestRunChat_EOF(t *testing.T) {
	chat := mocks.NewChatServer(t)
	svc := aitest.NewService(t, chat)

	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), svc, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "session ")
	assert.Equal(t, 1, svc.Sessions.Len())
}

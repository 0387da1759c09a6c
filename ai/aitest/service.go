// Package aitest builds a fully wired ai.Service against local fakes.
package aitest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/czapol/multi-agent-playground/ai"
	"github.com/czapol/multi-agent-playground/ai/capability"
	"github.com/czapol/multi-agent-playground/ai/core/llm"
	"github.com/czapol/multi-agent-playground/ai/core/websearch"
	"github.com/czapol/multi-agent-playground/ai/e2e/mocks"
)

// Config returns a config whose three families all talk to chat, using
// models named "primary", "secondary" and "offline", with web search
// served by a local results page and the index in a temp dir.
// Retries and rate limiting are off.
func Config(t testing.TB, chat *mocks.ChatServer) *ai.Config {
	t.Helper()
	search := mocks.NewSearchServer(t)
	dir := t.TempDir()

	provider := func(model string) llm.Config {
		return llm.Config{Provider: "compatible", BaseURL: chat.BaseURL(), Model: model, Timeout: 5}
	}
	adapter := capability.DefaultAdapterConfig()
	adapter.Timeout = 5 * time.Second
	adapter.RatePerSecond = 0
	adapter.MaxRetries = 0

	return &ai.Config{
		Primary:   provider("primary"),
		Secondary: provider("secondary"),
		Offline:   provider("offline"),
		Adapter:   adapter,
		Search:    websearch.Config{Endpoint: search.URL},
		DSN:       filepath.Join(dir, "index.db"),
		ConfigDir: dir,
	}
}

// NewService wires a service from Config and closes it at cleanup.
func NewService(t testing.TB, chat *mocks.ChatServer) *ai.Service {
	t.Helper()
	svc, err := ai.NewService(context.Background(), Config(t, chat))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

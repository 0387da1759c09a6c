package ai

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent "github.com/czapol/multi-agent-playground/ai/agents"
	"github.com/czapol/multi-agent-playground/ai/capability"
	"github.com/czapol/multi-agent-playground/ai/core/llm"
	"github.com/czapol/multi-agent-playground/ai/core/websearch"
	"github.com/czapol/multi-agent-playground/ai/e2e/mocks"
	"github.com/czapol/multi-agent-playground/ai/routing"
	"github.com/czapol/multi-agent-playground/internal/profile"
)

func testConfig(t *testing.T, chat *mocks.ChatServer) *Config {
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

	return &Config{
		Primary:   provider("primary"),
		Secondary: provider("secondary"),
		Offline:   provider("offline"),
		Adapter:   adapter,
		Search:    websearch.Config{Endpoint: search.URL},
		DSN:       filepath.Join(dir, "index.db"),
		ConfigDir: dir,
	}
}

func newTestService(t *testing.T, chat *mocks.ChatServer) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), testConfig(t, chat))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestNewConfigFromProfile(t *testing.T) {
	p := &profile.Profile{
		Mode:           "prod",
		Primary:        profile.Provider{Name: "openai", APIKey: "sk-1", Model: "gpt-4o", BaseURL: "https://api.openai.com/v1", Timeout: 30},
		Secondary:      profile.Provider{Name: "anthropic", Model: "claude-sonnet-4-5", Timeout: 60},
		Offline:        profile.Provider{Name: "ollama", Model: "llama3.1", Timeout: 90},
		SearchEndpoint: "http://search.local/html/",
		AdapterTimeout: 45,
		RatePerSecond:  1.5,
		MaxRetries:     3,
		HistoryWindow:  12,
		DSN:            "/tmp/index.db",
		ConfigDir:      "/etc/playground",

		SessionIdleMinutes: 30,
	}

	cfg := NewConfigFromProfile(p)
	assert.Equal(t, "openai", cfg.Primary.Provider)
	assert.Equal(t, "sk-1", cfg.Primary.APIKey)
	assert.Equal(t, 30, cfg.Primary.Timeout)
	assert.Equal(t, 2048, cfg.Primary.MaxTokens)
	assert.Equal(t, "anthropic", cfg.Secondary.Provider)
	assert.Equal(t, 90, cfg.Offline.Timeout)
	assert.Equal(t, 45*time.Second, cfg.Adapter.Timeout)
	assert.Equal(t, 1.5, cfg.Adapter.RatePerSecond)
	assert.Equal(t, 3, cfg.Adapter.MaxRetries)
	assert.Equal(t, "http://search.local/html/", cfg.Search.Endpoint)
	assert.Equal(t, 12, cfg.HistoryWindow)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.True(t, cfg.RuntimeMetrics)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{DSN: "x.db", Primary: llm.Config{Provider: "openai"}, Secondary: llm.Config{Provider: "bard"}, Offline: llm.Config{Provider: "ollama"}}
	assert.ErrorContains(t, cfg.Validate(), "secondary")

	cfg = &Config{}
	assert.ErrorContains(t, cfg.Validate(), "DSN")
}

func TestService_RoutesToEachBackend(t *testing.T) {
	chat := mocks.NewChatServer(t)
	svc := newTestService(t, chat)

	tests := []struct {
		query  string
		want   routing.Capability
		prefix string
	}{
		{"What's the latest news on AI?", routing.CapabilityWebSearch, "primary: "},
		{"Help me write a function using Claude", routing.CapabilitySecondary, "secondary: "},
		{"Use ollama and write a function using Claude", routing.CapabilityOffline, "offline: "},
		{"Tell me something interesting", routing.CapabilityGeneral, "primary: "},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := svc.Ask(context.Background(), "", tt.query)
			require.NoError(t, err)
			assert.Equal(t, agent.StateCompleted, res.State)
			assert.Equal(t, tt.want, res.Capability)
			assert.Equal(t, tt.prefix+tt.query, res.Answer)
		})
	}
}

func TestService_WebSearchInjectsResults(t *testing.T) {
	chat := mocks.NewChatServer(t)
	svc := newTestService(t, chat)

	_, err := svc.Ask(context.Background(), "s1", "What's the latest news on AI?")
	require.NoError(t, err)

	reqs := chat.Requests()
	require.Len(t, reqs, 1)
	var system []string
	for _, m := range reqs[0].Messages {
		if m.Role == "system" {
			system = append(system, m.Content)
		}
	}
	require.Len(t, system, 2)
	assert.Contains(t, system[1], "https://example.com/ai-news")
}

func TestService_FileSearchUsesIndex(t *testing.T) {
	chat := mocks.NewChatServer(t)
	svc := newTestService(t, chat)

	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "yoga.md"), []byte("# Yoga\nDownward dog and warrior poses."), 0o600))
	_, err := svc.Store.IndexDir(context.Background(), docs)
	require.NoError(t, err)

	res, err := svc.Ask(context.Background(), "s1", "Search my documents for yoga poses")
	require.NoError(t, err)
	assert.Equal(t, routing.CapabilityFileSearch, res.Capability)

	reqs := chat.Requests()
	require.Len(t, reqs, 1)
	found := false
	for _, m := range reqs[0].Messages {
		if m.Role == "system" && strings.Contains(m.Content, "yoga.md") {
			found = true
		}
	}
	assert.True(t, found, "search hits should be in the prompt")
}

func TestService_BackendFailureIsFolded(t *testing.T) {
	chat := mocks.NewChatServer(t)
	chat.FailWith(http.StatusUnauthorized)
	svc := newTestService(t, chat)

	res, err := svc.Ask(context.Background(), "s1", "Tell me something interesting")
	require.NoError(t, err)
	assert.Equal(t, agent.StateFailed, res.State)
	assert.Equal(t, capability.KindAuthMissing, res.FailureKind())

	sess, ok := svc.Sessions.Get("s1")
	require.True(t, ok)
	assert.Equal(t, 2, sess.Context().Len())
	assert.Equal(t, 2, sess.Log().Len())
}

func TestService_CleanupIdleSessions(t *testing.T) {
	chat := mocks.NewChatServer(t)
	svc := newTestService(t, chat)

	svc.Sessions.Create()
	assert.Equal(t, 0, svc.CleanupIdleSessions(), "zero TTL disables cleanup")

	svc.idleTTL = time.Nanosecond
	time.Sleep(time.Millisecond)
	assert.Equal(t, 1, svc.CleanupIdleSessions())
	assert.Equal(t, 0, svc.Sessions.Len())
}

package ai

import (
	"errors"
	"fmt"
	"time"

	"github.com/czapol/multi-agent-playground/ai/capability"
	"github.com/czapol/multi-agent-playground/ai/core/llm"
	"github.com/czapol/multi-agent-playground/ai/core/websearch"
	"github.com/czapol/multi-agent-playground/internal/profile"
)

// Config is everything NewService needs to wire the router.
type Config struct {
	Primary   llm.Config
	Secondary llm.Config
	Offline   llm.Config

	Adapter capability.AdapterConfig
	Search  websearch.Config

	// DSN of the local document index used by FILE_SEARCH.
	DSN string
	// ConfigDir holds routing.yaml, instructions.yaml and <capability>.md files.
	ConfigDir string

	HistoryWindow  int
	SessionIdleTTL time.Duration
	// RuntimeMetrics adds Go and process collectors to /metrics.
	RuntimeMetrics bool
}

// NewConfigFromProfile creates the wiring config from a validated profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	adapter := capability.DefaultAdapterConfig()
	adapter.Timeout = time.Duration(p.AdapterTimeout) * time.Second
	adapter.RatePerSecond = p.RatePerSecond
	adapter.MaxRetries = p.MaxRetries

	return &Config{
		Primary:   llmConfig(p.Primary),
		Secondary: llmConfig(p.Secondary),
		Offline:   llmConfig(p.Offline),
		Adapter:   adapter,
		Search: websearch.Config{
			Endpoint:   p.SearchEndpoint,
			MaxResults: p.SearchMaxResults,
		},
		DSN:            p.DSN,
		ConfigDir:      p.ConfigDir,
		HistoryWindow:  p.HistoryWindow,
		SessionIdleTTL: time.Duration(p.SessionIdleMinutes) * time.Minute,
		RuntimeMetrics: !p.IsDev(),
	}
}

func llmConfig(p profile.Provider) llm.Config {
	return llm.Config{
		Provider:    p.Name,
		Model:       p.Model,
		APIKey:      p.APIKey,
		BaseURL:     p.BaseURL,
		MaxTokens:   2048,
		Temperature: 0.7,
		Timeout:     p.Timeout,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DSN == "" {
		return errors.New("document index DSN is required")
	}
	for name, l := range map[string]llm.Config{
		"primary":   c.Primary,
		"secondary": c.Secondary,
		"offline":   c.Offline,
	} {
		if !llm.IsKnownProvider(l.Provider) {
			return fmt.Errorf("%s provider %q is not supported", name, l.Provider)
		}
	}
	return nil
}

package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Provider is the connection settings of one backend family.
// All providers speak the OpenAI-compatible chat protocol.
type Provider struct {
	Name    string // openai, anthropic, ollama, openrouter, deepseek, compatible
	APIKey  string
	BaseURL string // optional, has default per provider
	Model   string // optional, has default per provider
	Timeout int    // request timeout in seconds (default: 120)
}

// KeyRequired reports whether the provider refuses requests without an API key.
func (p Provider) KeyRequired() bool {
	d, ok := llmProviderDefaults[p.Name]
	return ok && !d.KeyOptional
}

// Profile is configuration to start the playground.
type Profile struct {
	// Routing backends
	Primary   Provider
	Secondary Provider
	Offline   Provider

	// Web search
	SearchEndpoint   string
	SearchMaxResults int

	// Adapter behavior
	AdapterTimeout int     // per-call timeout in seconds (default: 60)
	RatePerSecond  float64 // per-capability request rate, 0 disables limiting
	MaxRetries     int     // retries for RATE_LIMITED failures

	// Sessions
	HistoryWindow        int // turns replayed to the backend (default: 20)
	MaxConcurrentQueries int // server-wide in-flight query bound (default: 8)
	SessionIdleMinutes   int // idle sessions are dropped after this (default: 60)

	// Other configurations
	Mode      string
	Addr      string
	Port      int
	Data      string
	DSN       string
	ConfigDir string
	DocsDir   string
	LogLevel  string
	LogFormat string
	Version   string
}

// ConfigurationError reports a setting that prevents startup.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// Provider default configurations.
// keyEnv is the vendor variable read when the PLAYGROUND_* key is unset.
var llmProviderDefaults = map[string]struct {
	BaseURL     string
	Model       string
	keyEnv      string
	KeyOptional bool
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
		keyEnv:  "OPENAI_API_KEY",
	},
	"anthropic": {
		BaseURL: "https://api.anthropic.com/v1/",
		Model:   "claude-sonnet-4-5",
		keyEnv:  "ANTHROPIC_API_KEY",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "openai/gpt-4o",
		keyEnv:  "OPENROUTER_API_KEY",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
		keyEnv:  "DEEPSEEK_API_KEY",
	},
	"ollama": {
		BaseURL:     "http://localhost:11434/v1",
		Model:       "llama3.1",
		KeyOptional: true,
	},
	// Any OpenAI-compatible server; base URL and model must be given.
	"compatible": {KeyOptional: true},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		slog.Warn("ignoring non-numeric env value", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		slog.Warn("ignoring non-numeric env value", "key", key, "value", value)
	}
	return defaultValue
}

// providerFromEnv reads PLAYGROUND_<PREFIX>_* and fills defaults for known providers.
func providerFromEnv(prefix, defaultProvider string) Provider {
	p := Provider{
		Name:    strings.ToLower(getEnvOrDefault("PLAYGROUND_"+prefix+"_PROVIDER", defaultProvider)),
		APIKey:  getEnvOrDefault("PLAYGROUND_"+prefix+"_API_KEY", ""),
		BaseURL: getEnvOrDefault("PLAYGROUND_"+prefix+"_BASE_URL", ""),
		Model:   getEnvOrDefault("PLAYGROUND_"+prefix+"_MODEL", ""),
		Timeout: getEnvOrDefaultInt("PLAYGROUND_"+prefix+"_TIMEOUT_SECONDS", 120),
	}
	defaults, ok := llmProviderDefaults[p.Name]
	if !ok {
		// Validate reports it.
		return p
	}
	if p.APIKey == "" && defaults.keyEnv != "" {
		p.APIKey = os.Getenv(defaults.keyEnv)
	}
	if p.BaseURL == "" {
		p.BaseURL = defaults.BaseURL
	}
	if p.Model == "" {
		p.Model = defaults.Model
	}
	return p
}

// FromEnv loads backend configuration from environment variables.
// Fields set earlier from flags are left alone.
func (p *Profile) FromEnv() {
	p.Primary = providerFromEnv("PRIMARY", "openai")
	p.Secondary = providerFromEnv("SECONDARY", "anthropic")
	p.Offline = providerFromEnv("OFFLINE", "ollama")

	p.SearchEndpoint = getEnvOrDefault("PLAYGROUND_SEARCH_ENDPOINT", "https://html.duckduckgo.com/html/")
	p.SearchMaxResults = getEnvOrDefaultInt("PLAYGROUND_SEARCH_MAX_RESULTS", 5)

	p.AdapterTimeout = getEnvOrDefaultInt("PLAYGROUND_ADAPTER_TIMEOUT_SECONDS", 60)
	p.RatePerSecond = getEnvOrDefaultFloat("PLAYGROUND_RATE_PER_SECOND", 2)
	p.MaxRetries = getEnvOrDefaultInt("PLAYGROUND_MAX_RETRIES", 2)

	p.SessionIdleMinutes = getEnvOrDefaultInt("PLAYGROUND_SESSION_IDLE_MINUTES", 60)
	if p.HistoryWindow == 0 {
		p.HistoryWindow = getEnvOrDefaultInt("PLAYGROUND_HISTORY_WINDOW", 20)
	}
	if p.MaxConcurrentQueries == 0 {
		p.MaxConcurrentQueries = getEnvOrDefaultInt("PLAYGROUND_MAX_CONCURRENT_QUERIES", 8)
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Relative paths are taken from the working directory.
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", err
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(absDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// ValidateStorage resolves the data directory and the document index DSN.
// Commands that never call a backend (index) stop here.
func (p *Profile) ValidateStorage() error {
	switch p.Mode {
	case "":
		p.Mode = "dev"
	case "dev", "prod":
	default:
		return &ConfigurationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q, want dev or prod", p.Mode)}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return &ConfigurationError{Field: "data", Reason: err.Error()}
	}
	p.Data = dataDir

	if p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("playground_%s.db", p.Mode))
	}
	if p.ConfigDir == "" {
		p.ConfigDir = dataDir
	}
	return nil
}

// Validate checks everything a backend-calling command needs.
// A missing primary API key is fatal; the other families degrade to
// AUTH_MISSING answers at query time.
func (p *Profile) Validate() error {
	if err := p.ValidateStorage(); err != nil {
		return err
	}

	families := []struct {
		field string
		p     Provider
	}{
		{"PLAYGROUND_PRIMARY", p.Primary},
		{"PLAYGROUND_SECONDARY", p.Secondary},
		{"PLAYGROUND_OFFLINE", p.Offline},
	}
	for _, f := range families {
		if _, ok := llmProviderDefaults[f.p.Name]; !ok {
			return &ConfigurationError{Field: f.field + "_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", f.p.Name)}
		}
		if f.p.Timeout <= 0 {
			return &ConfigurationError{Field: f.field + "_TIMEOUT_SECONDS", Reason: "must be positive"}
		}
		if f.p.BaseURL == "" || f.p.Model == "" {
			return &ConfigurationError{Field: f.field + "_BASE_URL", Reason: fmt.Sprintf("provider %q needs a base URL and model", f.p.Name)}
		}
	}

	if p.Primary.APIKey == "" && p.Primary.KeyRequired() {
		return &ConfigurationError{Field: "PLAYGROUND_PRIMARY_API_KEY", Reason: "primary provider API key is not set"}
	}
	if p.AdapterTimeout <= 0 {
		return &ConfigurationError{Field: "PLAYGROUND_ADAPTER_TIMEOUT_SECONDS", Reason: "must be positive"}
	}
	if p.RatePerSecond < 0 {
		return &ConfigurationError{Field: "PLAYGROUND_RATE_PER_SECOND", Reason: "must not be negative"}
	}
	if p.MaxRetries < 0 {
		return &ConfigurationError{Field: "PLAYGROUND_MAX_RETRIES", Reason: "must not be negative"}
	}
	if p.HistoryWindow < 0 {
		return &ConfigurationError{Field: "history-window", Reason: "must not be negative"}
	}
	if p.MaxConcurrentQueries <= 0 {
		return &ConfigurationError{Field: "max-concurrent-queries", Reason: "must be positive"}
	}
	return nil
}

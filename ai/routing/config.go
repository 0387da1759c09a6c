package routing

import (
	"time"

	"github.com/google/uuid"
)

// Signal is a content vocabulary category scored by the RuleMatcher.
type Signal string

const (
	SignalCoding    Signal = "coding"
	SignalCreative  Signal = "creative"
	SignalDocuments Signal = "documents"
	SignalWeb       Signal = "web"
)

// ProviderNames lists the words that name each provider explicitly.
type ProviderNames struct {
	Primary   []string `yaml:"primary"`
	Secondary []string `yaml:"secondary"`
	Offline   []string `yaml:"offline"`
}

// RuleConfig is an operator-defined content rule. Expr is a CEL boolean
// expression over query, raw, turns and last_capability.
type RuleConfig struct {
	Name   string `yaml:"name"`
	Expr   string `yaml:"expr"`
	Family Family `yaml:"family"`
}

// Config configures both routers. It is usually loaded from routing.yaml;
// fields tagged "-" are wired in code.
type Config struct {
	Providers ProviderNames       `yaml:"providers"`
	Keywords  map[Signal][]string `yaml:"keywords"`
	FollowUps []string            `yaml:"follow_ups"`
	Rules     []RuleConfig        `yaml:"rules"`

	Cache *RouterCache     `yaml:"-"`
	Now   func() time.Time `yaml:"-"`
	NewID func() string    `yaml:"-"`
}

// DefaultConfig returns the built-in provider names and no extra rules.
func DefaultConfig() Config {
	return Config{
		Providers: ProviderNames{
			Primary:   []string{"chatgpt", "openai", "gpt", "gpt-4", "gpt-4o", "gpt-5"},
			Secondary: []string{"claude", "anthropic"},
			Offline:   []string{"ollama", "llama"},
		},
	}
}

func (c Config) clock() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}

func (c Config) idGen() func() string {
	if c.NewID != nil {
		return c.NewID
	}
	return uuid.NewString
}

// withDefaults fills empty provider lists from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.Providers.Primary) == 0 {
		c.Providers.Primary = def.Providers.Primary
	}
	if len(c.Providers.Secondary) == 0 {
		c.Providers.Secondary = def.Providers.Secondary
	}
	if len(c.Providers.Offline) == 0 {
		c.Providers.Offline = def.Providers.Offline
	}
	return c
}

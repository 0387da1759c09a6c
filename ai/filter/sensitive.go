// Package filter masks sensitive values (keys, emails, card and phone
// numbers, IP addresses) in query text before it reaches the logs.
package filter

import (
	"regexp"
	"strings"
	"sync"
)

// FilterType defines the type of sensitive information to filter.
type FilterType int

const (
	// APIKey filters provider secret keys such as sk-....
	APIKey FilterType = iota

	// Email filters email addresses.
	Email

	// IP filters IPv4 addresses.
	IP

	// BankCard filters 13-19 digit card numbers.
	BankCard

	// Phone filters mobile numbers (CN mobile and E.164).
	Phone
)

func (ft FilterType) String() string {
	switch ft {
	case APIKey:
		return "api_key"
	case Email:
		return "email"
	case IP:
		return "ip"
	case BankCard:
		return "bank_card"
	case Phone:
		return "phone"
	}
	return "unknown"
}

// Application order. Earlier types mask digits that later patterns would
// otherwise match a second time.
var allTypes = []FilterType{APIKey, Email, IP, BankCard, Phone}

var patterns = map[FilterType]*regexp.Regexp{
	APIKey:   regexp.MustCompile(`\b(?:sk|pk|rk)-[A-Za-z0-9_-]{16,}`),
	Email:    regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`),
	IP:       regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d\d?)\.){3}(?:25[0-5]|2[0-4]\d|1?\d\d?)\b`),
	BankCard: regexp.MustCompile(`\b\d{13,19}\b`),
	Phone:    regexp.MustCompile(`\+\d{10,15}\b|\b1[3-9]\d{9}\b`),
}

// FilterConfig configures the sensitive information filter.
type FilterConfig struct {
	// Enabled filter types; empty enables all.
	Enabled []FilterType

	// MaskChar is the character used for masking.
	MaskChar rune

	// KeepFirstN keeps first N characters unmasked.
	KeepFirstN int

	// KeepLastN keeps last N characters unmasked.
	KeepLastN int
}

// DefaultConfig returns default filter configuration.
func DefaultConfig() FilterConfig {
	return FilterConfig{
		Enabled:    allTypes,
		MaskChar:   '*',
		KeepFirstN: 3,
		KeepLastN:  4,
	}
}

// Filter filters sensitive information from text. It is safe for
// concurrent use.
type Filter struct {
	config FilterConfig
	types  []FilterType
}

// NewFilter creates a new sensitive information filter.
func NewFilter(cfg FilterConfig) *Filter {
	enabled := make(map[FilterType]bool, len(cfg.Enabled))
	for _, ft := range cfg.Enabled {
		enabled[ft] = true
	}
	if cfg.MaskChar == 0 {
		cfg.MaskChar = '*'
	}

	f := &Filter{config: cfg}
	for _, ft := range allTypes {
		if len(enabled) == 0 || enabled[ft] {
			f.types = append(f.types, ft)
		}
	}
	return f
}

// DefaultFilter creates a filter with default configuration.
func DefaultFilter() *Filter {
	return NewFilter(DefaultConfig())
}

var defaultFilter = sync.OnceValue(DefaultFilter)

// Redact masks text with the default filter.
func Redact(text string) string {
	return defaultFilter().FilterText(text)
}

// Match represents a single match found in text.
type Match struct {
	Type     FilterType
	Original string
	Replaced string
}

// FilterText masks every enabled type in text.
func (f *Filter) FilterText(text string) string {
	for _, ft := range f.types {
		text = patterns[ft].ReplaceAllStringFunc(text, func(s string) string {
			return f.mask(s, ft)
		})
	}
	return text
}

// FindMatches reports what FilterText would replace, in application order.
func (f *Filter) FindMatches(text string) []Match {
	var matches []Match
	for _, ft := range f.types {
		text = patterns[ft].ReplaceAllStringFunc(text, func(s string) string {
			masked := f.mask(s, ft)
			matches = append(matches, Match{Type: ft, Original: s, Replaced: masked})
			return masked
		})
	}
	return matches
}

func (f *Filter) mask(s string, ft FilterType) string {
	switch ft {
	case Email:
		return maskEmail(s, f.config.MaskChar)
	case IP:
		first, _, _ := strings.Cut(s, ".")
		m := string(f.config.MaskChar)
		return first + "." + m + "." + m + "." + m
	}
	return maskMiddle(s, f.config.KeepFirstN, f.config.KeepLastN, f.config.MaskChar)
}

// maskMiddle keeps the first and last characters and masks the rest.
// Strings too short to keep both ends are masked entirely.
func maskMiddle(s string, keepFirst, keepLast int, maskChar rune) string {
	runes := []rune(s)
	if len(runes) <= keepFirst+keepLast {
		return strings.Repeat(string(maskChar), len(runes))
	}
	for i := keepFirst; i < len(runes)-keepLast; i++ {
		runes[i] = maskChar
	}
	return string(runes)
}

// maskEmail keeps the first character of the local part and the domain.
func maskEmail(email string, maskChar rune) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return email
	}
	runes := []rune(local)
	for i := 1; i < len(runes); i++ {
		runes[i] = maskChar
	}
	return string(runes) + "@" + domain
}

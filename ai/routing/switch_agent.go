package routing

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/czapol/multi-agent-playground/ai/internal/strutil"
)

// maxQueryEcho bounds the query text copied into a decision.
const maxQueryEcho = 200

// SwitchAgent is the root dispatcher. It maps every query to exactly one
// Family using a fixed precedence:
//
//  1. offline provider named, or offline wording
//  2. secondary provider named
//  3. primary provider named
//  4. content: CEL rules, follow-up continuity, vocabulary scoring, fallback
type SwitchAgent struct {
	offline   *phraseMatcher
	secondary *phraseMatcher
	primary   *phraseMatcher
	followUps map[string]bool
	matcher   *RuleMatcher
	rules     *CELRules
	cache     *RouterCache
	now       func() time.Time
	newID     func() string
}

// NewSwitchAgent builds a Switch Agent. It fails only when a CEL rule
// does not compile.
func NewSwitchAgent(cfg Config) (*SwitchAgent, error) {
	cfg = cfg.withDefaults()
	rules, err := NewCELRules(cfg.Rules)
	if err != nil {
		return nil, err
	}

	offline := append([]string{}, cfg.Providers.Offline...)
	offline = append(offline, offlinePhrases...)

	return &SwitchAgent{
		offline:   newNameMatcher(offline),
		secondary: newNameMatcher(cfg.Providers.Secondary),
		primary:   newNameMatcher(cfg.Providers.Primary),
		followUps: followUpSet(cfg.FollowUps),
		matcher:   NewRuleMatcher(cfg.Keywords),
		rules:     rules,
		cache:     cfg.Cache,
		now:       cfg.clock(),
		newID:     cfg.idGen(),
	}, nil
}

// Classify decides the family for q and appends exactly one decision to rec.
// The returned decision is the recorded copy.
func (a *SwitchAgent) Classify(q Query, rec Recorder) Decision {
	d := a.Decide(q)
	d.ID = a.newID()
	d.Timestamp = a.now()
	if rec != nil {
		d = rec.Record(d)
	}

	slog.Debug("query switched",
		"input", strutil.Truncate(q.Text, 50),
		"family", d.Target,
		"method", d.Method,
		"confidence", d.Confidence,
		"fallback", d.Fallback)
	return d
}

// Decide is the pure part of Classify: the same query text and context
// always yield the same decision. ID, Seq and Timestamp are left empty.
func (a *SwitchAgent) Decide(q Query) Decision {
	view := viewOf(q)
	normalized := strutil.Normalize(q.Text)
	key := a.contextKey(view)

	d, ok := a.cache.Get(DecidedBySwitch, normalized, key)
	if !ok {
		d = a.decide(normalized, q.Text, view)
		d.DecidedBy = DecidedBySwitch
		a.cache.Set(DecidedBySwitch, normalized, key, d)
	}
	d.Query = strutil.Truncate(q.Text, maxQueryEcho)
	return d
}

func (a *SwitchAgent) decide(normalized, raw string, view ContextView) Decision {
	if phrase, ok := a.offline.Find(normalized); ok {
		return explicit(FamilyOffline, fmt.Sprintf("offline provider requested (%q)", phrase))
	}
	if phrase, ok := a.secondary.Find(normalized); ok {
		return explicit(FamilySecondary, fmt.Sprintf("secondary provider named (%q)", phrase))
	}
	if phrase, ok := a.primary.Find(normalized); ok {
		return explicit(FamilyPrimary, fmt.Sprintf("primary provider named (%q)", phrase))
	}

	if family, rule, ok := a.rules.Evaluate(normalized, raw, view); ok {
		return Decision{
			Target:     string(family),
			Method:     MethodCEL,
			Confidence: 0.9,
			Rationale:  fmt.Sprintf("content rule %q matched", rule),
		}
	}

	if a.followUps[normalized] {
		if last, ok := view.LastCapability(); ok {
			return Decision{
				Target:     string(last.Family()),
				Method:     MethodFollowUp,
				Confidence: 0.8,
				Rationale:  fmt.Sprintf("follow-up continues previous route (%s)", last),
			}
		}
	}

	result := a.matcher.Match(normalized)
	secondary := result.Score(SignalCoding, SignalCreative)
	primary := result.Score(SignalDocuments, SignalWeb)
	switch {
	case secondary > primary:
		return Decision{
			Target:     string(FamilySecondary),
			Method:     MethodKeyword,
			Confidence: calculateConfidence(secondary, secondary-primary),
			Rationale:  "coding/creative vocabulary: " + strings.Join(result.Keywords, ", "),
		}
	case primary > 0:
		return Decision{
			Target:     string(FamilyPrimary),
			Method:     MethodKeyword,
			Confidence: calculateConfidence(primary, primary-secondary),
			Rationale:  "document/web vocabulary: " + strings.Join(result.Keywords, ", "),
		}
	}

	return Decision{
		Target:     string(FamilyPrimary),
		Method:     MethodFallback,
		Confidence: 0.5,
		Rationale:  "fallback: no provider named and no strong content signal",
		Fallback:   true,
	}
}

// contextKey encodes the context facts decide reads.
func (a *SwitchAgent) contextKey(view ContextView) string {
	last, _ := view.LastCapability()
	if a.rules.Len() == 0 {
		return string(last)
	}
	return string(last) + "|" + strconv.Itoa(view.TurnCount())
}

func explicit(f Family, rationale string) Decision {
	return Decision{
		Target:     string(f),
		Method:     MethodExplicit,
		Confidence: 1,
		Rationale:  rationale,
	}
}

func followUpSet(extra []string) map[string]bool {
	set := make(map[string]bool, len(defaultFollowUps)+len(extra))
	for _, f := range defaultFollowUps {
		set[f] = true
	}
	for _, f := range extra {
		if n := strutil.Normalize(f); n != "" {
			set[n] = true
		}
	}
	return set
}

package routing

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/czapol/multi-agent-playground/ai/internal/strutil"
)

// SubRouter picks a capability inside the primary family. Document
// vocabulary wins ties against current-events vocabulary.
type SubRouter struct {
	followUps map[string]bool
	matcher   *RuleMatcher
	cache     *RouterCache
	now       func() time.Time
	newID     func() string
}

// NewSubRouter builds a Sub-Router.
func NewSubRouter(cfg Config) *SubRouter {
	return &SubRouter{
		followUps: followUpSet(cfg.FollowUps),
		matcher:   NewRuleMatcher(cfg.Keywords),
		cache:     cfg.Cache,
		now:       cfg.clock(),
		newID:     cfg.idGen(),
	}
}

// Route decides the capability for q and appends exactly one decision to rec.
func (r *SubRouter) Route(q Query, rec Recorder) Decision {
	d := r.Decide(q)
	d.ID = r.newID()
	d.Timestamp = r.now()
	if rec != nil {
		d = rec.Record(d)
	}

	slog.Debug("query sub-routed",
		"input", strutil.Truncate(q.Text, 50),
		"capability", d.Target,
		"method", d.Method,
		"fallback", d.Fallback)
	return d
}

// Decide is the pure part of Route.
func (r *SubRouter) Decide(q Query) Decision {
	view := viewOf(q)
	normalized := strutil.Normalize(q.Text)
	last, _ := view.LastCapability()

	d, ok := r.cache.Get(DecidedBySubRouter, normalized, string(last))
	if !ok {
		d = r.decide(normalized, view)
		d.DecidedBy = DecidedBySubRouter
		r.cache.Set(DecidedBySubRouter, normalized, string(last), d)
	}
	d.Query = strutil.Truncate(q.Text, maxQueryEcho)
	return d
}

func (r *SubRouter) decide(normalized string, view ContextView) Decision {
	if r.followUps[normalized] {
		if last, ok := view.LastCapability(); ok && last.Family() == FamilyPrimary {
			return Decision{
				Target:     string(last),
				Method:     MethodFollowUp,
				Confidence: 0.8,
				Rationale:  fmt.Sprintf("follow-up continues previous capability (%s)", last),
			}
		}
	}

	result := r.matcher.Match(normalized)
	docs := result.Score(SignalDocuments)
	web := result.Score(SignalWeb)
	switch {
	case docs > 0 && docs >= web:
		return Decision{
			Target:     string(CapabilityFileSearch),
			Method:     MethodKeyword,
			Confidence: calculateConfidence(docs, docs-web),
			Rationale:  "document vocabulary: " + strings.Join(result.Keywords, ", "),
		}
	case web > 0:
		return Decision{
			Target:     string(CapabilityWebSearch),
			Method:     MethodKeyword,
			Confidence: calculateConfidence(web, web-docs),
			Rationale:  "current-events vocabulary: " + strings.Join(result.Keywords, ", "),
		}
	}

	return Decision{
		Target:     string(CapabilityGeneral),
		Method:     MethodFallback,
		Confidence: 0.5,
		Rationale:  "fallback: no document or current-events signal",
		Fallback:   true,
	}
}

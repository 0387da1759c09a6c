// Package routing implements the two-level query router: the Switch Agent
// that picks a provider family and the Sub-Router that picks a capability
// inside the primary family.
package routing

import (
	"strings"
	"time"
)

// Family is the top-level routing label produced by the Switch Agent.
type Family string

const (
	// FamilyPrimary is the primary provider family; its queries are sub-routed.
	FamilyPrimary Family = "PRIMARY_FAMILY"
	// FamilySecondary is the secondary (creative/coding) provider.
	FamilySecondary Family = "SECONDARY_PROVIDER"
	// FamilyOffline is the local/offline provider.
	FamilyOffline Family = "OFFLINE_PROVIDER"
)

// Valid reports whether f is one of the three known families.
func (f Family) Valid() bool {
	switch f {
	case FamilyPrimary, FamilySecondary, FamilyOffline:
		return true
	}
	return false
}

// Terminal returns the capability a non-primary family dispatches to directly.
// The primary family has no terminal capability and returns false.
func (f Family) Terminal() (Capability, bool) {
	switch f {
	case FamilySecondary:
		return CapabilitySecondary, true
	case FamilyOffline:
		return CapabilityOffline, true
	}
	return "", false
}

// Capability is a concrete, invocable answering behavior.
// The set is closed: every switch over Capability lists all five values.
type Capability string

const (
	CapabilityGeneral    Capability = "GENERAL"
	CapabilityFileSearch Capability = "FILE_SEARCH"
	CapabilityWebSearch  Capability = "WEB_SEARCH"
	CapabilitySecondary  Capability = "SECONDARY"
	CapabilityOffline    Capability = "OFFLINE"
)

// AllCapabilities lists every capability in dispatch order.
var AllCapabilities = []Capability{
	CapabilityGeneral,
	CapabilityFileSearch,
	CapabilityWebSearch,
	CapabilitySecondary,
	CapabilityOffline,
}

// Family returns the provider family a capability belongs to.
func (c Capability) Family() Family {
	switch c {
	case CapabilityGeneral, CapabilityFileSearch, CapabilityWebSearch:
		return FamilyPrimary
	case CapabilitySecondary:
		return FamilySecondary
	case CapabilityOffline:
		return FamilyOffline
	}
	return ""
}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	return c.Family() != ""
}

// ID is the lower-case identifier used for instruction files, metrics
// labels and config keys (e.g. "file_search").
func (c Capability) ID() string {
	return strings.ToLower(string(c))
}

// ParseCapability accepts either the upper-case name or the lower-case ID.
func ParseCapability(s string) (Capability, bool) {
	c := Capability(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}

// DecidedBy names the router that produced a decision.
type DecidedBy string

const (
	DecidedBySwitch    DecidedBy = "switch"
	DecidedBySubRouter DecidedBy = "sub_router"
)

// Method records which rule produced a decision.
type Method string

const (
	MethodExplicit Method = "explicit"  // provider named in the query
	MethodCEL      Method = "cel"       // operator-defined content rule
	MethodFollowUp Method = "follow_up" // continues the previous route
	MethodKeyword  Method = "keyword"   // content vocabulary scoring
	MethodFallback Method = "fallback"  // no signal, default branch
)

// Decision is one immutable routing decision.
type Decision struct {
	ID         string    `json:"id"`
	Seq        int       `json:"seq"`
	DecidedBy  DecidedBy `json:"decided_by"`
	Target     string    `json:"target"`
	Method     Method    `json:"method"`
	Confidence float32   `json:"confidence"`
	Rationale  string    `json:"rationale,omitempty"`
	Fallback   bool      `json:"fallback"`
	Query      string    `json:"query"`
	Timestamp  time.Time `json:"timestamp"`
}

// Family returns the target as a Family; meaningful for Switch decisions.
func (d Decision) Family() Family {
	return Family(d.Target)
}

// Capability returns the target as a Capability; meaningful for Sub-Router decisions.
func (d Decision) Capability() Capability {
	return Capability(d.Target)
}

// ContextView is the read-only slice of the conversation the routers consult.
type ContextView interface {
	// TurnCount returns the number of turns recorded so far.
	TurnCount() int
	// LastCapability returns the capability that produced the most recent
	// assistant turn, if any.
	LastCapability() (Capability, bool)
}

// Query is one user query as seen by the routers.
type Query struct {
	Text      string
	ArrivedAt time.Time
	Context   ContextView
}

// Recorder receives decisions. The Decision Log implements it and returns
// the stored copy with its sequence number assigned.
type Recorder interface {
	Record(d Decision) Decision
}

// emptyView is used when a query carries no context.
type emptyView struct{}

func (emptyView) TurnCount() int                     { return 0 }
func (emptyView) LastCapability() (Capability, bool) { return "", false }

func viewOf(q Query) ContextView {
	if q.Context == nil {
		return emptyView{}
	}
	return q.Context
}

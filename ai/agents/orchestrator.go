package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/czapol/multi-agent-playground/ai/capability"
	"github.com/czapol/multi-agent-playground/ai/core/llm"
	"github.com/czapol/multi-agent-playground/ai/filter"
	"github.com/czapol/multi-agent-playground/ai/internal/strutil"
	"github.com/czapol/multi-agent-playground/ai/observability/logging"
	"github.com/czapol/multi-agent-playground/ai/routing"
	"github.com/czapol/multi-agent-playground/ai/tracing"
)

// State is the orchestrator state of a session.
type State string

const (
	StateAwaitingQuery State = "AWAITING_QUERY"
	StateSwitching     State = "SWITCHING"
	StateSubRouting    State = "SUB_ROUTING"
	StateDispatching   State = "DISPATCHING"
	StateCompleted     State = "COMPLETED"
	StateFailed        State = "FAILED"
)

// DefaultHistoryWindow bounds the turns replayed to a backend per query.
const DefaultHistoryWindow = 20

// Invoker dispatches one capability. *capability.Registry implements it.
type Invoker interface {
	Invoke(ctx context.Context, c routing.Capability, messages []llm.Message) capability.Outcome
}

// Observer receives routing and query metrics.
type Observer interface {
	RecordDecision(decidedBy, target, method string, fallback bool)
	RecordQuery(capability, state string, duration time.Duration)
}

// OrchestratorConfig wires the orchestrator.
type OrchestratorConfig struct {
	Switch    *routing.SwitchAgent
	SubRouter *routing.SubRouter
	Invoker   Invoker
	// Observer and Tracer are optional.
	Observer Observer
	Tracer   *tracing.Tracer
	// HistoryWindow <= 0 uses DefaultHistoryWindow.
	HistoryWindow int
	Now           func() time.Time
}

// Orchestrator drives one query at a time per session through
// SWITCHING, optional SUB_ROUTING, DISPATCHING and a terminal state.
type Orchestrator struct {
	switcher  *routing.SwitchAgent
	subRouter *routing.SubRouter
	invoker   Invoker
	observer  Observer
	tracer    *tracing.Tracer
	window    int
	now       func() time.Time
}

func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Switch == nil || cfg.SubRouter == nil || cfg.Invoker == nil {
		return nil, errors.New("orchestrator requires a switch agent, a sub-router and an invoker")
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{
		switcher:  cfg.Switch,
		subRouter: cfg.SubRouter,
		invoker:   cfg.Invoker,
		observer:  cfg.Observer,
		tracer:    cfg.Tracer,
		window:    cfg.HistoryWindow,
		now:       cfg.Now,
	}, nil
}

// Result is the outcome of one handled query.
type Result struct {
	SessionID  string                   `json:"session_id"`
	State      State                    `json:"state"`
	Capability routing.Capability       `json:"capability"`
	Answer     string                   `json:"answer,omitempty"`
	Failure    *capability.BackendError `json:"-"`
	Message    string                   `json:"message"`
	Decisions  []routing.Decision       `json:"decisions"`
	Duration   time.Duration            `json:"duration_ns"`
	TraceID    string                   `json:"trace_id,omitempty"`
}

// FailureKind returns the failure kind, or "" when the query completed.
func (r *Result) FailureKind() capability.Kind {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Kind
}

// Handle routes text, invokes exactly one capability and folds the outcome
// into the session. Backend failures produce a FAILED result, not an error;
// the only error is ErrSessionBusy.
func (o *Orchestrator) Handle(ctx context.Context, s *Session, text string) (*Result, error) {
	if !s.acquire() {
		return nil, ErrSessionBusy
	}
	defer s.release()

	start := o.now()
	ctx = logging.With(ctx, "session_id", s.ID)
	logger := logging.FromContext(ctx)
	trace, ctx := o.tracer.StartTrace(ctx, "query")
	trace.SetTag("session_id", s.ID)

	convo, dlog := s.Context(), s.Log()
	q := routing.Query{Text: text, ArrivedAt: start, Context: convo.View()}

	o.transition(logger, s, StateSwitching)
	convo.AppendUser(text)

	decisions := make([]routing.Decision, 0, 2)
	var sw routing.Decision
	_ = o.tracer.RecordPhase(trace, "switch", func() error {
		sw = o.switcher.Classify(q, dlog)
		return nil
	})
	decisions = append(decisions, sw)
	o.observe(sw)

	target, terminal := sw.Family().Terminal()
	if !terminal {
		o.transition(logger, s, StateSubRouting)
		var sub routing.Decision
		_ = o.tracer.RecordPhase(trace, "sub_route", func() error {
			sub = o.subRouter.Route(q, dlog)
			return nil
		})
		decisions = append(decisions, sub)
		o.observe(sub)
		target = sub.Capability()
	}
	trace.SetTag("capability", target.ID())

	o.transition(logger, s, StateDispatching)
	var out capability.Outcome
	dispatchErr := o.tracer.RecordPhase(trace, "dispatch", func() error {
		out = o.invoker.Invoke(ctx, target, convo.ToMessages(o.window))
		if !out.OK() {
			return out.Failure
		}
		return nil
	})
	o.tracer.Finish(trace, dispatchErr)

	res := &Result{
		SessionID:  s.ID,
		Capability: target,
		Decisions:  decisions,
		TraceID:    trace.ID(),
	}
	if out.OK() {
		res.State = StateCompleted
		res.Answer = out.Answer
		res.Message = out.Answer
		convo.AppendAssistant(out.Answer, target, "")
	} else {
		res.State = StateFailed
		res.Failure = out.Failure
		res.Message = FailureMessage(target, out.Failure.Kind)
		convo.AppendAssistant(res.Message, target, out.Failure.Kind)
	}
	res.Duration = o.now().Sub(start)

	o.transition(logger, s, res.State)
	if o.observer != nil {
		o.observer.RecordQuery(target.ID(), string(res.State), res.Duration)
	}
	logger.Info("query handled",
		"input", strutil.Truncate(filter.Redact(text), 80),
		"family", sw.Target,
		"capability", target,
		"state", res.State,
		"duration_ms", res.Duration.Milliseconds(),
	)
	o.transition(logger, s, StateAwaitingQuery)
	return res, nil
}

// Preview routes text against the session's current context without
// recording decisions or invoking a backend.
func (o *Orchestrator) Preview(s *Session, text string) []routing.Decision {
	q := routing.Query{Text: text, ArrivedAt: o.now(), Context: s.Context().View()}
	sw := o.switcher.Decide(q)
	out := []routing.Decision{sw}
	if _, terminal := sw.Family().Terminal(); !terminal {
		out = append(out, o.subRouter.Decide(q))
	}
	return out
}

func (o *Orchestrator) transition(logger *slog.Logger, s *Session, to State) {
	from := s.State()
	s.setState(to)
	logger.Debug("orchestrator: state transition", "from", from, "to", to)
}

func (o *Orchestrator) observe(d routing.Decision) {
	if o.observer == nil {
		return
	}
	o.observer.RecordDecision(string(d.DecidedBy), d.Target, string(d.Method), d.Fallback)
}

var displayNames = map[routing.Capability]string{
	routing.CapabilityGeneral:    "general assistant",
	routing.CapabilityFileSearch: "file search assistant",
	routing.CapabilityWebSearch:  "web search assistant",
	routing.CapabilitySecondary:  "creative and coding assistant",
	routing.CapabilityOffline:    "offline assistant",
}

// FailureMessage is the user-visible text for a failed capability.
func FailureMessage(c routing.Capability, kind capability.Kind) string {
	name, ok := displayNames[c]
	if !ok {
		name = "assistant"
	}
	switch kind {
	case capability.KindAuthMissing:
		return fmt.Sprintf("The %s is not configured: its API key is missing or was rejected.", name)
	case capability.KindConnectionRefused:
		return fmt.Sprintf("Could not connect to the %s. Check that the service is running and reachable.", name)
	case capability.KindTimeout:
		return fmt.Sprintf("The %s did not answer in time. Please try again.", name)
	case capability.KindRateLimited:
		return fmt.Sprintf("The %s is rate limited right now. Please wait a moment and try again.", name)
	default:
		return fmt.Sprintf("The %s failed to answer. Please try again later.", name)
	}
}

package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/czapol/multi-agent-playground/ai/capability"
	"github.com/czapol/multi-agent-playground/ai/core/llm"
	"github.com/czapol/multi-agent-playground/ai/routing"
)

type invocation struct {
	capability routing.Capability
	messages   []llm.Message
}

// fakeInvoker answers "answer from <id>" unless a failure is configured.
type fakeInvoker struct {
	mu       sync.Mutex
	calls    []invocation
	failures map[routing.Capability]capability.Kind
	started  chan struct{}
	release  chan struct{}
}

func newFakeInvoker() *fakeInvoker {
	return &fakeInvoker{failures: make(map[routing.Capability]capability.Kind)}
}

func (f *fakeInvoker) Invoke(ctx context.Context, c routing.Capability, msgs []llm.Message) capability.Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, invocation{c, msgs})
	kind, fail := f.failures[c]
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}
	if fail {
		return capability.Outcome{Capability: c, Failure: &capability.BackendError{Kind: kind}}
	}
	return capability.Outcome{Capability: c, Answer: "answer from " + c.ID(), Attempts: 1}
}

func (f *fakeInvoker) invocations() []invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]invocation(nil), f.calls...)
}

type recordedQuery struct {
	capability string
	state      string
}

type fakeObserver struct {
	mu        sync.Mutex
	decisions []string
	queries   []recordedQuery
}

func (o *fakeObserver) RecordDecision(decidedBy, target, method string, fallback bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decisions = append(o.decisions, decidedBy+":"+target)
}

func (o *fakeObserver) RecordQuery(c, state string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queries = append(o.queries, recordedQuery{c, state})
}

func newTestOrchestrator(t *testing.T, inv Invoker, obs Observer) *Orchestrator {
	t.Helper()
	cfg := routing.DefaultConfig()
	sw, err := routing.NewSwitchAgent(cfg)
	require.NoError(t, err)
	o, err := NewOrchestrator(OrchestratorConfig{
		Switch:    sw,
		SubRouter: routing.NewSubRouter(cfg),
		Invoker:   inv,
		Observer:  obs,
	})
	require.NoError(t, err)
	return o
}

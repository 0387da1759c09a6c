package capability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/czapol/multi-agent-playground/ai/core/llm"
	"github.com/czapol/multi-agent-playground/ai/routing"
)

// Backend produces an answer for the conversation under the given instructions.
type Backend interface {
	Call(ctx context.Context, instructions string, messages []llm.Message) (string, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, instructions string, messages []llm.Message) (string, error)

func (f BackendFunc) Call(ctx context.Context, instructions string, messages []llm.Message) (string, error) {
	return f(ctx, instructions, messages)
}

// InstructionSource resolves the system instructions for a capability id.
// It never fails; callers get a built-in default when nothing is configured.
type InstructionSource interface {
	Load(id string) string
}

// Observer receives one call per invocation. kind is "" on success.
type Observer interface {
	ObserveInvocation(capability string, kind string, duration time.Duration)
}

// AdapterConfig bounds one adapter.
type AdapterConfig struct {
	// Timeout covers the whole invocation including retries.
	Timeout time.Duration
	// RatePerSecond <= 0 disables limiting.
	RatePerSecond float64
	Burst         int
	// MaxRetries applies to RATE_LIMITED failures only.
	MaxRetries  int
	BaseBackoff time.Duration
}

// DefaultAdapterConfig returns the default per-capability limits.
func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Timeout:       60 * time.Second,
		RatePerSecond: 2,
		Burst:         4,
		MaxRetries:    2,
		BaseBackoff:   500 * time.Millisecond,
	}
}

// Adapter wraps a Backend with instructions, limiting, timeout and retries.
type Adapter struct {
	capability   routing.Capability
	backend      Backend
	instructions InstructionSource
	observer     Observer
	limiter      *rate.Limiter
	cfg          AdapterConfig
}

// NewAdapter creates an adapter. instructions and observer may be nil.
func NewAdapter(c routing.Capability, backend Backend, instructions InstructionSource, observer Observer, cfg AdapterConfig) *Adapter {
	def := DefaultAdapterConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Adapter{
		capability:   c,
		backend:      backend,
		instructions: instructions,
		observer:     observer,
		limiter:      rate.NewLimiter(limit, cfg.Burst),
		cfg:          cfg,
	}
}

// Capability returns the capability this adapter serves.
func (a *Adapter) Capability() routing.Capability {
	return a.capability
}

// Invoke runs the backend once, retrying only rate-limited failures while
// the deadline allows. It never returns an error: failures are in the Outcome.
func (a *Adapter) Invoke(ctx context.Context, messages []llm.Message) Outcome {
	start := time.Now()
	id := a.capability.ID()

	instructions := ""
	if a.instructions != nil {
		instructions = a.instructions.Load(id)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	out := a.run(ctx, instructions, messages)
	out.Duration = time.Since(start)

	if a.observer != nil {
		a.observer.ObserveInvocation(id, string(out.FailureKind()), out.Duration)
	}
	if out.OK() {
		slog.Debug("capability invoked", "capability", id, "attempts", out.Attempts, "duration_ms", out.Duration.Milliseconds())
	} else {
		slog.Warn("capability failed", "capability", id, "kind", out.Failure.Kind, "attempts", out.Attempts, "error", out.Failure.Detail)
	}
	return out
}

func (a *Adapter) run(ctx context.Context, instructions string, messages []llm.Message) Outcome {
	attempts := 0
	for retry := 0; ; retry++ {
		if err := a.limiter.Wait(ctx); err != nil {
			out := failed(a.capability, limiterError(ctx, err))
			out.Attempts = attempts
			return out
		}

		attempts++
		answer, err := a.backend.Call(ctx, instructions, messages)
		if err == nil {
			return Outcome{Capability: a.capability, Answer: answer, Attempts: attempts}
		}

		be := classifyCall(ctx, err)
		if !be.Kind.Retryable() || retry >= a.cfg.MaxRetries {
			out := failed(a.capability, be)
			out.Attempts = attempts
			return out
		}

		delay := CalculateBackoff(a.cfg.BaseBackoff, retry+1)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= delay {
			out := failed(a.capability, be)
			out.Attempts = attempts
			return out
		}
		slog.Debug("capability retrying", "capability", a.capability.ID(), "attempt", attempts, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			out := failed(a.capability, classifyCall(ctx, ctx.Err()))
			out.Attempts = attempts
			return out
		case <-timer.C:
		}
	}
}

// classifyCall treats any failure after the invocation deadline as TIMEOUT,
// whatever the backend reported.
func classifyCall(ctx context.Context, err error) *BackendError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		var be *BackendError
		if errors.As(err, &be) && be.Kind == KindTimeout {
			return be
		}
		return NewBackendError(KindTimeout, err)
	}
	return Classify(err)
}

func limiterError(ctx context.Context, err error) *BackendError {
	if ctx.Err() != nil {
		return classifyCall(ctx, ctx.Err())
	}
	return NewBackendError(KindRateLimited, err)
}

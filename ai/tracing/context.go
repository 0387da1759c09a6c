// Package tracing records the phases of one routed query (switch,
// sub-route, dispatch) and hands the finished trace to an exporter.
package tracing

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TraceStatus represents the status of a trace.
type TraceStatus int

const (
	StatusOK TraceStatus = iota
	StatusError
)

func (s TraceStatus) String() string {
	if s == StatusError {
		return "error"
	}
	return "ok"
}

// Phase represents a distinct phase in query handling.
type Phase struct {
	Name      string        `json:"name"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration_ns"`
	Status    TraceStatus   `json:"status"`
	// Error message if status is error.
	Error string `json:"error,omitempty"`
}

// TracingContext holds tracing information for a single query.
type TracingContext struct {
	TraceID       string
	OperationName string
	StartTime     time.Time
	EndTime       time.Time
	Status        TraceStatus

	phases []Phase
	tags   map[string]string

	// mu protects concurrent access.
	mu sync.RWMutex
}

// Tracer creates traces and exports them when they finish.
type Tracer struct {
	exporter   Exporter
	sampleRate float64
	maxPhases  int
	now        func() time.Time
}

// Config configures the tracer.
type Config struct {
	// Exporter handles trace export. Nil logs at debug level.
	Exporter Exporter

	// SampleRate (0-1] determines what fraction of traces to keep.
	SampleRate float64

	// MaxPhases caps the phases kept per trace.
	MaxPhases int

	Now func() time.Time
}

// DefaultConfig returns default tracer configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate: 1.0,
		MaxPhases:  16,
	}
}

// NewTracer creates a new tracer with the given configuration.
func NewTracer(cfg Config) *Tracer {
	if cfg.Exporter == nil {
		cfg.Exporter = NewLogExporter(nil)
	}
	if cfg.SampleRate <= 0 || cfg.SampleRate > 1 {
		cfg.SampleRate = 1.0
	}
	if cfg.MaxPhases <= 0 {
		cfg.MaxPhases = 16
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Tracer{
		exporter:   cfg.Exporter,
		sampleRate: cfg.SampleRate,
		maxPhases:  cfg.MaxPhases,
		now:        cfg.Now,
	}
}

// StartTrace begins a new trace. An unsampled query gets a nil trace; every
// method accepts nil so callers never branch on sampling.
func (t *Tracer) StartTrace(ctx context.Context, operationName string) (*TracingContext, context.Context) {
	if t == nil || !t.shouldSample() {
		return nil, ctx
	}
	trace := &TracingContext{
		TraceID:       uuid.NewString(),
		OperationName: operationName,
		StartTime:     t.now(),
		phases:        make([]Phase, 0, 4),
		tags:          make(map[string]string, 4),
	}
	return trace, WithContext(ctx, trace)
}

// RecordPhase runs fn and records it as a phase of trace.
func (t *Tracer) RecordPhase(trace *TracingContext, name string, fn func() error) error {
	if t == nil || trace == nil {
		return fn()
	}

	phase := Phase{Name: name, StartTime: t.now()}
	err := fn()
	phase.Duration = t.now().Sub(phase.StartTime)
	if err != nil {
		phase.Status = StatusError
		phase.Error = err.Error()
	}

	trace.mu.Lock()
	if len(trace.phases) < t.maxPhases {
		trace.phases = append(trace.phases, phase)
	}
	trace.mu.Unlock()
	return err
}

// Finish completes the trace and exports it. A non-nil err marks the trace
// as failed. Export runs on the caller's goroutine, so exporters must be cheap.
func (t *Tracer) Finish(trace *TracingContext, err error) {
	if t == nil || trace == nil {
		return
	}
	trace.mu.Lock()
	trace.EndTime = t.now()
	if err != nil {
		trace.Status = StatusError
		trace.tags["error"] = err.Error()
	}
	trace.mu.Unlock()

	t.exporter.Export(trace)
}

func (t *Tracer) shouldSample() bool {
	if t.sampleRate >= 1.0 {
		return true
	}
	return rand.Float64() < t.sampleRate
}

// Context key type for storing trace in context.
type contextKey struct{}

// WithContext stores the trace in the context.
func WithContext(ctx context.Context, trace *TracingContext) context.Context {
	return context.WithValue(ctx, contextKey{}, trace)
}

// FromContext retrieves the trace from the context.
func FromContext(ctx context.Context) *TracingContext {
	if ctx == nil {
		return nil
	}
	trace, _ := ctx.Value(contextKey{}).(*TracingContext)
	return trace
}

// ID returns the trace id, or "" for a nil trace.
func (t *TracingContext) ID() string {
	if t == nil {
		return ""
	}
	return t.TraceID
}

// Duration returns the total duration of the trace.
func (t *TracingContext) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.EndTime.Sub(t.StartTime)
}

// Phases returns a copy of the recorded phases.
func (t *TracingContext) Phases() []Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Phase(nil), t.phases...)
}

// SetTag sets a tag on the trace.
func (t *TracingContext) SetTag(key, value string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tags[key] = value
}

// Tags returns a copy of the trace tags.
func (t *TracingContext) Tags() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.tags))
	for k, v := range t.tags {
		out[k] = v
	}
	return out
}

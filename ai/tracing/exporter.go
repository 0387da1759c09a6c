package tracing

import (
	"context"
	"log/slog"
	"time"

	"github.com/czapol/multi-agent-playground/ai/cache"
)

// Exporter receives finished traces.
type Exporter interface {
	Export(trace *TracingContext)
}

// LogExporter exports traces to structured logs.
type LogExporter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogExporter logs traces at debug level; nil uses slog.Default
// at export time.
func NewLogExporter(logger *slog.Logger) *LogExporter {
	return &LogExporter{logger: logger, level: slog.LevelDebug}
}

// Export logs the trace with one attribute per phase.
func (e *LogExporter) Export(trace *TracingContext) {
	if trace == nil {
		return
	}
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}
	if !logger.Enabled(context.Background(), e.level) {
		return
	}

	phases := trace.Phases()
	attrs := make([]any, 0, 8+2*len(phases))
	attrs = append(attrs,
		"trace_id", trace.TraceID,
		"operation", trace.OperationName,
		"status", trace.Status.String(),
		"duration_ms", trace.Duration().Milliseconds(),
	)
	for _, p := range phases {
		attrs = append(attrs, p.Name+"_ms", p.Duration.Milliseconds())
	}
	for k, v := range trace.Tags() {
		attrs = append(attrs, k, v)
	}
	logger.Log(context.Background(), e.level, "query trace", attrs...)
}

// CompositeExporter fans a trace out to several exporters in order.
type CompositeExporter struct {
	exporters []Exporter
}

// NewCompositeExporter creates a new composite exporter.
func NewCompositeExporter(exporters ...Exporter) *CompositeExporter {
	return &CompositeExporter{exporters: exporters}
}

func (e *CompositeExporter) Export(trace *TracingContext) {
	for _, exp := range e.exporters {
		exp.Export(trace)
	}
}

// Summary is the cached, immutable view of a finished trace.
type Summary struct {
	TraceID   string            `json:"trace_id"`
	Operation string            `json:"operation"`
	Status    string            `json:"status"`
	StartTime time.Time         `json:"start_time"`
	Duration  time.Duration     `json:"duration_ns"`
	Phases    []Phase           `json:"phases"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// CachedExporter keeps recent trace summaries for lookup by id.
type CachedExporter struct {
	cache *cache.LRUCache[string, Summary]
}

// NewCachedExporter keeps up to capacity summaries for ttl each.
func NewCachedExporter(capacity int, ttl time.Duration) *CachedExporter {
	return &CachedExporter{cache: cache.NewLRUCache[string, Summary](capacity, ttl)}
}

func (e *CachedExporter) Export(trace *TracingContext) {
	if trace == nil {
		return
	}
	e.cache.Set(trace.TraceID, Summary{
		TraceID:   trace.TraceID,
		Operation: trace.OperationName,
		Status:    trace.Status.String(),
		StartTime: trace.StartTime,
		Duration:  trace.Duration(),
		Phases:    trace.Phases(),
		Tags:      trace.Tags(),
	}, 0)
}

// Get returns the summary of a recent trace.
func (e *CachedExporter) Get(traceID string) (Summary, bool) {
	return e.cache.Get(traceID)
}

// Len returns the number of cached summaries.
func (e *CachedExporter) Len() int {
	return e.cache.Size()
}

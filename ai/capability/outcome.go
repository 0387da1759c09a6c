package capability

import (
	"time"

	"github.com/czapol/multi-agent-playground/ai/routing"
)

// Outcome is the result of one adapter invocation: an answer or a failure.
type Outcome struct {
	Capability routing.Capability
	Answer     string
	Failure    *BackendError
	Attempts   int
	Duration   time.Duration
}

// OK reports whether the adapter produced an answer.
func (o Outcome) OK() bool {
	return o.Failure == nil
}

// FailureKind returns the failure kind, or "" on success.
func (o Outcome) FailureKind() Kind {
	if o.Failure == nil {
		return ""
	}
	return o.Failure.Kind
}

func failed(c routing.Capability, be *BackendError) Outcome {
	return Outcome{Capability: c, Failure: be}
}

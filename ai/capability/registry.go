package capability

import (
	"context"
	"fmt"

	"github.com/czapol/multi-agent-playground/ai/core/llm"
	"github.com/czapol/multi-agent-playground/ai/routing"
)

// Registry holds exactly one adapter per capability.
type Registry struct {
	General    *Adapter
	FileSearch *Adapter
	WebSearch  *Adapter
	Secondary  *Adapter
	Offline    *Adapter
}

// Validate checks that every capability has an adapter bound to it.
func (r *Registry) Validate() error {
	for _, c := range routing.AllCapabilities {
		a := r.adapter(c)
		if a == nil {
			return fmt.Errorf("no adapter registered for %s", c)
		}
		if a.Capability() != c {
			return fmt.Errorf("adapter for %s is bound to %s", c, a.Capability())
		}
	}
	return nil
}

func (r *Registry) adapter(c routing.Capability) *Adapter {
	switch c {
	case routing.CapabilityGeneral:
		return r.General
	case routing.CapabilityFileSearch:
		return r.FileSearch
	case routing.CapabilityWebSearch:
		return r.WebSearch
	case routing.CapabilitySecondary:
		return r.Secondary
	case routing.CapabilityOffline:
		return r.Offline
	}
	return nil
}

// Invoke dispatches to the adapter for c. An unknown or unbound capability
// yields an UNKNOWN failure rather than a panic.
func (r *Registry) Invoke(ctx context.Context, c routing.Capability, messages []llm.Message) Outcome {
	a := r.adapter(c)
	if a == nil {
		return failed(c, &BackendError{Kind: KindUnknown, Detail: fmt.Sprintf("no adapter for capability %q", c)})
	}
	return a.Invoke(ctx, messages)
}

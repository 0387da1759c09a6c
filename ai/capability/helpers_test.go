package capability

import (
	"context"
	"sync"
	"time"

	"github.com/czapol/multi-agent-playground/ai/core/llm"
)

type staticInstructions map[string]string

func (s staticInstructions) Load(id string) string { return s[id] }

type observation struct {
	capability string
	kind       string
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *recordingObserver) ObserveInvocation(capability, kind string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observation{capability, kind})
}

// scriptedBackend returns errs in order, then answer.
type scriptedBackend struct {
	mu           sync.Mutex
	errs         []error
	answer       string
	calls        int
	instructions []string
}

func (b *scriptedBackend) Call(_ context.Context, instructions string, _ []llm.Message) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.instructions = append(b.instructions, instructions)
	if len(b.errs) > 0 {
		err := b.errs[0]
		b.errs = b.errs[1:]
		return "", err
	}
	return b.answer, nil
}

func fastConfig() AdapterConfig {
	return AdapterConfig{
		Timeout:     time.Second,
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
	}
}

func conversation(text string) []llm.Message {
	return []llm.Message{llm.UserMessage(text)}
}

// Package mocks provides test doubles shared by package and end-to-end tests.
package mocks

import (
	"context"
	"sync"

	"github.com/czapol/multi-agent-playground/ai/core/llm"
)

// MockLLM is a configurable llm.Service for tests.
// MockLLM 是一个可配置的 Mock LLM 服务。
type MockLLM struct {
	mu              sync.Mutex
	responses       map[string]string
	defaultResponse string
	err             error
	blockUntilDone  bool
	calls           [][]llm.Message
}

// NewMockLLM creates a MockLLM answering "Mock response" by default.
func NewMockLLM() *MockLLM {
	return &MockLLM{
		responses:       make(map[string]string),
		defaultResponse: "Mock response",
	}
}

// WithResponse answers output when the last user message equals input.
func (m *MockLLM) WithResponse(input, output string) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[input] = output
	return m
}

// WithDefaultResponse sets the answer used when no preset matches.
func (m *MockLLM) WithDefaultResponse(output string) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResponse = output
	return m
}

// WithError makes every call fail with err.
func (m *MockLLM) WithError(err error) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithBlockUntilCanceled makes every call wait for its context to end and
// return the context error, simulating a hung backend.
func (m *MockLLM) WithBlockUntilCanceled() *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockUntilDone = true
	return m
}

// Chat implements llm.Service.
func (m *MockLLM) Chat(ctx context.Context, msgs []llm.Message) (string, *llm.LLMCallStats, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]llm.Message(nil), msgs...))
	block, err := m.blockUntilDone, m.err
	response, ok := m.responses[llm.LastUserContent(msgs)]
	if !ok {
		response = m.defaultResponse
	}
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", nil, ctx.Err()
	}
	if err != nil {
		return "", nil, err
	}
	return response, &llm.LLMCallStats{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, nil
}

// Warmup implements llm.Service.
func (m *MockLLM) Warmup(context.Context) {}

// Calls returns how many times Chat was invoked.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the messages of the most recent Chat call.
func (m *MockLLM) LastCall() []llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

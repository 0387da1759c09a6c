package capability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/czapol/multi-agent-playground/ai/core/llm"
	"github.com/czapol/multi-agent-playground/ai/core/websearch"
)

func TestClassify(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"missing key", fmt.Errorf("openai: %w", llm.ErrMissingAPIKey), KindAuthMissing},
		{"http 401", &llm.APIError{Provider: "openai", StatusCode: 401, Err: errors.New("bad key")}, KindAuthMissing},
		{"http 403", &llm.APIError{Provider: "openai", StatusCode: 403, Err: errors.New("denied")}, KindAuthMissing},
		{"http 429", &llm.APIError{Provider: "anthropic", StatusCode: 429, Err: errors.New("slow down")}, KindRateLimited},
		{"http 504", &llm.APIError{Provider: "openai", StatusCode: 504, Err: errors.New("gateway")}, KindTimeout},
		{"http 500", &llm.APIError{Provider: "openai", StatusCode: 500, Err: errors.New("internal")}, KindUnknown},
		{"search 429", fmt.Errorf("web search: %w", &websearch.StatusError{StatusCode: 429, Status: "429 Too Many Requests"}), KindRateLimited},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout},
		{"econnrefused", fmt.Errorf("ollama: %w", refused), KindConnectionRefused},
		{"refused message", errors.New("dial tcp 127.0.0.1:11434: connect: connection refused"), KindConnectionRefused},
		{"timeout message", errors.New("request timed out"), KindTimeout},
		{"rate message", errors.New("Rate limit reached for requests"), KindRateLimited},
		{"unknown", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassify_KeepsBackendError(t *testing.T) {
	be := &BackendError{Kind: KindConnectionRefused, Detail: "offline"}
	assert.Same(t, be, Classify(fmt.Errorf("wrapped: %w", be)))
}

func TestBackendError_Error(t *testing.T) {
	assert.Equal(t, "TIMEOUT", (&BackendError{Kind: KindTimeout}).Error())
	assert.Equal(t, "UNKNOWN: boom", NewBackendError(KindUnknown, errors.New("boom")).Error())
}

func TestKind_Retryable(t *testing.T) {
	assert.True(t, KindRateLimited.Retryable())
	for _, k := range []Kind{KindAuthMissing, KindConnectionRefused, KindTimeout, KindUnknown} {
		assert.False(t, k.Retryable(), k)
	}
}

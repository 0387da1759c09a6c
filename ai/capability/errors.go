// Package capability invokes the five terminal responders and folds every
// backend failure into a classified BackendError.
package capability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/czapol/multi-agent-playground/ai/core/llm"
)

// Kind is the failure category surfaced to the user.
type Kind string

const (
	KindAuthMissing       Kind = "AUTH_MISSING"
	KindConnectionRefused Kind = "CONNECTION_REFUSED"
	KindTimeout           Kind = "TIMEOUT"
	KindRateLimited       Kind = "RATE_LIMITED"
	KindUnknown           Kind = "UNKNOWN"
)

// Retryable reports whether the adapter may retry the call.
// Only rate limiting is retried; a timeout has already spent the budget.
func (k Kind) Retryable() bool {
	return k == KindRateLimited
}

// BackendError is a classified backend failure.
type BackendError struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *BackendError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError builds a BackendError with an explicit kind.
func NewBackendError(kind Kind, err error) *BackendError {
	be := &BackendError{Kind: kind, Err: err}
	if err != nil {
		be.Detail = err.Error()
	}
	return be
}

type httpStatuser interface {
	HTTPStatus() int
}

// Classify maps an arbitrary backend error onto a Kind.
// Typed signals win over message patterns.
func Classify(err error) *BackendError {
	if err == nil {
		return nil
	}

	var be *BackendError
	if errors.As(err, &be) {
		return be
	}

	if errors.Is(err, llm.ErrMissingAPIKey) {
		return NewBackendError(KindAuthMissing, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewBackendError(KindTimeout, err)
	}

	var hs httpStatuser
	if errors.As(err, &hs) {
		switch code := hs.HTTPStatus(); {
		case code == 401 || code == 403:
			return NewBackendError(KindAuthMissing, err)
		case code == 429:
			return NewBackendError(KindRateLimited, err)
		case code == 408 || code == 504:
			return NewBackendError(KindTimeout, err)
		}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return NewBackendError(KindConnectionRefused, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewBackendError(KindTimeout, err)
	}

	return NewBackendError(classifyMessage(err.Error()), err)
}

var messagePatterns = []struct {
	kind     Kind
	patterns []string
}{
	{KindAuthMissing, []string{"api key", "unauthorized", "invalid_api_key", "authentication", "forbidden"}},
	{KindConnectionRefused, []string{"connection refused", "no such host", "network is unreachable", "dial tcp"}},
	{KindTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{KindRateLimited, []string{"rate limit", "too many requests", "quota"}},
}

func classifyMessage(msg string) Kind {
	msg = strings.ToLower(msg)
	for _, group := range messagePatterns {
		for _, p := range group.patterns {
			if strings.Contains(msg, p) {
				return group.kind
			}
		}
	}
	return KindUnknown
}

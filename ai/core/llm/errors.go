package llm

import (
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// APIError carries the HTTP status of a failed provider call.
type APIError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the provider's HTTP status code.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// wrapAPIError attaches the HTTP status of go-openai errors; transport
// errors are returned wrapped with the provider name only.
func wrapAPIError(provider string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &APIError{Provider: provider, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &APIError{Provider: provider, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return fmt.Errorf("%s: %w", provider, err)
}

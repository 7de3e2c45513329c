package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const clientTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when the server answers 404.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for connection failures and unexpected statuses.
	ErrNetwork = errors.New("network error")
)

// NewClient returns an HTTP client with the standard request timeout. Large
// downloads should use a client without a timeout and rely on the context.
func NewClient() *http.Client {
	return &http.Client{Timeout: clientTimeout}
}

// CheckStatus classifies an HTTP status code. 5xx and 429 are retryable.
func CheckStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500, code == http.StatusTooManyRequests:
		return &RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

// NetworkError wraps a transport failure as a retryable [ErrNetwork].
func NetworkError(err error) error {
	return &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
}

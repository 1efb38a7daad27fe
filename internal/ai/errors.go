package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ollama/ollama/api"
)

// ErrMissingAPIKey is returned when a provider that needs a key has none.
var ErrMissingAPIKey = errors.New("API key is not set: open settings to enter one")

// APIError represents an API error with HTTP status code.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

func retryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// IsRetryableError reports whether a failed request is worth repeating.
// Typed checks come first; message matching covers untyped library errors.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, ErrMissingAPIKey) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.StatusCode)
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.StatusCode)
	}
	var statusErrPtr *api.StatusError
	if errors.As(err, &statusErrPtr) {
		return retryableStatus(statusErrPtr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"rate limit",
		"connection refused",
		"connection reset",
		"no such host",
		"tls handshake",
		"unavailable",
		"resource_exhausted",
		"eof",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	for _, code := range []string{"429", "500", "502", "503", "504"} {
		if strings.Contains(msg, "error "+code) || strings.Contains(msg, "status "+code) || strings.Contains(msg, "code "+code) {
			return true
		}
	}
	return false
}

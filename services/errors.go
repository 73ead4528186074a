package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// ErrNotFound is returned when the provider answers with an empty result set
var ErrNotFound = errors.New("no data returned")

// ErrServiceUnavailable is returned while a circuit breaker rejects calls
var ErrServiceUnavailable = errors.New("service unavailable")

// APIError is a non-2xx answer from an upstream API
type APIError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Service, e.StatusCode, e.Message)
}

// Temporary reports whether retrying the request may succeed
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// StatusCode extracts the upstream HTTP status from err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Retryable reports whether err is worth another attempt
func Retryable(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrServiceUnavailable) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}

// errorType is the metrics label of err
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrServiceUnavailable):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	if code := StatusCode(err); code != 0 {
		return "status_" + strconv.Itoa(code)
	}
	return "transport"
}

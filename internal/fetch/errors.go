package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	// ErrQuotaExhausted is returned when a service refuses further requests
	// for the current credentials
	ErrQuotaExhausted = errors.New("request quota exhausted")

	// ErrDisallowed is returned when robots.txt forbids the request
	ErrDisallowed = errors.New("disallowed by robots.txt")
)

// StatusError is a non-2xx HTTP response
type StatusError struct {
	URL    string
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %d from %s: %s", e.Code, e.URL, e.Body)
	}
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Is lets errors.Is(err, ErrQuotaExhausted) match a 402 response
func (e *StatusError) Is(target error) bool {
	return target == ErrQuotaExhausted && e.Code == http.StatusPaymentRequired
}

// IsRetryable reports whether err looks transient: a 5xx or 429 response, a
// timeout, or a dropped connection. Quota and context errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrQuotaExhausted) || errors.Is(err, ErrDisallowed) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "eof")
}

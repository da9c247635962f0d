package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a provider failure by how the caller should react
type Kind string

const (
	// KindTransient failures (timeouts, rate limits, 5xx) may succeed if retried later.
	KindTransient Kind = "transient"
	// KindFatal failures (bad request, content policy) will not succeed on retry.
	KindFatal Kind = "fatal"
	// KindAuth failures need the user to fix their credentials.
	KindAuth Kind = "auth"
	// KindUnsupported means the provider lacks the capability.
	KindUnsupported Kind = "unsupported"
)

// Error is the only error type returned by Gateway implementations
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s error (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("provider %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindForStatus maps an HTTP status code onto the failure taxonomy.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout, status >= 500:
		return KindTransient
	default:
		return KindFatal
	}
}

// statusError builds an Error from an HTTP status and message.
func statusError(status int, message string, err error) *Error {
	return &Error{Kind: KindForStatus(status), Status: status, Message: message, Err: err}
}

// unsupported reports a capability the provider does not offer.
func unsupported(provider, capability string) *Error {
	return &Error{Kind: KindUnsupported, Message: fmt.Sprintf("%s does not support %s", provider, capability)}
}

// wrapTransport classifies an error that carries no HTTP status. Deadline hits
// and network failures are transient; caller cancellation is passed through
// as fatal so nothing retries it.
func wrapTransport(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTransient, Message: "provider call timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindFatal, Message: "provider call cancelled", Err: err}
	}
	return &Error{Kind: KindTransient, Message: err.Error(), Err: err}
}

// KindOf returns the Kind of err, or "" when err is not a provider error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsTransient reports whether err is a retryable provider failure.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}

// IsAuth reports whether err is a credential failure.
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}

// IsUnsupported reports whether err is a missing-capability failure.
func IsUnsupported(err error) bool {
	return KindOf(err) == KindUnsupported
}

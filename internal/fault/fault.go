package fault

import (
	"errors"
	"fmt"
)

// Kind discriminates failure classes so callers can branch on the class of
// a failure instead of matching concrete error types per component.
type Kind int

const (
	// Unknown is the zero kind for errors that did not come from this package.
	Unknown Kind = iota
	// UpstreamUnavailable means a remote call timed out or never connected.
	UpstreamUnavailable
	// RateLimited means the upstream rejected the call over quota (HTTP 429).
	// Retriable.
	RateLimited
	// UpstreamError covers other non-2xx upstream responses.
	UpstreamError
	// ValidationFailed means model output did not match the expected shape.
	ValidationFailed
	// SafetyBlocked means the model declined to answer (safety filter or
	// policy block). Distinct from a parse failure.
	SafetyBlocked
	// ConfigError means a required credential or setting is missing. Fatal
	// at the operation boundary, never retried.
	ConfigError
)

func (k Kind) String() string {
	switch k {
	case UpstreamUnavailable:
		return "upstream_unavailable"
	case RateLimited:
		return "rate_limited"
	case UpstreamError:
		return "upstream_error"
	case ValidationFailed:
		return "validation_failed"
	case SafetyBlocked:
		return "safety_blocked"
	case ConfigError:
		return "config_error"
	default:
		return "unknown"
	}
}

// Error is the single tagged error type used across components. Callers
// branch on Kind; Msg is for humans and logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a tagged error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind carried by err, or Unknown when err is nil or
// was not produced by this package.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// IsRetriable reports whether the failure class is a designated transient
// condition worth another attempt.
func IsRetriable(err error) bool {
	switch KindOf(err) {
	case RateLimited, UpstreamUnavailable:
		return true
	default:
		return false
	}
}

package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies request failures so callers can tell a retryable
// condition apart from one that will never succeed.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthenticated
	KindAccessDenied
	KindNotFound
	KindInvalidState
	KindInvalidInput
	KindRateLimited
	KindExpired
	KindAlreadyAccepted
	KindAlreadyCancelled
	KindNotAccepted
	KindDeclined
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindAccessDenied:
		return "access_denied"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindInvalidInput:
		return "invalid_input"
	case KindRateLimited:
		return "rate_limited"
	case KindExpired:
		return "expired"
	case KindAlreadyAccepted:
		return "already_accepted"
	case KindAlreadyCancelled:
		return "already_cancelled"
	case KindNotAccepted:
		return "not_accepted"
	case KindDeclined:
		return "declined"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Retryable reports whether the caller may retry the same request later.
// Only rate limiting and store unavailability qualify; everything else is
// terminal for the request.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindUnavailable
}

func (k Kind) httpStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindAccessDenied, KindNotAccepted, KindDeclined:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindAlreadyAccepted, KindAlreadyCancelled, KindConflict:
		return http.StatusConflict
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindExpired:
		return http.StatusGone
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a failure kind alongside the message returned to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an Error of the given kind.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Ef builds an Error of the given kind with a formatted message.
func Ef(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// wrapE attaches a kind to an underlying error.
func wrapE(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

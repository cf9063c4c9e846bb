// Package common defines the error taxonomy shared across repository,
// service, and transport layers. Repositories return sentinel errors matched
// with errors.Is; services wrap failures into kinded *Error values that the
// transport maps onto HTTP status codes.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Auth errors (invalid, expired, or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)

// Kind classifies a service-level failure. Every AuthService operation
// returns either a success payload or an *Error carrying exactly one Kind.
type Kind int

const (
	// KindInternal is an unexpected failure; the cause is logged, never shown.
	KindInternal Kind = iota
	// KindValidation is a caller-fixable input problem.
	KindValidation
	// KindUnauthorized is a rejected credential or token.
	KindUnauthorized
	// KindNotFound means the referenced user no longer exists.
	KindNotFound
	// KindConflict is a uniqueness violation (duplicate email).
	KindConflict
	// KindUnavailable means the backing store could not be reached.
	KindUnavailable
)

// Error is a kinded error with a user-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// Validation builds a caller-fixable input error.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Unauthorized builds a credential/token rejection error.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// NotFound builds a missing-user error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict builds a uniqueness-violation error.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Unavailable wraps a store failure. The message stays generic so that no
// driver detail leaks to callers.
func Unavailable(cause error) *Error {
	return &Error{Kind: KindUnavailable, Message: "service temporarily unavailable", cause: cause}
}

// Internal wraps an unexpected failure.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", cause: cause}
}

// KindOf extracts the Kind from err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

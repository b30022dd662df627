// Package apperrors defines the closed error taxonomy of the application.
// Every user-visible failure is one of the kinds below; each kind maps to
// exactly one HTTP status. Handlers translate with Status and never invent
// new kinds.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	// KindNotFound means a referenced entity is absent.
	KindNotFound Kind = iota
	// KindAlreadyExists means a unique key is already taken (e.g. email).
	KindAlreadyExists
	// KindUnauthorized means a missing, invalid or mismatched-type credential.
	KindUnauthorized
	// KindGone means the entity exists but has expired or been revoked.
	KindGone
	// KindInsufficientCapacity means the code space is exhausted.
	KindInsufficientCapacity
	// KindBadRequest means malformed input.
	KindBadRequest
)

// Error carries a kind plus a human-readable detail string.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindAlreadyExists:
		return "already exists"
	case KindUnauthorized:
		return "unauthorized"
	case KindGone:
		return "gone"
	case KindInsufficientCapacity:
		return "insufficient capacity"
	case KindBadRequest:
		return "bad request"
	default:
		return "unknown"
	}
}

// Is makes errors.Is match any *Error of the same kind, so wrapped errors
// can be compared against the sentinel-style helpers below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Detail: fmt.Sprintf(format, args...)}
}

func AlreadyExists(format string, args ...any) *Error {
	return &Error{Kind: KindAlreadyExists, Detail: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Detail: fmt.Sprintf(format, args...)}
}

func Gone(format string, args ...any) *Error {
	return &Error{Kind: KindGone, Detail: fmt.Sprintf(format, args...)}
}

func InsufficientCapacity(format string, args ...any) *Error {
	return &Error{Kind: KindInsufficientCapacity, Detail: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Detail: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err (or anything it wraps) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// Status maps an error to its fixed HTTP status code. Errors outside the
// taxonomy are treated as internal server errors.
func Status(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindGone:
		return http.StatusGone
	case KindInsufficientCapacity:
		return http.StatusInsufficientStorage
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Detail extracts the human-readable detail, falling back to err.Error()
// for errors outside the taxonomy.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return err.Error()
}

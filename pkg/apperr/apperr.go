// Package apperr classifies errors crossing service boundaries so handlers
// can map them to HTTP statuses without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the error category.
type Kind int

const (
	// KindUnknown is any unclassified error.
	KindUnknown Kind = iota
	// KindValidation is malformed input (e.g. negative year).
	KindValidation
	// KindConflict is a state conflict (e.g. opening a period while one is open).
	KindConflict
	// KindNotFound is a missing or already-closed target.
	KindNotFound
	// KindDatabase is a storage-layer failure wrapping the underlying cause.
	KindDatabase
)

// Error carries a kind, a message, and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a validation error.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Conflict returns a conflict error.
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// NotFound returns a not-found error.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Database wraps a storage failure.
func Database(msg string, err error) error {
	return &Error{Kind: KindDatabase, Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

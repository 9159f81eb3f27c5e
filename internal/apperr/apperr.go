// Package apperr classifies failures so callers can decide whether to abort,
// degrade or report them.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the failure class of an Error.
type Kind string

const (
	// Configuration errors are fatal at startup (missing credentials).
	Configuration Kind = "configuration"
	// Provider errors come from an external service call and are recoverable.
	Provider Kind = "provider"
	// Validation errors are caused by client input.
	Validation Kind = "validation"
	// Internal errors are unexpected and handled at the HTTP boundary.
	Internal Kind = "internal"
)

// Error wraps an underlying error with its Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an Error of the given kind.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// ProviderError marks err as a failed call to an external service.
func ProviderError(op string, err error) error {
	return E(Provider, op, err)
}

// ConfigurationError reports a missing or invalid setting.
func ConfigurationError(op string, format string, args ...any) error {
	return E(Configuration, op, fmt.Errorf(format, args...))
}

// ValidationError reports invalid client input.
func ValidationError(op string, msg string) error {
	return E(Validation, op, errors.New(msg))
}

// KindOf returns the Kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

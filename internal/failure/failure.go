// Package failure classifies errors raised while fetching, storing and serving
// market data. Every error that crosses a component boundary is a *Error with a
// Kind; retry, escalation and HTTP status decisions are functions of the Kind alone.
package failure

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure classes.
type Kind int

const (
	Validation Kind = iota + 1 // Caller supplied an unsupported currency, page or symbol
	Transport                  // Network failure or non-success status from the provider
	Schema                     // Provider body did not match the expected envelope
	Store                      // A single record's upsert failed
	Commit                     // The page transaction failed to commit
	NotFound                   // No stored row for a symbol
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Transport:
		return "transport"
	case Schema:
		return "schema"
	case Store:
		return "store"
	case Commit:
		return "commit"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Retryable reports whether the ingestion worker should back off and try the
// same page again. Schema failures are included: the worker cannot tell a
// transient upstream hiccup from a real mismatch.
func (k Kind) Retryable() bool {
	switch k {
	case Transport, Schema, Commit:
		return true
	default:
		return false
	}
}

// Escalates reports whether a failure of this kind leaves the component that
// raised it. Store failures are absorbed by the batch store.
func (k Kind) Escalates() bool {
	return k != Store
}

// HTTPStatus maps a kind to the status returned by the read API.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Op      string // Operation that failed (e.g., "fetch page")
	Message string // Client-safe description; defaults per kind
	Err     error  // Underlying cause, may be nil
}

// New creates a classified error wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf creates a classified error with a formatted message and no cause.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op == "" {
		return msg
	}
	if e.Message != "" && e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Public returns the message shown to API callers. Server-side kinds hide
// their cause.
func (e *Error) Public() string {
	if e.Message != "" && e.Kind.HTTPStatus() < http.StatusInternalServerError {
		return e.Message
	}
	switch e.Kind {
	case Validation, NotFound:
		return e.Error()
	case Transport:
		return "failed to fetch result from market data provider"
	case Schema:
		return "unexpected response from market data provider"
	default:
		return "internal error"
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

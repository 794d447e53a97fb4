// Copyright 2025 Certen Protocol
//
// Package apperr defines the typed failure taxonomy shared by every
// component. Components never throw across a package boundary; they
// return a *Error (or an error wrapping one) and the HTTP boundary in
// pkg/server is the only place that maps a Kind to a status code.

package apperr

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of failure categories.
type Kind string

const (
	Validation       Kind = "validation"
	NotFound         Kind = "not_found"
	Forbidden        Kind = "forbidden"
	Conflict         Kind = "conflict"
	Unauthorized     Kind = "unauthorized"
	UnsupportedEvent Kind = "unsupported_event"
	Integrity        Kind = "integrity"
	Internal         Kind = "internal"
)

// Error is the typed failure value every component returns for
// expected failure modes.
type Error struct {
	Kind    Kind
	Message string
	// Detail carries structured context (e.g. missing consent types,
	// field validation errors) surfaced to the HTTP boundary.
	Detail  []string
	AuditID string
	err     error
}

func (e *Error) Error() string {
	if len(e.Detail) > 0 {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// New builds a new Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds a new Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates an existing error as Internal unless it already
// carries a Kind.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: Internal, Message: err.Error(), err: err}
}

// WithDetail attaches structured detail (e.g. missing consent types).
func (e *Error) WithDetail(detail ...string) *Error {
	e.Detail = append(e.Detail, detail...)
	return e
}

// WithAuditID attaches the correlation id produced by an access check.
func (e *Error) WithAuditID(id string) *Error {
	e.AuditID = id
	return e
}

// Is allows errors.Is(err, apperr.New(apperr.NotFound, "")) style checks:
// any *Error target matches when its Kind equals e's Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the Kind of err, defaulting to Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// HTTPStatus maps a Kind to the HTTP status code the server layer
// responds with.
func HTTPStatus(k Kind) int {
	switch k {
	case Validation:
		return 400
	case NotFound:
		return 404
	case Forbidden:
		return 403
	case Conflict:
		return 409
	case Unauthorized:
		return 401
	case UnsupportedEvent:
		return 400
	case Integrity:
		return 500
	default:
		return 500
	}
}

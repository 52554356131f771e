package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindStatus       Kind = "status"
	KindMalformed    Kind = "malformed"
	KindPrecondition Kind = "precondition"
	KindUnauthorized Kind = "unauthorized"
	KindTooLarge     Kind = "too_large"
	KindCanceled     Kind = "canceled"
)

// Error is a classified failure of one operation.
type Error struct {
	// Kind is the taxonomy bucket.
	Kind Kind

	// Op names the operation, usually "METHOD /path".
	Op string

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Detail is the backend's message or the missing precondition.
	Detail string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (%d)", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Code returns the registry code for the error's kind.
func (e *Error) Code() string {
	return lookup(e.Kind).Code
}

// WithStatus records the HTTP status code.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// WithDetail adds a backend message or precondition description.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error of the given kind for op.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Precondition reports a missing input detected before any network call.
func Precondition(op, detail string) *Error {
	return &Error{Kind: KindPrecondition, Op: op, Detail: detail}
}

// FromStatus classifies a non-2xx HTTP response.
func FromStatus(op string, status int) *Error {
	kind := KindStatus
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindUnauthorized
	case http.StatusRequestEntityTooLarge:
		kind = KindTooLarge
	}
	return &Error{Kind: kind, Op: op, Status: status}
}

// FromTransport classifies an error returned by an http.RoundTripper or
// while reading a response body.
func FromTransport(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	if stderrors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, Op: op, Wrapped: err}
	}
	return &Error{Kind: KindNetwork, Op: op, Wrapped: err}
}

// KindOf returns the kind of err. Unclassified errors count as network
// failures, context cancellation as canceled.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	if stderrors.Is(err, context.Canceled) {
		return KindCanceled
	}
	return KindNetwork
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

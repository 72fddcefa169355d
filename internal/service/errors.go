package service

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a backend failure.
type ErrorCode string

const (
	ErrUnauthenticated      ErrorCode = "UNAUTHENTICATED"       // 401
	ErrRemoteRejected       ErrorCode = "REMOTE_REJECTED"       // non-2xx
	ErrNotConfigured        ErrorCode = "NOT_CONFIGURED"        // missing credentials or client config
	ErrTransportUnavailable ErrorCode = "TRANSPORT_UNAVAILABLE" // network-level failure
	ErrNotFound             ErrorCode = "NOT_FOUND"             // 404
)

// Error is a classified backend error.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	// Hint is remediation text shown to the user, if any.
	Hint string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Hint != "" {
		return fmt.Sprintf("%s\n\n%s", msg, e.Hint)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewUnauthenticated creates an error for a missing or expired credential.
func NewUnauthenticated(err error) *Error {
	return &Error{
		Code:    ErrUnauthenticated,
		Status:  401,
		Message: "unauthorized - please sign in again",
		Err:     err,
	}
}

// NewRemoteRejected creates an error for a non-success response.
func NewRemoteRejected(status int, msg, hint string, err error) *Error {
	if msg == "" {
		msg = fmt.Sprintf("API error: status %d", status)
	}
	return &Error{
		Code:    ErrRemoteRejected,
		Status:  status,
		Message: msg,
		Hint:    hint,
		Err:     err,
	}
}

// NewNotConfigured creates an error for a backend that cannot be built.
func NewNotConfigured(msg string, err error) *Error {
	return &Error{
		Code:    ErrNotConfigured,
		Message: msg,
		Err:     err,
	}
}

// NewTransportUnavailable creates an error for a network failure.
func NewTransportUnavailable(err error) *Error {
	return &Error{
		Code:    ErrTransportUnavailable,
		Message: fmt.Sprintf("network error: %v", err),
		Err:     err,
	}
}

// NewNotFound creates an error for a missing resource.
func NewNotFound(what string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", what),
	}
}

// Is reports whether err is, or wraps, an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

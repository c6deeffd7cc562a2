// Package domainerrors defines the coded error type surfaced by domain
// services. Stores speak in sentinel errors (pkg/platform/sentinel); services
// translate those into coded errors here so transports can map them to status
// codes without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for callers and transports.
type Code string

const (
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInsufficientFunds  Code = "insufficient_funds"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error. It wraps an optional cause so errors.Is/As
// still reach the underlying sentinel.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// Wrapf attaches a code and a formatted message to an underlying error.
func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in a domain service.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

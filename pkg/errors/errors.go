// Package errors carries machine-readable error codes across layer
// boundaries. Stores and infrastructure return sentinel errors; services
// translate them into coded errors that the transport layer maps onto HTTP
// statuses in one place.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies an operation failure.
type Code string

const (
	CodeUnauthorized      Code = "unauthorized"
	CodeValidation        Code = "validation"
	CodeReplay            Code = "replay"
	CodePayment           Code = "payment"
	CodeNotFound          Code = "not_found"
	CodeInvalidState      Code = "invalid_state"
	CodeUnsupportedDomain Code = "unsupported_domain"
	CodePaused            Code = "paused"
	CodeBadRequest        Code = "bad_request"
	CodeInternal          Code = "internal"
)

// Error is a coded domain error. Use New/Newf/Wrap rather than constructing
// values directly so the zero code never escapes.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from err, defaulting to CodeInternal for plain
// errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// MessageOf returns the human-readable message without the code prefix.
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

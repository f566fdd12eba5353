// Package errors provides a structured error type with wrapping and metadata
package errors

// Always import the project errors package as perr (platform/errors)

import (
	stderrs "errors"
	"fmt"
)

// ErrorCode defines supported error codes used across the merge pipeline
// Values are stable because they feed process exit statuses; add sparingly
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodeNotFound is for missing input files and missing rows
	ErrorCodeNotFound

	// ErrorCodeMalformed is for inputs that are not the expected array-of-objects shape
	ErrorCodeMalformed

	// ErrorCodeValidation is for records that decode but miss a required field
	ErrorCodeValidation

	// ErrorCodeInvalidArgument is for bad flags or configuration values
	ErrorCodeInvalidArgument

	// ErrorCodeIO is for sink write, flush and close failures
	ErrorCodeIO

	// ErrorCodeDuplicateKey is for unique constraint violations
	ErrorCodeDuplicateKey

	// ErrorCodeUnavailable is for transient errors where retry may succeed
	ErrorCodeUnavailable

	// ErrorCodeDB is for general database errors
	ErrorCodeDB

	// ErrorCodeCanceled is for runs stopped by context cancellation
	ErrorCodeCanceled
)

// String returns a short stable label for logs
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeNotFound:
		return "not_found"
	case ErrorCodeMalformed:
		return "malformed_input"
	case ErrorCodeValidation:
		return "validation"
	case ErrorCodeInvalidArgument:
		return "invalid_argument"
	case ErrorCodeIO:
		return "io"
	case ErrorCodeDuplicateKey:
		return "duplicate_key"
	case ErrorCodeUnavailable:
		return "unavailable"
	case ErrorCodeDB:
		return "db"
	case ErrorCodeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ExitCodeOf turns an ErrorCode into a process exit status (sysexits-ish)
func ExitCodeOf(c ErrorCode) int {
	switch c {
	case ErrorCodeNotFound:
		return 2
	case ErrorCodeMalformed, ErrorCodeValidation:
		return 3
	case ErrorCodeInvalidArgument:
		return 64
	case ErrorCodeIO:
		return 74
	case ErrorCodeDB, ErrorCodeDuplicateKey, ErrorCodeUnavailable:
		return 75
	case ErrorCodeCanceled:
		return 130
	default:
		return 1
	}
}

// ExitCode returns the mapped exit status for any error; nil maps to 0
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return ExitCodeOf(CodeOf(err))
}

// ErrNotFound is a sentinel not found error for convenience
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is the structured error type with wrapping and metadata
// msg is human/developer facing; code is machine facing
// field is optional (for validation); op is optional operation tag
// orig is the wrapped cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Message returns the message without the wrapped cause
func (e *Error) Message() string { return e.msg }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// IsNotFound reports whether err is a NotFound error
func IsNotFound(err error) bool { return IsCode(err, ErrorCodeNotFound) }

// IsMalformed reports whether err is a malformed input error, validation failures included
func IsMalformed(err error) bool {
	c := CodeOf(err)
	return c == ErrorCodeMalformed || c == ErrorCodeValidation
}

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Mutators (copy-on-write)

// WithField attaches a field to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp attaches an operation label to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// Constructors

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WrapIf wraps only when err != nil (helper for 1-liners)
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// Sugar

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// Malformedf returns a malformed input error
func Malformedf(format string, a ...any) error { return Newf(ErrorCodeMalformed, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// IOf returns an io error
func IOf(format string, a ...any) error { return Newf(ErrorCodeIO, format, a...) }

// DBf returns a general database error
func DBf(format string, a ...any) error { return Newf(ErrorCodeDB, format, a...) }

// Internalf returns a generic internal error
func Internalf(format string, a ...any) error { return Newf(ErrorCodeUnknown, format, a...) }

package status

import (
	"errors"
	"fmt"
)

// Error is a domain error carrying the status code it maps to. Node and
// workflow runners copy the code into the attempt record before rethrowing.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" && e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a domain error with an explicit code.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a code to an underlying cause.
func WrapError(code Code, cause error, message string) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the status code from err. Non-domain errors fall back
// to FAILED; nil maps to COMPLETED.
func CodeOf(err error) Code {
	if err == nil {
		return Completed
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return Failed
}

// Convenience constructors for the taxonomy in common use by node bodies.

func Timeout(message string) *Error {
	if message == "" {
		message = "deadline exceeded"
	}
	return &Error{Code: TimedOut, Message: message}
}

func Prerequisite(format string, args ...any) *Error {
	return NewError(PrerequisiteFail, format, args...)
}

func Infrastructure(format string, args ...any) *Error {
	return NewError(InfrastructureError, format, args...)
}

func Data(format string, args ...any) *Error {
	return NewError(DataError, format, args...)
}

func APICall(format string, args ...any) *Error {
	return NewError(APICallFailure, format, args...)
}

func Network(format string, args ...any) *Error {
	return NewError(NetworkFailure, format, args...)
}

func Validation(format string, args ...any) *Error {
	return NewError(DataValidationFailure, format, args...)
}

func Dependency(format string, args ...any) *Error {
	return NewError(DependencyUnavailable, format, args...)
}

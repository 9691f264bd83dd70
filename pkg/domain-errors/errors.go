// Package domainerrors defines the coded error taxonomy shared by services and
// the HTTP transport. Services return coded errors; transport translates codes
// to HTTP statuses without inspecting concrete types.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and client messaging.
type Code string

const (
	CodeNotFound        Code = "not_found"
	CodeForbidden       Code = "forbidden"
	CodeUnauthorized    Code = "unauthorized"
	CodeBadRequest      Code = "bad_request"
	CodeInvalidInput    Code = "invalid_input"
	CodeInvalidToken    Code = "invalid_token"
	CodeTokenExpired    Code = "token_expired"
	CodeRequestExpired  Code = "request_expired"
	CodeAlreadyResolved Code = "already_resolved"
	CodeConsentRequired Code = "consent_required"
	CodeSealingFailed   Code = "sealing_failed"
	CodeConflict        Code = "conflict"
	CodeTimeout         Code = "timeout"
	CodeInternal        Code = "internal_error"
)

// Error is the concrete coded error. Detail carries structured context that is
// safe to return to clients (e.g. the terminal status behind already_resolved).
type Error struct {
	Code    Code
	Message string
	Detail  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// WithDetail attaches a client-visible key/value pair and returns the error
// for chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Detail == nil {
		e.Detail = make(map[string]string, 1)
	}
	e.Detail[key] = value
	return e
}

// New constructs a coded error with a client-facing message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates an underlying error with a code and message. The cause stays
// reachable via errors.Unwrap for logging; clients only see code and message.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode, matching call sites that test a
// single expected code.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so nothing leaks as a 200.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// DetailOf extracts the client-visible detail map from err, or nil.
func DetailOf(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Detail
	}
	return nil
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized, CodeInvalidToken, CodeTokenExpired:
		return http.StatusUnauthorized
	case CodeBadRequest, CodeInvalidInput, CodeConsentRequired:
		return http.StatusBadRequest
	case CodeRequestExpired:
		return http.StatusGone
	case CodeAlreadyResolved, CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeSealingFailed, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Package domainerrors defines the coded error taxonomy shared across the core.
//
// Every rejected operation carries the specific rule that was violated, never a
// generic failure, so callers can present a precise, actionable message.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and caller branching.
type Code string

const (
	// CodeInvalidInput covers malformed identities, empty descriptions, and
	// non-positive pagination parameters.
	CodeInvalidInput Code = "invalid_input"

	// CodeUnauthorized means the caller lacks the required role for a
	// privileged action (owner-only or patient-only operations).
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden means an approval/ACL gate failed for a record write.
	CodeForbidden Code = "forbidden"

	// CodeNotFound means a referenced provider, patient, or record does not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict covers duplicate registration and re-approval.
	CodeConflict Code = "conflict"

	// CodeInternal is an unexpected infrastructure failure.
	CodeInternal Code = "internal"

	// CodeUnavailable means a backing store or sink is temporarily unreachable.
	CodeUnavailable Code = "unavailable"
)

// Error is a coded domain error. Rule names the violated rule verbatim.
type Error struct {
	Code Code
	Rule string
	err  error
}

// New builds a domain error for the violated rule.
func New(code Code, rule string) *Error {
	return &Error{Code: code, Rule: rule}
}

// Wrap attaches a code and rule to an underlying infrastructure error.
func Wrap(err error, code Code, rule string) *Error {
	return &Error{Code: code, Rule: rule, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Rule, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Rule)
}

func (e *Error) Unwrap() error { return e.err }

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// RuleOf extracts the violated rule from err, or an empty string.
func RuleOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Rule
	}
	return ""
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

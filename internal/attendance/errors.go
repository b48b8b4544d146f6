package attendance

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies failures surfaced to the user.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindNetwork           Kind = "NETWORK"
	KindMalformedResponse Kind = "MALFORMED_RESPONSE"
)

// Error is the error type every Store returns for user-facing failures.
type Error struct {
	Kind    Kind
	Message string
	// Fields lists the missing or invalid submission fields (validation only).
	Fields []string
	// StatusCode is the remote HTTP status, zero when no response arrived.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return strings.ToLower(string(e.Kind))
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidationError reports missing required fields.
func NewValidationError(fields ...string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("%s required", strings.Join(fields, ", ")),
		Fields:  fields,
	}
}

// NewNetworkError reports a failed remote call. message is shown to the user
// verbatim when the remote supplied one.
func NewNetworkError(status int, message string, err error) *Error {
	if message == "" {
		switch {
		case err != nil:
			message = fmt.Sprintf("request failed: %v", err)
		case status != 0:
			message = fmt.Sprintf("request failed: %d %s", status, http.StatusText(status))
		default:
			message = "request failed"
		}
	}
	return &Error{Kind: KindNetwork, Message: message, StatusCode: status, Err: err}
}

// NewMalformedResponseError reports a remote payload that does not have the
// expected shape.
func NewMalformedResponseError(what string, err error) *Error {
	msg := "malformed response"
	if what != "" {
		msg += ": " + what
	}
	return &Error{Kind: KindMalformedResponse, Message: msg, Err: err}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

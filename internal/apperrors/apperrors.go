// Package apperrors defines the failure kinds shared by the service layer and
// the outbound clients, and the single mapping from a failure to the HTTP
// status and message a caller sees.
//
// Every layer below the HTTP boundary returns these types (possibly wrapped
// with %w); only Map turns them into user-visible text.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error codes carried in the JSON error envelope.
const (
	CodeValidation = "validation_error"
	CodeNotFound   = "not_found"
	CodeClient     = "client_error"
	CodeServer     = "server_error"
	CodeInternal   = "internal_error"
)

// ValidationError lists the field violations found on an input entity.
type ValidationError struct {
	Violations []string
}

// Error returns the violations sorted and joined with ", ".
func (e *ValidationError) Error() string {
	v := append([]string(nil), e.Violations...)
	sort.Strings(v)
	return strings.Join(v, ", ")
}

// NewValidation builds a ValidationError from violation messages.
func NewValidation(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

// NotFoundError reports that the entity with ID does not exist.
type NotFoundError struct {
	ID      string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "not found: " + e.ID
}

// NotFound returns a NotFoundError whose message is prefix followed by id.
func NotFound(prefix, id string) *NotFoundError {
	return &NotFoundError{ID: id, Message: prefix + id}
}

// ClientError is a 4xx (other than 404) answered by a remote backend.
type ClientError struct {
	Message    string
	StatusCode int
}

func (e *ClientError) Error() string { return e.Message }

// IsRetryable reports false: the caller sent something the backend rejects.
func (e *ClientError) IsRetryable() bool { return false }

// ServerError is a 5xx answered by a remote backend.
type ServerError struct {
	Message    string
	StatusCode int
}

func (e *ServerError) Error() string { return e.Message }

// IsRetryable reports true: server failures are assumed transient.
func (e *ServerError) IsRetryable() bool { return true }

// DecodeError wraps a failure to decode a 2xx response body.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode response: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// IsRetryable reports false: the same payload would fail the same way.
func (e *DecodeError) IsRetryable() bool { return false }

// Mapping is the user-visible form of a failure.
type Mapping struct {
	Status  int
	Code    string
	Message string
}

// Map classifies err. Wrapped failures are unwrapped with errors.As; anything
// unrecognized becomes a 500 carrying err's own message.
func Map(err error) Mapping {
	var (
		ve *ValidationError
		nf *NotFoundError
		ce *ClientError
		se *ServerError
	)
	switch {
	case err == nil:
		return Mapping{Status: http.StatusOK}
	case errors.As(err, &ve):
		return Mapping{Status: http.StatusBadRequest, Code: CodeValidation, Message: ve.Error()}
	case errors.As(err, &nf):
		return Mapping{Status: http.StatusNotFound, Code: CodeNotFound, Message: nf.Error()}
	case errors.As(err, &ce):
		status := ce.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadRequest
		}
		return Mapping{Status: status, Code: CodeClient, Message: ce.Message}
	case errors.As(err, &se):
		return Mapping{Status: http.StatusInternalServerError, Code: CodeServer, Message: se.Message}
	default:
		return Mapping{Status: http.StatusInternalServerError, Code: CodeInternal, Message: err.Error()}
	}
}

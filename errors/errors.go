// Package errors provides the error taxonomy of the taskgate HTTP API.
// Every failure leaving the service is one of four kinds and is written as
// the same JSON envelope:
//
//	{"error": {"type": "...", "message": "...", "details": "..."}}
//
// Basic usage:
//
//	errors.WriteError(w, errors.NewHTTPError(http.StatusServiceUnavailable, "ThrottlingException: slow down"))
//
// Handlers that may fail in several ways return an error and let FromError
// pick the envelope:
//
//	errors.WriteError(w, errors.FromError(err))
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorType represents the category of a failure. Each type maps to a fixed
// HTTP status, except HTTPErrorType which carries its own.
type ErrorType string

const (
	// ValidationError represents request body or field validation failures (422)
	ValidationError ErrorType = "validation_error"

	// HTTPErrorType represents an explicit HTTP-level failure raised by handler
	// logic, such as an unsupported media type (415) or an unavailable upstream (503)
	HTTPErrorType ErrorType = "http_error"

	// ValueError represents a value or range check failing outside the schema layer (400)
	ValueError ErrorType = "value_error"

	// InternalError represents unexpected internal server errors (500)
	InternalError ErrorType = "internal_error"
)

// ServiceError is the error type returned across package boundaries when a
// request must fail with a specific envelope. The wrapped error is kept for
// logging and never serialized.
type ServiceError struct {
	// Type categorizes the error for client handling
	Type ErrorType

	// Message is a short human-readable description
	Message string

	// Details carries additional context, e.g. the per-field validation list
	Details string

	// Code is the HTTP status code
	Code int

	err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.err
}

// Is matches on error type only, so errors.Is(err, &ServiceError{Type: ValidationError})
// reports whether err is any validation error.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WriteError writes err as a JSON error envelope with its status code.
func WriteError(w http.ResponseWriter, err *ServiceError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err.Response())
}

// Response converts the error into its wire representation.
func (e *ServiceError) Response() ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Type:    e.Type,
			Message: e.Message,
			Details: e.Details,
		},
	}
}

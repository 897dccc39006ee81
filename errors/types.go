package errors

import (
	"fmt"
	"net/http"
	"strings"
)

const (
	validationMessage = "Request validation failed"
	internalMessage   = "Internal server error"
	internalDetails   = "An unexpected error occurred while handling the request"
)

// FieldError describes one violated field of a request body.
type FieldError struct {
	Field  string
	Reason string
}

// String formats the entry as "field: reason".
func (f FieldError) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Reason)
}

// NewValidationError creates a 422 error listing every violated field.
//
// Example:
//
//	err := NewValidationError([]FieldError{{Field: "task", Reason: "Field required"}})
//	// details: "task: Field required"
func NewValidationError(fields []FieldError) *ServiceError {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.String()
	}
	return &ServiceError{
		Type:    ValidationError,
		Message: validationMessage,
		Details: strings.Join(parts, "; "),
		Code:    http.StatusUnprocessableEntity,
	}
}

// NewHTTPError creates an http_error with the given status. The message is
// always "HTTP <code>"; details carries the reason.
//
// Example:
//
//	err := NewHTTPError(http.StatusUnsupportedMediaType, "Content-Type must be application/json")
func NewHTTPError(code int, details string) *ServiceError {
	return &ServiceError{
		Type:    HTTPErrorType,
		Message: fmt.Sprintf("HTTP %d", code),
		Details: details,
		Code:    code,
	}
}

// NewValueError creates a 400 error whose details are the message of err.
func NewValueError(err error) *ServiceError {
	return &ServiceError{
		Type:    ValueError,
		Message: "Invalid value",
		Details: err.Error(),
		Code:    http.StatusBadRequest,
		err:     err,
	}
}

// NewInternalError creates a 500 error. The cause is retained for logging
// only; clients see a generic message.
func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Type:    InternalError,
		Message: internalMessage,
		Details: internalDetails,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

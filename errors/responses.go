package errors

import (
	"errors"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail holds the fields of an error envelope.
type ErrorDetail struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Details string    `json:"details"`
}

// As is a wrapper around errors.As for better error type assertion
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// FromError maps any error onto a ServiceError. A ServiceError anywhere in
// the chain is returned as is; everything else becomes an internal error.
func FromError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return NewInternalError(err)
}

// Package validation decodes and validates /process request bodies.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/teilomillet/taskgate/errors"
	"github.com/teilomillet/taskgate/server/processing"
)

const jsonContentType = "application/json"

// Field bounds, counted in characters after trimming.
const (
	MaxTaskLength    = 100
	MaxContentLength = 10000
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("failed to register notblank validator: %v", err))
	}
	return v
}

// ProcessRequest is the wire shape of a /process body. Pointers distinguish
// a missing field from an empty one.
type ProcessRequest struct {
	Task    *string `json:"task" validate:"required,notblank,max=100"`
	Content *string `json:"content" validate:"required,notblank,max=10000"`
}

// DecodeProcessRequest reads, decodes and validates the body of r. Failures
// are *errors.ServiceError values: 415 for a non-JSON content type, 413 for
// an oversized body and 422 for anything wrong with the fields. All field
// violations are reported together.
func DecodeProcessRequest(r *http.Request, maxBytes int64) (processing.Request, error) {
	if !isJSON(r.Header.Get("Content-Type")) {
		return processing.Request{}, errors.NewHTTPError(http.StatusUnsupportedMediaType,
			"Content-Type must be application/json")
	}

	body, err := readBody(r.Body, maxBytes)
	if err != nil {
		return processing.Request{}, err
	}

	req, typeErrs, err := decode(body)
	if err != nil {
		return processing.Request{}, err
	}

	trim(req.Task)
	trim(req.Content)

	if fieldErrs := merge(typeErrs, validate.Struct(req)); len(fieldErrs) > 0 {
		return processing.Request{}, errors.NewValidationError(fieldErrs)
	}

	return processing.Request{Task: *req.Task, Content: *req.Content}, nil
}

// isJSON reports whether the Content-Type header starts with application/json,
// ignoring case.
func isJSON(contentType string) bool {
	return len(contentType) >= len(jsonContentType) &&
		strings.EqualFold(contentType[:len(jsonContentType)], jsonContentType)
}

func readBody(body io.Reader, maxBytes int64) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if maxBytes > 0 {
		body = io.LimitReader(body, maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("failed to read request body: %v", err))
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, errors.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", maxBytes))
	}
	return data, nil
}

// decode parses body into a ProcessRequest. A body that is not a JSON object
// fails outright; fields present with a non-string value are returned as
// field errors and left nil.
func decode(body []byte) (*ProcessRequest, []errors.FieldError, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil, bodyError("Field required")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, nil, bodyError("Input should be a valid object")
		}
		return nil, nil, bodyError(fmt.Sprintf("JSON decode error: %v", err))
	}
	if raw == nil {
		return nil, nil, bodyError("Input should be a valid object")
	}

	req := &ProcessRequest{}
	var fieldErrs []errors.FieldError
	for _, f := range []struct {
		name string
		dst  **string
	}{
		{"task", &req.Task},
		{"content", &req.Content},
	} {
		v, ok := raw[f.name]
		if !ok {
			continue
		}
		var s string
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) || json.Unmarshal(v, &s) != nil {
			fieldErrs = append(fieldErrs, errors.FieldError{Field: f.name, Reason: "Input should be a valid string"})
			continue
		}
		*f.dst = &s
	}
	return req, fieldErrs, nil
}

func bodyError(reason string) error {
	return errors.NewValidationError([]errors.FieldError{{Field: "body", Reason: reason}})
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// merge combines type errors with validator errors into one list ordered
// task, content. A field with a type error is not reported twice.
func merge(typeErrs []errors.FieldError, err error) []errors.FieldError {
	byField := make(map[string]errors.FieldError, 2)
	for _, fe := range typeErrs {
		byField[fe.Field] = fe
	}

	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []errors.FieldError{{Field: "body", Reason: err.Error()}}
		}
		for _, fe := range verrs {
			if _, seen := byField[fe.Field()]; !seen {
				byField[fe.Field()] = errors.FieldError{Field: fe.Field(), Reason: reason(fe)}
			}
		}
	}

	var out []errors.FieldError
	for _, name := range []string{"task", "content"} {
		if fe, ok := byField[name]; ok {
			out = append(out, fe)
		}
	}
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field required"
	case "notblank":
		return "String should have at least 1 non-whitespace character"
	case "max":
		return fmt.Sprintf("String should have at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}

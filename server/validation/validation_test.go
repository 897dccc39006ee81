package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teilomillet/taskgate/errors"
	"github.com/teilomillet/taskgate/server/processing"
)

func newRequest(contentType, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func TestDecodeProcessRequest_Valid(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        processing.Request
	}{
		{
			name:        "plain",
			contentType: "application/json",
			body:        `{"task":"organize","content":"a b c d"}`,
			want:        processing.Request{Task: "organize", Content: "a b c d"},
		},
		{
			name:        "charset suffix and mixed case",
			contentType: "Application/JSON; charset=utf-8",
			body:        `{"task":"organize","content":"x"}`,
			want:        processing.Request{Task: "organize", Content: "x"},
		},
		{
			name:        "fields are trimmed",
			contentType: "application/json",
			body:        `{"task":"  organize \n","content":"\t body  "}`,
			want:        processing.Request{Task: "organize", Content: "body"},
		},
		{
			name:        "bounds are inclusive",
			contentType: "application/json",
			body:        `{"task":"` + strings.Repeat("t", 100) + `","content":"` + strings.Repeat("c", 10000) + `"}`,
			want:        processing.Request{Task: strings.Repeat("t", 100), Content: strings.Repeat("c", 10000)},
		},
		{
			name:        "length counts characters not bytes",
			contentType: "application/json",
			body:        `{"task":"` + strings.Repeat("é", 100) + `","content":"ü"}`,
			want:        processing.Request{Task: strings.Repeat("é", 100), Content: "ü"},
		},
		{
			name:        "unknown fields are ignored",
			contentType: "application/json",
			body:        `{"task":"t","content":"c","extra":1}`,
			want:        processing.Request{Task: "t", Content: "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeProcessRequest(newRequest(tt.contentType, tt.body), 1<<20)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeProcessRequest_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		maxBytes    int64
		wantType    errors.ErrorType
		wantCode    int
		wantDetails []string
	}{
		{
			name:        "task missing",
			contentType: "application/json",
			body:        `{"content":"x"}`,
			wantType:    errors.ValidationError,
			wantCode:    http.StatusUnprocessableEntity,
			wantDetails: []string{"task: Field required"},
		},
		{
			name:        "content too long",
			contentType: "application/json",
			body:        `{"task":"organize","content":"` + strings.Repeat("x", 10001) + `"}`,
			wantType:    errors.ValidationError,
			wantCode:    http.StatusUnprocessableEntity,
			wantDetails: []string{"content: String should have at most 10000 characters"},
		},
		{
			name:        "task too long",
			contentType: "application/json",
			body:        `{"task":"` + strings.Repeat("t", 101) + `","content":"x"}`,
			wantType:    errors.ValidationError,
			wantCode:    http.StatusUnprocessableEntity,
			wantDetails: []string{"task: String should have at most 100 characters"},
		},
		{
			name:        "every violated field is listed",
			contentType: "application/json",
			body:        `{"task":"   ","content":""}`,
			wantType:    errors.ValidationError,
			wantCode:    http.StatusUnprocessableEntity,
			wantDetails: []string{
				"task: String should have at least 1 non-whitespace character",
				"content: String should have at least 1 non-whitespace character",
			},
		},
		{
			name:        "both missing",
			contentType: "application/json",
			body:        `{}`,
			wantType:    errors.ValidationError,
			wantCode:    http.StatusUnprocessableEntity,
			wantDetails: []string{"task: Field required; content: Field required"},
		},
		{
			name:        "wrong type with missing sibling",
			contentType: "application/json",
			body:        `{"task":42}`,
			wantType:    errors.ValidationError,
			wantCode:    http.StatusUnprocessableEntity,
			wantDetails: []string{"task: Input should be a valid string; content: Field required"},
		},
		{
			name:        "null field",
			contentType: "application/json",
			body:        `{"task":"t","content":null}`,
			wantType:    errors.ValidationError,
			wantCode:    http.StatusUnprocessableEntity,
			wantDetails: []string{"content: Input should be a valid string"},
		},
		{
			name:        "malformed json",
			contentType: "application/json",
			body:        `{"task":`,
			wantType:    errors.ValidationError,
			wantCode:    http.StatusUnprocessableEntity,
			wantDetails: []string{"body: JSON decode error"},
		},
		{
			name:        "array body",
			contentType: "application/json",
			body:        `["task","content"]`,
			wantType:    errors.ValidationError,
			wantCode:    http.StatusUnprocessableEntity,
			wantDetails: []string{"body: Input should be a valid object"},
		},
		{
			name:        "empty body",
			contentType: "application/json",
			body:        ``,
			wantType:    errors.ValidationError,
			wantCode:    http.StatusUnprocessableEntity,
			wantDetails: []string{"body: Field required"},
		},
		{
			name:        "form content type",
			contentType: "application/x-www-form-urlencoded",
			body:        `task=organize&content=x`,
			wantType:    errors.HTTPErrorType,
			wantCode:    http.StatusUnsupportedMediaType,
			wantDetails: []string{"application/json"},
		},
		{
			name:        "content type checked before fields",
			contentType: "text/plain",
			body:        `{}`,
			wantType:    errors.HTTPErrorType,
			wantCode:    http.StatusUnsupportedMediaType,
		},
		{
			name:        "no content type",
			body:        `{"task":"t","content":"c"}`,
			wantType:    errors.HTTPErrorType,
			wantCode:    http.StatusUnsupportedMediaType,
		},
		{
			name:        "body too large",
			contentType: "application/json",
			body:        `{"task":"t","content":"` + strings.Repeat("x", 64) + `"}`,
			maxBytes:    32,
			wantType:    errors.HTTPErrorType,
			wantCode:    http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxBytes := tt.maxBytes
			if maxBytes == 0 {
				maxBytes = 1 << 20
			}

			_, err := DecodeProcessRequest(newRequest(tt.contentType, tt.body), maxBytes)
			require.Error(t, err)

			var se *errors.ServiceError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.wantType, se.Type)
			assert.Equal(t, tt.wantCode, se.Code)
			for _, d := range tt.wantDetails {
				assert.Contains(t, se.Details, d)
			}
		})
	}
}

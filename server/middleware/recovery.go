package middleware

import (
	"net/http"

	"github.com/teilomillet/taskgate/errors"
	"go.uber.org/zap"
)

// Recovery middleware recovers from panics, logs the stack and writes an
// internal_error envelope. It must run after RequestID so the log line
// carries the request id. observer may be nil.
func Recovery(logger *zap.Logger, observer errors.Observer) func(http.Handler) http.Handler {
	return errors.ErrorHandler(logger, observer)
}

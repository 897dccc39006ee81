package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Observer counts error responses by type. *metrics.Metrics implements it.
type Observer interface {
	ObserveError(errorType string)
}

// ErrorHandler wraps an http.Handler and turns panics into internal errors.
// When the handler already sent a status line, the partial response is
// left as is and only the log line is written. observer may be nil.
func ErrorHandler(logger *zap.Logger, observer Observer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					headerSent := ww.Status() != 0
					logger.Error("panic recovered",
						zap.Any("error", rec),
						zap.ByteString("stacktrace", debug.Stack()),
						zap.String("request_id", w.Header().Get("X-Request-ID")),
						zap.String("route", r.URL.Path),
						zap.Bool("response_started", headerSent),
					)
					if observer != nil {
						observer.ObserveError(string(InternalError))
					}
					if headerSent {
						return
					}
					WriteError(w, NewInternalError(fmt.Errorf("panic: %v", rec)))
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// LogError logs a failed request with enough context to diagnose it.
// Client errors are logged at warn level, server errors at error level.
func LogError(logger *zap.Logger, err error, requestID, route string) {
	se := FromError(err)
	fields := []zap.Field{
		zap.String("error_type", string(se.Type)),
		zap.String("message", se.Message),
		zap.String("details", se.Details),
		zap.Int("status", se.Code),
		zap.String("request_id", requestID),
		zap.String("route", route),
	}
	if cause := se.Unwrap(); cause != nil {
		fields = append(fields, zap.Error(cause))
	}

	if se.Code >= http.StatusInternalServerError {
		logger.Error("request error", fields...)
		return
	}
	logger.Warn("request error", fields...)
}

// Package handlers provides the HTTP handlers of the taskgate server.
//
// Every failure is written as the JSON envelope of the errors package and
// logged with its route, status and request id.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// Service identity reported by the informational endpoints.
const (
	ServiceName    = "taskgate"
	ServiceVersion = "1.0.0"
)

// Response status values of ProcessResponse.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorObserver counts error responses by type. *metrics.Metrics implements it.
type ErrorObserver interface {
	ObserveError(errorType string)
}

// RootResponse is returned by GET /.
type RootResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// ProcessMetadata describes how a /process result was produced.
type ProcessMetadata struct {
	Model            string `json:"model"`
	TokensUsed       int    `json:"tokens_used"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// ProcessResponse is the body of a successful /process call.
type ProcessResponse struct {
	Result   string          `json:"result"`
	Status   string          `json:"status"`
	Metadata ProcessMetadata `json:"metadata"`
}

// RootHandler answers the liveness marker at GET /.
func RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{Message: ServiceName + " service is running"})
}

// HealthHandler reports process liveness. It does not contact the provider.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Version:   ServiceVersion,
		Timestamp: timestamp(time.Now()),
	})
}

// timestamp formats t as UTC ISO-8601 with microseconds and a Z suffix.
func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

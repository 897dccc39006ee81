package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/teilomillet/taskgate/errors"
	"github.com/teilomillet/taskgate/server/middleware"
	"github.com/teilomillet/taskgate/server/processing"
	"github.com/teilomillet/taskgate/server/validation"
	"go.uber.org/zap"
)

// Processor runs a validated request. *processing.Processor implements it.
type Processor interface {
	Process(ctx context.Context, req processing.Request) (*processing.Response, error)
}

// ProcessHandler serves POST /process.
type ProcessHandler struct {
	processor    Processor
	maxBodyBytes int64
	logger       *zap.Logger
	observer     ErrorObserver
}

// NewProcessHandler creates a handler. observer may be nil.
func NewProcessHandler(processor Processor, maxBodyBytes int64, logger *zap.Logger, observer ErrorObserver) *ProcessHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessHandler{
		processor:    processor,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
		observer:     observer,
	}
}

// ServeHTTP decodes and validates the body, runs the processor and writes
// either a ProcessResponse or an error envelope:
//   - 415/413/422 from decoding, before the provider is contacted
//   - 503 http_error when the provider call fails
//   - 400 value_error when the prompt cannot be built
//   - 500 internal_error for anything else
func (h *ProcessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := middleware.LoggerFromContext(r.Context(), h.logger)

	req, err := validation.DecodeProcessRequest(r, h.maxBodyBytes)
	if err != nil {
		h.fail(w, r, logger, err)
		return
	}

	resp, err := h.processor.Process(r.Context(), req)
	if err != nil {
		h.fail(w, r, logger, err)
		return
	}

	elapsed := time.Since(start).Milliseconds()
	logger.Info("task processed",
		zap.String("task", req.Task),
		zap.String("model", resp.Model),
		zap.Int("tokens_used", resp.TokensUsed),
		zap.Int64("processing_time_ms", elapsed),
	)

	writeJSON(w, http.StatusOK, ProcessResponse{
		Result: resp.Result,
		Status: StatusSuccess,
		Metadata: ProcessMetadata{
			Model:            resp.Model,
			TokensUsed:       resp.TokensUsed,
			ProcessingTimeMs: elapsed,
		},
	})
}

func (h *ProcessHandler) fail(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	se := errors.FromError(err)
	errors.LogError(logger, err, middleware.GetRequestID(r.Context()), r.URL.Path)
	if h.observer != nil {
		h.observer.ObserveError(string(se.Type))
	}
	errors.WriteError(w, se)
}

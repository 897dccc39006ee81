// Package routing wires the taskgate handlers and middleware onto a chi router.
package routing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/teilomillet/taskgate/config"
	"github.com/teilomillet/taskgate/errors"
	"github.com/teilomillet/taskgate/server/metrics"
	"github.com/teilomillet/taskgate/server/middleware"
	"go.uber.org/zap"
)

// Handlers groups the endpoint implementations mounted by the router.
type Handlers struct {
	Root    http.Handler
	Health  http.Handler
	Process http.Handler
}

// Router is the HTTP entry point of the server.
type Router struct {
	router   chi.Router
	logger   *zap.Logger
	observer errors.Observer
}

// NewRouter builds the router with the global middleware stack:
// request id, response timer, logging, panic recovery, CORS and, when m is
// not nil, Prometheus metrics. The metrics route is mounted only when
// cfg.Metrics.Enabled is set.
func NewRouter(cfg *config.Config, h Handlers, m *metrics.Metrics, logger *zap.Logger) *Router {
	r := &Router{
		router: chi.NewRouter(),
		logger: logger,
	}
	if m != nil {
		r.observer = m
	}

	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RequestTimer)
	r.router.Use(middleware.Logging(logger))
	r.router.Use(middleware.Recovery(logger, r.observer))
	r.router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	if m != nil {
		r.router.Use(middleware.PrometheusMetrics(m))
	}

	r.router.NotFound(r.notFound)
	r.router.MethodNotAllowed(r.methodNotAllowed)

	r.router.Method(http.MethodGet, "/", h.Root)
	r.router.Method(http.MethodGet, "/health", h.Health)
	r.router.Method(http.MethodPost, "/process", h.Process)

	if cfg.Metrics.Enabled && m != nil {
		RegisterMetricsRoutes(r.router, cfg.Metrics.Path, m)
	}

	return r
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

func (r *Router) notFound(w http.ResponseWriter, req *http.Request) {
	r.writeError(w, errors.NewHTTPError(http.StatusNotFound, "Not Found"))
}

func (r *Router) methodNotAllowed(w http.ResponseWriter, req *http.Request) {
	r.writeError(w, errors.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"))
}

func (r *Router) writeError(w http.ResponseWriter, err *errors.ServiceError) {
	if r.observer != nil {
		r.observer.ObserveError(string(err.Type))
	}
	errors.WriteError(w, err)
}

package routing

import (
	"github.com/go-chi/chi/v5"
	"github.com/teilomillet/taskgate/server/metrics"
)

// RegisterMetricsRoutes adds the Prometheus scrape route at path.
func RegisterMetricsRoutes(r chi.Router, path string, m *metrics.Metrics) {
	r.Method("GET", path, m.Handler())
}

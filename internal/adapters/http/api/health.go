package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/tariffa/pkg/metrics"
)

// HealthHandler answers liveness checks with the metrics exposition, so a
// scrape doubles as a health check.
type HealthHandler struct {
	exposition http.Handler
}

// NewHealthHandler serves gatherer, or the service registry when nil.
func NewHealthHandler(gatherer prometheus.Gatherer) *HealthHandler {
	if gatherer == nil {
		gatherer = metrics.GetRegistry()
	}
	return &HealthHandler{
		exposition: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError}),
	}
}

// HandleHealth handles GET /healthz.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	h.exposition.ServeHTTP(w, r)
}

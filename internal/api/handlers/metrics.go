package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"climagrid/internal/core"
	"climagrid/internal/types"
)

// MetricsHandler serves the static metric catalog.
type MetricsHandler struct{}

// NewMetricsHandler creates a MetricsHandler.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// RegisterRoutes mounts the catalog endpoint onto the mux.
func (h *MetricsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/metrics", h.HandleList)
}

// HandleList handles GET /metrics. The catalog is static, process-wide, and
// read-only, so the response is always the same.
func (h *MetricsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: types.MetricCatalog})
}

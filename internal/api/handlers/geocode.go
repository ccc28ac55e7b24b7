package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"climagrid/internal/core"
	"climagrid/internal/types"
)

// Geocode query constraints.
const (
	minQueryLength = 2
	defaultCount   = 5
	minCount       = 1
	maxCount       = 10
)

// GeocodeSearcher defines the service contract for the geocode handler.
// Matches the adapter in the geocode package but is defined locally to avoid
// tight coupling.
type GeocodeSearcher interface {
	Search(ctx context.Context, query string, count int) ([]types.GeocodeResult, error)
}

// GeocodeHandler maps HTTP requests to the geocode adapter.
type GeocodeHandler struct {
	searcher GeocodeSearcher
	logger   *slog.Logger
}

// NewGeocodeHandler creates a GeocodeHandler with the provided dependencies.
func NewGeocodeHandler(searcher GeocodeSearcher, logger *slog.Logger) *GeocodeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeocodeHandler{
		searcher: searcher,
		logger:   logger,
	}
}

// RegisterRoutes mounts the geocode endpoint onto the mux.
func (h *GeocodeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/geocode", h.HandleSearch)
}

// HandleSearch handles GET /geocode.
//  1. Parse query params: query (>= 2 characters), count (default 5, [1, 10]).
//  2. Call the geocode adapter.
//  3. Return the result list, provider order preserved.
func (h *GeocodeHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := q.Get("query")
	if utf8.RuneCountInString(query) < minQueryLength {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidQuery,
			"query must be at least 2 characters",
			nil,
		))
		return
	}

	count, err := parseIntParam(q, "count", defaultCount, minCount, maxCount, types.ErrCodeValidationInvalidCount)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	results, err := h.searcher.Search(r.Context(), query, count)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: results})
}

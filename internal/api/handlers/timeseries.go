package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"climagrid/internal/core"
	"climagrid/internal/types"
)

// Timeseries horizon bounds.
const (
	defaultTimeseriesHours = 24
	minTimeseriesHours     = 1
	maxTimeseriesHours     = 168
)

// TimeseriesComposer defines the service contract for the timeseries
// handler. Matches the composer in the timeseries package but is defined
// locally to avoid tight coupling.
type TimeseriesComposer interface {
	Compose(ctx context.Context, metric types.Metric, coord types.Coordinate, hours int, includeObservations bool) (*types.TimeseriesResponse, error)
}

// TimeseriesHandler maps HTTP requests to the timeseries composer.
type TimeseriesHandler struct {
	composer TimeseriesComposer
	logger   *slog.Logger
}

// NewTimeseriesHandler creates a TimeseriesHandler with the provided
// dependencies.
func NewTimeseriesHandler(composer TimeseriesComposer, logger *slog.Logger) *TimeseriesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimeseriesHandler{
		composer: composer,
		logger:   logger,
	}
}

// RegisterRoutes mounts the timeseries endpoint onto the mux.
func (h *TimeseriesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/timeseries", h.HandleGet)
}

// HandleGet handles GET /timeseries.
//  1. Parse query params: metric (default temperature), latitude, longitude,
//     hours (default 24, [1, 168]), include_user_observations (default true).
//  2. Call the composer.
//  3. Return the combined forecast-plus-observations response.
func (h *TimeseriesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	metricRaw := q.Get("metric")
	if metricRaw == "" {
		metricRaw = string(types.MetricTemperature)
	}
	metric, err := types.ParseMetric(metricRaw)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	lat, err := requireFloatParam(q, "latitude", types.ErrCodeValidationInvalidLat)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	lon, err := requireFloatParam(q, "longitude", types.ErrCodeValidationInvalidLon)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	coord := types.Coordinate{Latitude: lat, Longitude: lon}
	if err := coord.Validate(); err != nil {
		core.Error(w, r, err)
		return
	}

	hours, err := parseIntParam(q, "hours", defaultTimeseriesHours, minTimeseriesHours, maxTimeseriesHours, types.ErrCodeValidationInvalidHours)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	includeObservations, err := parseBoolParam(q, "include_user_observations", true)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	series, err := h.composer.Compose(r.Context(), metric, coord, hours, includeObservations)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: series})
}

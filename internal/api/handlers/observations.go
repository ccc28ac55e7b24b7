package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"climagrid/internal/core"
	"climagrid/internal/store"
	"climagrid/internal/types"
)

// Observation listing bounds.
const (
	defaultListHours = 72
	minListHours     = 1
	maxListHours     = 240
	defaultRadiusKm  = 100.0
	minRadiusKm      = 0.1
	maxRadiusKm      = 500.0
)

// defaultObservationSource is assigned when a submission omits the source.
const defaultObservationSource = "user"

// ObservationStore defines the store contract for the observations handler.
type ObservationStore interface {
	Append(rec types.ObservationRecord)
	Query(filter store.QueryFilter) []types.ObservationRecord
}

// ObservationsHandler maps HTTP requests to the observation store.
type ObservationsHandler struct {
	store     ObservationStore
	validator *core.Validator
	logger    *slog.Logger
	clock     types.Clock
}

// NewObservationsHandler creates an ObservationsHandler with the provided
// dependencies.
func NewObservationsHandler(st ObservationStore, val *core.Validator, logger *slog.Logger, clock types.Clock) *ObservationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	return &ObservationsHandler{
		store:     st,
		validator: val,
		logger:    logger,
		clock:     clock,
	}
}

// RegisterRoutes mounts the observation endpoints onto the mux.
func (h *ObservationsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/observations", h.HandleList)
	r.Post("/observations", h.HandleCreate)
}

// HandleList handles GET /observations. Latitude and longitude are optional;
// the geo filter applies only when both are present, otherwise records pass
// subject to the metric and age filters alone.
func (h *ObservationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var metric *types.Metric
	if raw := q.Get("metric"); raw != "" {
		m, err := types.ParseMetric(raw)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		metric = &m
	}

	lat, err := parseFloatParam(q, "latitude", types.ErrCodeValidationInvalidLat)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	lon, err := parseFloatParam(q, "longitude", types.ErrCodeValidationInvalidLon)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	var center *types.Coordinate
	if lat != nil && lon != nil {
		c := types.Coordinate{Latitude: *lat, Longitude: *lon}
		if err := c.Validate(); err != nil {
			core.Error(w, r, err)
			return
		}
		center = &c
	}

	radiusKm := defaultRadiusKm
	if raw, err := parseFloatParam(q, "radius_km", types.ErrCodeValidationInvalidRadius); err != nil {
		core.Error(w, r, err)
		return
	} else if raw != nil {
		if *raw < minRadiusKm || *raw > maxRadiusKm {
			core.Error(w, r, types.NewAppError(
				types.ErrCodeValidationInvalidRadius,
				"radius_km must be in [0.1, 500]",
				nil,
			))
			return
		}
		radiusKm = *raw
	}

	hours, err := parseIntParam(q, "hours", defaultListHours, minListHours, maxListHours, types.ErrCodeValidationInvalidHours)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	records := h.store.Query(store.QueryFilter{
		Center:      center,
		Metric:      metric,
		MaxAgeHours: hours,
		RadiusKm:    radiusKm,
		Now:         h.clock.Now(),
	})

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: records})
}

// ObservationInput is the POST /observations request body. Pointer fields
// distinguish absent values from zero values.
type ObservationInput struct {
	Timestamp    *time.Time `json:"timestamp"`
	Metric       string     `json:"metric" validate:"required"`
	Value        *float64   `json:"value" validate:"required"`
	Latitude     *float64   `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude    *float64   `json:"longitude" validate:"required,gte=-180,lte=180"`
	LocationName string     `json:"location_name" validate:"omitempty,max=120"`
	Source       string     `json:"source" validate:"omitempty,max=80"`
	Notes        string     `json:"notes" validate:"omitempty,max=240"`
}

// HandleCreate handles POST /observations. The server assigns the record id
// and submission timestamp; the observation timestamp defaults to the
// submission time when omitted.
func (h *ObservationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input ObservationInput
	if err := core.DecodeJSON(w, r, &input); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.validator.ValidateStruct(&input); err != nil {
		core.Error(w, r, err)
		return
	}

	metric, err := types.ParseMetric(input.Metric)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	now := h.clock.Now()

	timestamp := now
	if input.Timestamp != nil {
		timestamp = input.Timestamp.UTC()
	}

	source := input.Source
	if source == "" {
		source = defaultObservationSource
	}

	record := types.ObservationRecord{
		Observation: types.Observation{
			Timestamp:    timestamp,
			Metric:       metric,
			Value:        *input.Value,
			Latitude:     *input.Latitude,
			Longitude:    *input.Longitude,
			LocationName: input.LocationName,
			Source:       source,
			Notes:        input.Notes,
		},
		ID:          uuid.New().String(),
		SubmittedAt: now,
	}

	h.store.Append(record)

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: record})
}

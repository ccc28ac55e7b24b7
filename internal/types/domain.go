// Package types defines the shared domain model for the ClimaGrid API:
// the metric catalog, coordinates, timeseries and observation shapes, and
// the application error taxonomy used across all components.
package types

import (
	"fmt"
	"math"
	"time"
)

// Metric identifies one of the supported weather variables. The set is
// closed; anything not in the catalog is rejected at the API boundary.
type Metric string

const (
	MetricTemperature   Metric = "temperature"
	MetricHumidity      Metric = "humidity"
	MetricPrecipitation Metric = "precipitation"
	MetricWindspeed     Metric = "windspeed"
)

// MetricInfo describes a metric's presentation and its upstream hourly field.
type MetricInfo struct {
	Label    string `json:"label"`
	APIField string `json:"api_field"`
	Unit     string `json:"unit"`
}

// MetricCatalog is the authoritative catalog of supported metrics.
// It is initialized once and never mutated; all components read from it.
var MetricCatalog = map[Metric]MetricInfo{
	MetricTemperature:   {Label: "Air Temperature", APIField: "temperature_2m", Unit: "°C"},
	MetricHumidity:      {Label: "Relative Humidity", APIField: "relativehumidity_2m", Unit: "%"},
	MetricPrecipitation: {Label: "Precipitation", APIField: "precipitation", Unit: "mm"},
	MetricWindspeed:     {Label: "Wind Speed", APIField: "windspeed_10m", Unit: "km/h"},
}

// ParseMetric validates a raw metric string against the catalog.
func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	if _, ok := MetricCatalog[m]; !ok {
		return "", NewAppError(
			ErrCodeValidationInvalidMetric,
			fmt.Sprintf("metric '%s' not supported", s),
			nil,
		)
	}
	return m, nil
}

// Coordinate bounds.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that the coordinate lies within valid bounds. NaN and
// infinite values are rejected: they slip past plain range comparisons and
// would poison downstream distance math.
func (c Coordinate) Validate() error {
	if !isFinite(c.Latitude) || c.Latitude < MinLat || c.Latitude > MaxLat {
		return NewAppError(
			ErrCodeValidationInvalidLat,
			fmt.Sprintf("latitude %.4f outside valid range [%.0f, %.0f]", c.Latitude, MinLat, MaxLat),
			nil,
		)
	}
	if !isFinite(c.Longitude) || c.Longitude < MinLon || c.Longitude > MaxLon {
		return NewAppError(
			ErrCodeValidationInvalidLon,
			fmt.Sprintf("longitude %.4f outside valid range [%.0f, %.0f]", c.Longitude, MinLon, MaxLon),
			nil,
		)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// TimeseriesPoint is a single timestamped forecast value. Points are produced
// only by the forecast fetcher and keep upstream (chronological) order.
type TimeseriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Observation is a user-submitted weather reading. Timestamp defaults to the
// submission time when the caller omits it.
type Observation struct {
	Timestamp    time.Time `json:"timestamp"`
	Metric       Metric    `json:"metric"`
	Value        float64   `json:"value"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	LocationName string    `json:"location_name,omitempty"`
	Source       string    `json:"source,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// Coordinate returns the observation's location as a Coordinate.
func (o Observation) Coordinate() Coordinate {
	return Coordinate{Latitude: o.Latitude, Longitude: o.Longitude}
}

// ObservationRecord is an accepted Observation with its system-assigned
// identity. Records are immutable once created and live for the process
// lifetime.
type ObservationRecord struct {
	Observation
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// TimeseriesResponse is the composed forecast-plus-observations payload for
// one metric at one location.
type TimeseriesResponse struct {
	Metric           Metric              `json:"metric"`
	MetricLabel      string              `json:"metric_label"`
	Unit             string              `json:"unit"`
	Latitude         float64             `json:"latitude"`
	Longitude        float64             `json:"longitude"`
	HoursRequested   int                 `json:"hours_requested"`
	Source           string              `json:"source"`
	Points           []TimeseriesPoint   `json:"points"`
	UserObservations []ObservationRecord `json:"user_observations"`
}

// GeocodeResult is one place-name match from the geocoding provider.
// Optional fields stay empty when the provider omits them.
type GeocodeResult struct {
	ID        int64   `json:"id,omitempty"`
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Admin1    string  `json:"admin1,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
}

// DisplayName derives a human-readable label: name, then region if present,
// then country if present, comma-joined.
func (g GeocodeResult) DisplayName() string {
	label := g.Name
	if g.Admin1 != "" {
		label += ", " + g.Admin1
	}
	if g.Country != "" {
		label += ", " + g.Country
	}
	return label
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current UTC time.
func (RealClock) Now() time.Time { return time.Now().UTC() }

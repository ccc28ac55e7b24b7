// Package forecast retrieves hourly forecast data from the upstream
// Open-Meteo provider and normalizes it into a bounded, typed sequence of
// timestamped values.
package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"climagrid/internal/types"
	"climagrid/internal/upstream"
)

// SourceTag identifies the upstream provider in composed responses.
const SourceTag = "open-meteo"

// maxForecastDays caps the whole-day granularity of the upstream query.
const maxForecastDays = 7

// timestampLayouts are tried in order when parsing upstream hourly
// timestamps. Open-Meteo returns zone-less ISO-8601 when queried with
// timezone=UTC; a trailing "Z" is treated as a UTC offset.
var timestampLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Fetcher calls the upstream forecast endpoint and assembles the point
// sequence for one metric at one location.
type Fetcher struct {
	client  *upstream.Client
	baseURL string
	logger  *slog.Logger
	clock   types.Clock
}

// NewFetcher creates a Fetcher. baseURL is the forecast endpoint without
// query parameters.
func NewFetcher(client *upstream.Client, baseURL string, logger *slog.Logger, clock types.Clock) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Fetcher{
		client:  client,
		baseURL: baseURL,
		logger:  logger,
		clock:   clock,
	}
}

// hourlyPayload mirrors the upstream response shape. The value array's key
// varies by metric, so the hourly block is kept raw and picked apart after
// decoding.
type hourlyPayload struct {
	Hourly map[string]json.RawMessage `json:"hourly"`
}

// Fetch retrieves and windows the hourly series for the metric at the given
// coordinate. The returned response carries points and metadata only; the
// composer fills user_observations.
//
// The upstream query is issued in whole-day granularity: forecast_days is
// ceil(hours/24) clamped to [1, 7]. Parsing stops entirely at the first
// timestamp past now+hours, so a spurious far-future timestamp from the
// provider drops all later entries.
func (f *Fetcher) Fetch(ctx context.Context, metric types.Metric, coord types.Coordinate, hours int) (*types.TimeseriesResponse, error) {
	info, ok := types.MetricCatalog[metric]
	if !ok {
		return nil, types.NewAppError(
			types.ErrCodeValidationInvalidMetric,
			fmt.Sprintf("metric '%s' not supported", metric),
			nil,
		)
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	params.Set("hourly", info.APIField)
	params.Set("forecast_days", strconv.Itoa(clampForecastDays(hours)))
	params.Set("timezone", "UTC")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to build forecast request",
			err,
		)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload hourlyPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamData,
			"upstream forecast response is not valid JSON",
			err,
		)
	}

	var timestamps []string
	if raw, ok := payload.Hourly["time"]; ok {
		if err := json.Unmarshal(raw, &timestamps); err != nil {
			return nil, types.NewAppError(
				types.ErrCodeUpstreamData,
				"upstream forecast time array is malformed",
				err,
			)
		}
	}

	var values []*float64
	if raw, ok := payload.Hourly[info.APIField]; ok {
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, types.NewAppError(
				types.ErrCodeUpstreamData,
				fmt.Sprintf("upstream forecast %s array is malformed", info.APIField),
				err,
			)
		}
	}

	if len(timestamps) == 0 || len(values) == 0 {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamData,
			fmt.Sprintf("no %s data returned for location", info.Label),
			nil,
		)
	}

	now := f.clock.Now()
	cutoff := now.Add(time.Duration(hours) * time.Hour)

	n := len(timestamps)
	if len(values) < n {
		n = len(values)
	}

	points := make([]types.TimeseriesPoint, 0, n)
	for i := 0; i < n; i++ {
		ts, ok := parseTimestamp(timestamps[i])
		if !ok {
			f.logger.WarnContext(ctx, "skipping unparseable upstream timestamp",
				"raw", timestamps[i],
			)
			continue
		}
		if ts.After(cutoff) {
			break
		}
		if values[i] == nil {
			continue
		}
		points = append(points, types.TimeseriesPoint{Timestamp: ts, Value: *values[i]})
	}

	if len(points) == 0 {
		return nil, types.NewAppError(
			types.ErrCodeNoDatapoints,
			"no usable datapoints found for the requested window",
			nil,
		)
	}

	// Safety cap; the early stop above already does most of the bounding.
	if len(points) > hours {
		points = points[:hours]
	}

	return &types.TimeseriesResponse{
		Metric:           metric,
		MetricLabel:      info.Label,
		Unit:             info.Unit,
		Latitude:         coord.Latitude,
		Longitude:        coord.Longitude,
		HoursRequested:   hours,
		Source:           SourceTag,
		Points:           points,
		UserObservations: []types.ObservationRecord{},
	}, nil
}

// clampForecastDays converts an hour horizon into whole upstream forecast
// days, clamped to [1, maxForecastDays].
func clampForecastDays(hours int) int {
	days := (hours + 23) / 24
	if days < 1 {
		return 1
	}
	if days > maxForecastDays {
		return maxForecastDays
	}
	return days
}

// parseTimestamp parses an upstream hourly timestamp, treating a trailing
// "Z" as a UTC offset. Returns false for unparseable input.
func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

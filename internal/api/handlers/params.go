// Package handlers contains the HTTP handler implementations for the
// ClimaGrid API: the metric catalog, geocoding search, composed timeseries
// retrieval, and observation ingestion/listing.
package handlers

import (
	"fmt"
	"math"
	"net/url"
	"strconv"

	"climagrid/internal/types"
)

// parseFloatParam parses an optional float query parameter. Returns nil when
// the parameter is absent. NaN and infinite values are rejected: ParseFloat
// accepts them but range comparisons downstream do not behave.
func parseFloatParam(q url.Values, name string, code types.ErrorCode) (*float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, types.NewAppError(code, fmt.Sprintf("%s must be a valid number", name), nil)
	}
	return &v, nil
}

// requireFloatParam parses a required float query parameter.
func requireFloatParam(q url.Values, name string, code types.ErrorCode) (float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, types.NewAppError(
			types.ErrCodeValidationMissingField,
			fmt.Sprintf("%s query parameter is required", name),
			nil,
		)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, types.NewAppError(code, fmt.Sprintf("%s must be a valid number", name), nil)
	}
	return v, nil
}

// parseIntParam parses an optional bounded int query parameter, returning
// def when absent.
func parseIntParam(q url.Values, name string, def, min, max int, code types.ErrorCode) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, types.NewAppError(
			code,
			fmt.Sprintf("%s must be an integer in [%d, %d]", name, min, max),
			nil,
		)
	}
	return v, nil
}

// parseBoolParam parses an optional boolean query parameter, returning def
// when absent.
func parseBoolParam(q url.Values, name string, def bool) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, types.NewAppError(
			types.ErrCodeValidationInvalidQuery,
			fmt.Sprintf("%s must be a boolean", name),
			nil,
		)
	}
	return v, nil
}

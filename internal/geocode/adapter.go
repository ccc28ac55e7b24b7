// Package geocode adapts the upstream Open-Meteo geocoding provider into
// the local result shape.
package geocode

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"climagrid/internal/types"
	"climagrid/internal/upstream"
)

// Adapter issues place-name searches against the upstream geocoding
// endpoint and returns the provider's results verbatim, order preserved.
type Adapter struct {
	client  *upstream.Client
	baseURL string
	logger  *slog.Logger
}

// NewAdapter creates an Adapter. baseURL is the geocoding search endpoint
// without query parameters.
func NewAdapter(client *upstream.Client, baseURL string, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client:  client,
		baseURL: baseURL,
		logger:  logger,
	}
}

// searchPayload mirrors the upstream response shape. Optional fields decode
// to their zero values when the provider omits them.
type searchPayload struct {
	Results []types.GeocodeResult `json:"results"`
}

// Search queries the provider for up to count matches of query. A provider
// that responds with zero results yields an empty slice, not an error.
func (a *Adapter) Search(ctx context.Context, query string, count int) ([]types.GeocodeResult, error) {
	params := url.Values{}
	params.Set("name", query)
	params.Set("count", strconv.Itoa(count))
	params.Set("language", "en")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to build geocoding request",
			err,
		)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload searchPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamData,
			"upstream geocoding response is not valid JSON",
			err,
		)
	}

	if payload.Results == nil {
		return []types.GeocodeResult{}, nil
	}
	return payload.Results, nil
}

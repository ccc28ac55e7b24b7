// Package timeseries merges forecast fetcher output with observation store
// query results into a single response.
package timeseries

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"climagrid/internal/store"
	"climagrid/internal/types"
)

// ObservationRadiusKm is the fixed great-circle radius applied when
// attaching user observations to a timeseries response.
const ObservationRadiusKm = 75.0

// ForecastFetcher is the upstream leg of composition. Matches the fetcher in
// the forecast package but is defined locally to keep the composer free of
// provider wiring.
type ForecastFetcher interface {
	Fetch(ctx context.Context, metric types.Metric, coord types.Coordinate, hours int) (*types.TimeseriesResponse, error)
}

// ObservationQuerier is the store leg of composition.
type ObservationQuerier interface {
	Query(filter store.QueryFilter) []types.ObservationRecord
}

// Composer assembles the combined forecast-plus-observations response. It
// performs no I/O of its own beyond delegating to the fetcher.
type Composer struct {
	fetcher ForecastFetcher
	querier ObservationQuerier
	logger  *slog.Logger
	clock   types.Clock
}

// NewComposer creates a Composer with the provided dependencies.
func NewComposer(fetcher ForecastFetcher, querier ObservationQuerier, logger *slog.Logger, clock types.Clock) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Composer{
		fetcher: fetcher,
		querier: querier,
		logger:  logger,
		clock:   clock,
	}
}

// Compose fetches the bounded point sequence and, when includeObservations
// is set, attaches observations of the same metric within
// ObservationRadiusKm of the coordinate and no older than the requested
// horizon. The two legs run concurrently; the store leg is pure in-memory
// and cannot fail, so the forecast error dominates.
func (c *Composer) Compose(ctx context.Context, metric types.Metric, coord types.Coordinate, hours int, includeObservations bool) (*types.TimeseriesResponse, error) {
	var (
		series       *types.TimeseriesResponse
		observations = []types.ObservationRecord{}
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fetched, err := c.fetcher.Fetch(gCtx, metric, coord, hours)
		if err != nil {
			return err
		}
		series = fetched
		return nil
	})

	if includeObservations {
		g.Go(func() error {
			observations = c.querier.Query(store.QueryFilter{
				Center:      &coord,
				Metric:      &metric,
				MaxAgeHours: hours,
				RadiusKm:    ObservationRadiusKm,
				Now:         c.clock.Now(),
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	series.UserObservations = observations
	return series, nil
}

// Package main is the entry point for the ClimaGrid API server.
//
// It initializes the configuration, wires the observation store, upstream
// clients, and domain services, builds the HTTP server with the core chassis
// (middleware, routing, health checks), and starts listening for requests.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"climagrid/internal/api/handlers"
	"climagrid/internal/config"
	"climagrid/internal/core"
	"climagrid/internal/forecast"
	"climagrid/internal/geocode"
	"climagrid/internal/store"
	"climagrid/internal/timeseries"
	"climagrid/internal/types"
	"climagrid/internal/upstream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on
// error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("climagrid API starting",
		"environment", cfg.Environment,
		"service", cfg.Service,
		"port", cfg.Server.Port,
	)

	clock := types.RealClock{}
	observations := store.NewObservationStore()

	// Each provider gets its own HTTP client so the stated timeouts apply
	// per call, and its own breaker so one failing provider does not trip
	// the other.
	forecastClient := upstream.NewClient(
		&http.Client{Timeout: cfg.Upstream.ForecastTimeout},
		"forecast",
		cfg.Upstream.UserAgent,
	)
	geocodeClient := upstream.NewClient(
		&http.Client{Timeout: cfg.Upstream.GeocodeTimeout},
		"geocode",
		cfg.Upstream.UserAgent,
	)

	fetcher := forecast.NewFetcher(forecastClient, cfg.Upstream.ForecastBaseURL, logger, clock)
	composer := timeseries.NewComposer(fetcher, observations, logger, clock)
	geocoder := geocode.NewAdapter(geocodeClient, cfg.Upstream.GeocodeBaseURL, logger)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	metricsHandler := handlers.NewMetricsHandler()
	geocodeHandler := handlers.NewGeocodeHandler(geocoder, logger)
	timeseriesHandler := handlers.NewTimeseriesHandler(composer, logger)
	observationsHandler := handlers.NewObservationsHandler(observations, srv.Validator, logger, clock)

	srv.RouteRegistrars = append(srv.RouteRegistrars,
		metricsHandler.RegisterRoutes,
		geocodeHandler.RegisterRoutes,
		timeseriesHandler.RegisterRoutes,
		observationsHandler.RegisterRoutes,
	)

	// Mount all routes (middleware chain + endpoints + health).
	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger)
}

// runHTTPServer starts the server in standard HTTP mode with graceful
// shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with a 10-second deadline.
	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log
// level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}

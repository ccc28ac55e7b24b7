// Package upstream provides the anti-corruption layer between ClimaGrid
// domain logic and the external weather/geocoding providers. All outbound
// HTTP calls are routed through the Client, which enforces circuit breaking,
// trace propagation, and error mapping. Each call is a single attempt: no
// retries are performed, callers may retry at their layer.
package upstream

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"climagrid/internal/types"
)

// Client wraps an *http.Client and a circuit breaker to enforce consistent
// resilience patterns on all outbound provider calls. The timeout is carried
// by the wrapped http.Client, so a hung provider surfaces as an upstream
// error instead of an unbounded wait.
type Client struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
}

// NewClient creates a Client with the given http client, breaker name, and
// user agent string. The breaker trips after a run of consecutive failures
// and recovers through a half-open probe.
func NewClient(httpClient *http.Client, breakerName, userAgent string) *Client {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return &Client{
		client:    httpClient,
		breaker:   cb,
		userAgent: userAgent,
	}
}

// Do executes the HTTP request with:
//  1. Request ID propagation (X-Request-Id from context)
//  2. User-Agent header injection
//  3. Circuit breaker wrapping
//  4. Error mapping to types.AppError
//
// Do returns the response only for 2xx statuses; the caller is responsible
// for closing the response body. Transport failures, timeouts, non-2xx
// statuses, and an open breaker all map to an upstream AppError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if requestID := types.GetRequestID(req.Context()); requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		// 5xx counts against the breaker; 4xx means the provider is up.
		if r.StatusCode >= 500 {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, c.mapError(resp, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, types.NewAppError(
			types.ErrCodeUpstreamProvider,
			fmt.Sprintf("upstream returned status %d", resp.StatusCode),
			nil,
		)
	}

	return resp, nil
}

// mapError translates HTTP-level failures into domain-level AppErrors.
func (c *Client) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamProvider,
			"circuit breaker is open; upstream service unavailable",
			err,
		)
	}

	if resp != nil && resp.StatusCode >= 500 {
		return types.NewAppError(
			types.ErrCodeUpstreamProvider,
			fmt.Sprintf("upstream returned status %d", resp.StatusCode),
			err,
		)
	}

	// Transport error: timeout, DNS failure, connection refused, cancellation.
	return types.NewAppError(
		types.ErrCodeUpstreamProvider,
		fmt.Sprintf("upstream request failed: %v", err),
		err,
	)
}

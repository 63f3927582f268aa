// Package client holds the outbound price source adapters: flights and hotels,
// activity prices, product prices, exchange rates and the text generator.
//
// Every adapter follows the same shape: span → circuit breaker → retry with
// backoff → HTTP. Missing credentials, empty answers and rate limiting are
// permanent for the current request and never retried.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/resilience"
)

var tracer = otel.Tracer("client")

// Plausibility bounds in BRL (activities in their original currency).
const (
	minFlightPerPerson = 300.0
	maxFlightPerPerson = 50000.0
	minHotelPerNight   = 50.0
	maxHotelPerNight   = 20000.0
	minProductPrice    = 1.0
	maxProductPrice    = 1000000.0
	minActivityPrice   = 0.5
	maxActivityPrice   = 5000.0
)

func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// httpStatusError is a non-2xx answer from a provider.
type httpStatusError struct {
	Status int
	Body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// statusOf returns the HTTP status carried by err, or 0.
func statusOf(err error) int {
	var se *httpStatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// getJSON performs req and decodes a 2xx body into out. 4xx answers are
// permanent; 5xx and transport errors are retried by the caller.
func getJSON(httpClient *http.Client, req *http.Request, out any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		se := &httpStatusError{Status: resp.StatusCode, Body: snippet}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return resilience.Permanent(se)
		}
		return se
	}

	if err := json.Unmarshal(body, out); err != nil {
		return resilience.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// classify turns whatever came out of cb.Execute into a domain error.
// Typed source errors pass through unchanged.
func classify(service string, err error) error {
	if err == nil {
		return nil
	}

	var unavailable *domain.ErrSourceUnavailable
	var limited *domain.ErrRateLimited
	var empty *domain.ErrNoResults
	switch {
	case errors.As(err, &unavailable):
		return unavailable
	case errors.As(err, &limited):
		return limited
	case errors.As(err, &empty):
		return empty
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: service}
	case statusOf(err) == http.StatusTooManyRequests:
		return &domain.ErrRateLimited{Source: service}
	}
	return &domain.ErrExternalService{Service: service, Err: err}
}

// settle reports the outcome of a guarded call to its limiter. Only a 429
// counts as a failure; anything else ends a half-open trial.
func settle(l *resilience.RateLimiter, err error) {
	if statusOf(err) == http.StatusTooManyRequests {
		l.RecordFailure(http.StatusTooManyRequests)
		return
	}
	l.RecordSuccess()
}

func today(now func() time.Time) string {
	return now().Format("2006-01-02")
}

// callLimited is call for resources guarded by a RateLimiter: the waits
// between attempts come from the limiter and stay within its retry budget.
func callLimited(ctx context.Context, cb *gobreaker.CircuitBreaker, cfg resilience.Config, l *resilience.RateLimiter, fn func() error) error {
	_, err := cb.Execute(func() (any, error) {
		return nil, l.Retry(ctx, cfg.MaxRetries, fn)
	})
	return err
}

// call runs fn behind the breaker with retries.
func call(ctx context.Context, cb *gobreaker.CircuitBreaker, cfg resilience.Config, fn func() error) error {
	_, err := cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, cfg, fn)
	})
	return err
}

package domain

import "fmt"

// Error types for consistent error handling across the BFA.

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ============================================================
// Price source errors
// ============================================================

// ErrSourceUnavailable indicates the adapter has no credentials or config.
// It is a permanent skip for the current request.
type ErrSourceUnavailable struct {
	Source string
	Reason string
}

func (e *ErrSourceUnavailable) Error() string {
	return fmt.Sprintf("price source unavailable [%s]: %s", e.Source, e.Reason)
}

// ErrRateLimited indicates the call was declined by a rate limiter or an
// open circuit, locally or by the provider (HTTP 429).
type ErrRateLimited struct {
	Source string
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("price source rate limited [%s]", e.Source)
}

// ErrNoResults indicates the provider answered but nothing plausible matched.
type ErrNoResults struct {
	Source string
	Query  string
}

func (e *ErrNoResults) Error() string {
	return fmt.Sprintf("no results from [%s] for %q", e.Source, e.Query)
}

// ErrNoValidPrices indicates reconciliation had nothing left to average.
type ErrNoValidPrices struct {
	Query    string
	Received int
}

func (e *ErrNoValidPrices) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("no valid prices (received %d quotes)", e.Received)
	}
	return fmt.Sprintf("no valid prices for %q (received %d quotes)", e.Query, e.Received)
}

// ErrItineraryParse indicates that no parse strategy recovered a usable itinerary.
type ErrItineraryParse struct {
	Reason string
}

func (e *ErrItineraryParse) Error() string {
	return fmt.Sprintf("itinerary parse error: %s", e.Reason)
}

// ErrBudgetInsufficient indicates that no destination fits the budget.
type ErrBudgetInsufficient struct {
	Budget  float64
	Reserve float64
}

func (e *ErrBudgetInsufficient) Error() string {
	return fmt.Sprintf("Orçamento insuficiente: nenhum destino cabe em R$ %.2f (reserva mínima de R$ %.2f)", e.Budget, e.Reserve)
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

// suggestionError is the envelope used by the destination endpoint, which
// always answers with a success flag.
type suggestionError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads the body into dst and runs struct validation on it.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ErrValidation{Field: "body", Message: "invalid request body"}
	}
	return validateStruct(dst)
}

// statusFor maps domain errors to an HTTP status and the message shown to
// the caller. Internal failures never leak their details.
func statusFor(err error) (int, string) {
	var validation *domain.ErrValidation
	var noPrices *domain.ErrNoValidPrices
	var noResults *domain.ErrNoResults
	var budget *domain.ErrBudgetInsufficient
	var circuitOpen *domain.ErrCircuitOpen
	var rateLimited *domain.ErrRateLimited
	var noSource *domain.ErrSourceUnavailable
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &noPrices), errors.As(err, &noResults):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &budget):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &circuitOpen), errors.As(err, &rateLimited), errors.As(err, &noSource):
		return http.StatusServiceUnavailable, err.Error()
	case errors.As(err, &external):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status, msg := statusFor(err)
	logServiceError(logger, status, err)
	writeError(w, status, msg)
}

func logServiceError(logger *zap.Logger, status int, err error) {
	switch {
	case status >= 500:
		logger.Error("service error", zap.Int("status", status), zap.Error(err))
	case status == http.StatusBadRequest:
		logger.Debug("validation error", zap.String("error", err.Error()))
	default:
		logger.Warn("request not fulfilled", zap.Int("status", status), zap.Error(err))
	}
}

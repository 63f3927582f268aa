package handler

import (
	"net/http"
	"time"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 1. Viagens: POST /v1/travel/itinerary
// ============================================================

func itineraryHandler(svc ItineraryGenerator, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, "roteiro")
			return
		}
		ctx, span := tracer.Start(r.Context(), "POST /v1/travel/itinerary")
		defer span.End()

		var req domain.ItineraryRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(
			attribute.String("travel.destination", req.Destination),
			attribute.Float64("travel.budget", req.Budget),
		)

		start := time.Now()
		it, err := svc.GenerateItinerary(ctx, &req)
		metrics.RecordRequestDuration("itinerary", time.Since(start))
		if err != nil {
			metrics.IncrRequest("error")
			handleServiceError(w, err, logger)
			return
		}
		metrics.IncrRequest("success")

		writeJSON(w, http.StatusOK, it)
	}
}

// ============================================================
// 1b. Viagens: POST /v1/travel/destination-suggestion
// ============================================================

func destinationHandler(svc DestinationSuggester, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeJSON(w, http.StatusServiceUnavailable, suggestionError{Error: "sugestão de destino indisponível"})
			return
		}
		ctx, span := tracer.Start(r.Context(), "POST /v1/travel/destination-suggestion")
		defer span.End()

		fail := func(err error) {
			metrics.IncrRequest("error")
			status, msg := statusFor(err)
			logServiceError(logger, status, err)
			writeJSON(w, status, suggestionError{Error: msg})
		}

		var req domain.SuggestionRequest
		if err := decodeJSON(r, &req); err != nil {
			fail(err)
			return
		}
		span.SetAttributes(attribute.Float64("travel.budget", req.Budget))

		start := time.Now()
		s, err := svc.SuggestDestination(ctx, &req)
		metrics.RecordRequestDuration("destination_suggestion", time.Since(start))
		if err != nil {
			fail(err)
			return
		}
		metrics.IncrRequest("success")
		span.SetAttributes(
			attribute.String("travel.destination", s.Destination.Name),
			attribute.String("travel.data_type", s.DataType),
		)

		writeJSON(w, http.StatusOK, s)
	}
}

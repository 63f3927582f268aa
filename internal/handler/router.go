package handler

import (
	"context"
	"net/http"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// ============================================================
// Service contracts consumed by the handlers
// ============================================================

// ItineraryGenerator builds a priced day-by-day itinerary.
type ItineraryGenerator interface {
	GenerateItinerary(ctx context.Context, req *domain.ItineraryRequest) (*domain.Itinerary, error)
}

// DestinationSuggester picks the best destination for a budget.
type DestinationSuggester interface {
	SuggestDestination(ctx context.Context, req *domain.SuggestionRequest) (*domain.DestinationSuggestion, error)
}

// ProductSearcher compares product prices across sources.
type ProductSearcher interface {
	Search(ctx context.Context, q domain.ProductQuery) (*domain.ProductPriceResult, error)
}

// ActivityPricer looks up the ticket price of a tourist activity.
type ActivityPricer interface {
	GetActivityPrice(ctx context.Context, name, location string) (*domain.ActivityPrice, error)
}

// PriceConverter converts a free-form price string into another currency.
type PriceConverter interface {
	ConvertPrice(ctx context.Context, text, to string) domain.PriceConversion
}

// Services groups the use cases exposed over HTTP. Nil members answer 503.
type Services struct {
	Itinerary   ItineraryGenerator
	Destination DestinationSuggester
	Products    ProductSearcher
	Activities  ActivityPricer
	Currency    PriceConverter
	Providers   []Provider
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Providers))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. ✈️ Viagens
		// POST /v1/travel/itinerary
		// POST /v1/travel/destination-suggestion
		// =============================================
		r.Post("/travel/itinerary", itineraryHandler(svc.Itinerary, metrics, logger))
		r.Post("/travel/destination-suggestion", destinationHandler(svc.Destination, metrics, logger))

		// =============================================
		// 2. 🏷️ Preços
		// POST /v1/prices/search
		// GET  /v1/prices/activity?name=&location=
		// =============================================
		r.Post("/prices/search", productSearchHandler(svc.Products, metrics, logger))
		r.Get("/prices/activity", activityPriceHandler(svc.Activities, metrics, logger))

		// =============================================
		// 3. 💱 Câmbio
		// GET /v1/currency/convert?price=&to=BRL
		// =============================================
		r.Get("/currency/convert", convertHandler(svc.Currency))

		// =============================================
		// 4. 📊 Métricas
		// GET /v1/metrics/pricing
		// =============================================
		r.Get("/metrics/pricing", pricingMetricsHandler(metrics))
	})

	return r
}

func unavailable(w http.ResponseWriter, feature string) {
	writeError(w, http.StatusServiceUnavailable, feature+" indisponível: serviço não configurado")
}

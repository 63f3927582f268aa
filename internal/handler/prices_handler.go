package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 2. Preços: POST /v1/prices/search
// ============================================================

func productSearchHandler(svc ProductSearcher, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, "comparação de preços")
			return
		}
		ctx, span := tracer.Start(r.Context(), "POST /v1/prices/search")
		defer span.End()

		var q domain.ProductQuery
		if err := decodeJSON(r, &q); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("product.name", q.Name))

		start := time.Now()
		res, err := svc.Search(ctx, q)
		metrics.RecordRequestDuration("product_search", time.Since(start))
		if err != nil {
			metrics.IncrRequest("error")
			handleServiceError(w, err, logger)
			return
		}
		metrics.IncrRequest("success")
		span.SetAttributes(attribute.Bool("cache.hit", res.FromCache))

		writeJSON(w, http.StatusOK, res)
	}
}

// ============================================================
// 2b. Preços: GET /v1/prices/activity?name=&location=
// ============================================================

func activityPriceHandler(svc ActivityPricer, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, "preço de atividades")
			return
		}
		ctx, span := tracer.Start(r.Context(), "GET /v1/prices/activity")
		defer span.End()

		name := strings.TrimSpace(r.URL.Query().Get("name"))
		location := strings.TrimSpace(r.URL.Query().Get("location"))
		if name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if location == "" {
			writeError(w, http.StatusBadRequest, "location is required")
			return
		}
		span.SetAttributes(attribute.String("activity.name", name), attribute.String("activity.location", location))

		start := time.Now()
		price, err := svc.GetActivityPrice(ctx, name, location)
		metrics.RecordRequestDuration("activity_price", time.Since(start))
		if err != nil {
			metrics.IncrRequest("error")
			handleServiceError(w, err, logger)
			return
		}
		metrics.IncrRequest("success")

		writeJSON(w, http.StatusOK, price)
	}
}

// ============================================================
// 3. Câmbio: GET /v1/currency/convert?price=&to=BRL
// ============================================================

func convertHandler(svc PriceConverter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, "conversão de moeda")
			return
		}
		ctx, span := tracer.Start(r.Context(), "GET /v1/currency/convert")
		defer span.End()

		price := strings.TrimSpace(r.URL.Query().Get("price"))
		if price == "" {
			writeError(w, http.StatusBadRequest, "price is required")
			return
		}
		to := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("to")))
		if to == "" {
			to = domain.CurrencyBRL
		}
		if len(to) != 3 {
			writeError(w, http.StatusBadRequest, "to must be a 3-letter currency code")
			return
		}

		writeJSON(w, http.StatusOK, svc.ConvertPrice(ctx, price, to))
	}
}

package handler

import (
	"net/http"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"
)

// Provider describes an outbound price provider for /healthz.
// State returns the breaker state ("closed", "half-open", "open"); it may be nil.
type Provider struct {
	Name       string
	Configured bool
	State      func() string
}

// ============================================================
// 4. Métricas & Health
// ============================================================

func healthzHandler(providers []Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := make([]domain.ProviderHealth, 0, len(providers))
		overall := "healthy"

		for _, p := range providers {
			h := domain.ProviderHealth{Name: p.Name, Configured: p.Configured, Status: "healthy"}
			if p.State != nil {
				h.Circuit = p.State()
			}
			switch {
			case !p.Configured:
				// Falls back to estimates; not a health problem.
				h.Status = "disabled"
			case h.Circuit == "open":
				h.Status = "degraded"
				overall = "degraded"
			}
			report = append(report, h)
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Providers: report})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func pricingMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetPricingSnapshot())
	}
}

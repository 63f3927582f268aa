package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/handler"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Fakes ---

type fakeItinerary struct {
	it  *domain.Itinerary
	err error
	got *domain.ItineraryRequest
}

func (f *fakeItinerary) GenerateItinerary(_ context.Context, req *domain.ItineraryRequest) (*domain.Itinerary, error) {
	f.got = req
	return f.it, f.err
}

type fakeSuggester struct {
	s   *domain.DestinationSuggestion
	err error
}

func (f *fakeSuggester) SuggestDestination(context.Context, *domain.SuggestionRequest) (*domain.DestinationSuggestion, error) {
	return f.s, f.err
}

type fakeProducts struct {
	res *domain.ProductPriceResult
	err error
}

func (f *fakeProducts) Search(context.Context, domain.ProductQuery) (*domain.ProductPriceResult, error) {
	return f.res, f.err
}

type fakeActivities struct {
	price *domain.ActivityPrice
	err   error
}

func (f *fakeActivities) GetActivityPrice(context.Context, string, string) (*domain.ActivityPrice, error) {
	return f.price, f.err
}

type fakeConverter struct{ to string }

func (f *fakeConverter) ConvertPrice(_ context.Context, text, to string) domain.PriceConversion {
	f.to = to
	return domain.PriceConversion{Input: text, Currency: to, Amount: 300, Formatted: "R$ 300", Converted: true}
}

func newRouter(svc handler.Services) http.Handler {
	return handler.NewRouter(svc, observability.NewMetrics(), zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// --- Operational endpoints ---

func TestReadyz(t *testing.T) {
	rec := do(t, newRouter(handler.Services{}), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetrics(t *testing.T) {
	rec := do(t, newRouter(handler.Services{}), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPing(t *testing.T) {
	rec := do(t, newRouter(handler.Services{}), http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz_ReportsProviders(t *testing.T) {
	router := newRouter(handler.Services{Providers: []handler.Provider{
		{Name: "amadeus", Configured: true, State: func() string { return "closed" }},
		{Name: "google_places", Configured: false},
		{Name: "mercadolivre", Configured: true, State: func() string { return "open" }},
	}})

	rec := do(t, router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "degraded", got.Status)
	require.Len(t, got.Providers, 3)
	assert.Equal(t, "healthy", got.Providers[0].Status)
	assert.Equal(t, "disabled", got.Providers[1].Status)
	assert.Equal(t, "degraded", got.Providers[2].Status)
}

func TestPricingMetrics(t *testing.T) {
	rec := do(t, newRouter(handler.Services{}), http.MethodGet, "/v1/metrics/pricing", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "all_time", decode(t, rec)["period"])
}

// --- Travel ---

func TestItinerary_OK(t *testing.T) {
	svc := &fakeItinerary{it: &domain.Itinerary{ID: "abc", ItineraryData: domain.ItineraryData{Title: "Paris"}}}
	router := newRouter(handler.Services{Itinerary: svc})

	rec := do(t, router, http.MethodPost, "/v1/travel/itinerary",
		`{"destination":"Paris","budget":6000,"departureDate":"2026-05-01","returnDate":"2026-05-05","travelStyle":"conforto"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "abc", body["id"])
	assert.Contains(t, body, "itineraryData")
	assert.Contains(t, body, "travelCosts")
	require.NotNil(t, svc.got)
	assert.Equal(t, domain.TravelStyle("conforto"), svc.got.TravelStyle)
}

func TestItinerary_ValidationUsesJSONNames(t *testing.T) {
	svc := &fakeItinerary{}
	router := newRouter(handler.Services{Itinerary: svc})

	rec := do(t, router, http.MethodPost, "/v1/travel/itinerary", `{"departureDate":"2026-05-01","returnDate":"2026-05-05"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "'destination'")
	assert.Nil(t, svc.got, "service must not run on invalid input")
}

func TestItinerary_BadDate(t *testing.T) {
	router := newRouter(handler.Services{Itinerary: &fakeItinerary{}})

	rec := do(t, router, http.MethodPost, "/v1/travel/itinerary", `{"destination":"Paris","departureDate":"01/05/2026","returnDate":"2026-05-05"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "departureDate")
}

func TestItinerary_MalformedBody(t *testing.T) {
	router := newRouter(handler.Services{Itinerary: &fakeItinerary{}})

	rec := do(t, router, http.MethodPost, "/v1/travel/itinerary", `{"destination":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestItinerary_NotConfigured(t *testing.T) {
	rec := do(t, newRouter(handler.Services{}), http.MethodPost, "/v1/travel/itinerary", `{}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDestination_OK(t *testing.T) {
	svc := &fakeSuggester{s: &domain.DestinationSuggestion{
		Success:     true,
		Destination: domain.DestinationDescriptor{Name: "Orlando"},
		DataType:    domain.DataTypeEstimated,
		IsEstimate:  true,
	}}
	router := newRouter(handler.Services{Destination: svc})

	rec := do(t, router, http.MethodPost, "/v1/travel/destination-suggestion", `{"budget":10000}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["isEstimate"])
}

func TestDestination_BudgetInsufficient(t *testing.T) {
	svc := &fakeSuggester{err: &domain.ErrBudgetInsufficient{Budget: 1000, Reserve: 500}}
	router := newRouter(handler.Services{Destination: svc})

	rec := do(t, router, http.MethodPost, "/v1/travel/destination-suggestion", `{"budget":1000}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "Orçamento insuficiente")
}

func TestDestination_MissingBudget(t *testing.T) {
	router := newRouter(handler.Services{Destination: &fakeSuggester{}})

	rec := do(t, router, http.MethodPost, "/v1/travel/destination-suggestion", `{"days":5}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "budget")
}

// --- Prices ---

func TestProductSearch_OK(t *testing.T) {
	svc := &fakeProducts{res: &domain.ProductPriceResult{
		Query:    domain.ProductQuery{Name: "Fone"},
		Estimate: domain.ReconciledPriceEstimate{Average: 101, Min: 100, Max: 102, ConfidenceLevel: domain.LevelReal, QuoteCount: 2},
		Currency: domain.CurrencyBRL,
	}}
	router := newRouter(handler.Services{Products: svc})

	rec := do(t, router, http.MethodPost, "/v1/prices/search", `{"productName":"Fone"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	est := decode(t, rec)["estimate"].(map[string]any)
	assert.Equal(t, 101.0, est["averagePrice"])
	assert.Equal(t, "real", est["confidenceLevel"])
}

func TestProductSearch_NoValidPrices(t *testing.T) {
	router := newRouter(handler.Services{Products: &fakeProducts{err: &domain.ErrNoValidPrices{Query: "Geladeira"}}})

	rec := do(t, router, http.MethodPost, "/v1/prices/search", `{"productName":"Geladeira"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductSearch_NameTooShort(t *testing.T) {
	router := newRouter(handler.Services{Products: &fakeProducts{}})

	rec := do(t, router, http.MethodPost, "/v1/prices/search", `{"productName":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "productName")
}

func TestActivityPrice_OK(t *testing.T) {
	svc := &fakeActivities{price: &domain.ActivityPrice{EstimatedPrice: 25, EstimatedPriceBRL: 125, OriginalCurrency: "USD", Source: domain.PriceSourcePlaces}}
	router := newRouter(handler.Services{Activities: svc})

	rec := do(t, router, http.MethodGet, "/v1/prices/activity?name=Louvre&location=Paris", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 125.0, decode(t, rec)["estimatedPriceBRL"])
}

func TestActivityPrice_MissingLocation(t *testing.T) {
	router := newRouter(handler.Services{Activities: &fakeActivities{}})

	rec := do(t, router, http.MethodGet, "/v1/prices/activity?name=Louvre", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivityPrice_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"circuit open", &domain.ErrCircuitOpen{Service: "google_places"}, http.StatusServiceUnavailable},
		{"rate limited", &domain.ErrRateLimited{Source: "google_places"}, http.StatusServiceUnavailable},
		{"no results", &domain.ErrNoResults{Source: "google_places", Query: "Louvre"}, http.StatusNotFound},
		{"external", &domain.ErrExternalService{Service: "google_places", Err: context.DeadlineExceeded}, http.StatusBadGateway},
		{"unknown", context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(handler.Services{Activities: &fakeActivities{err: tt.err}})

			rec := do(t, router, http.MethodGet, "/v1/prices/activity?name=Louvre&location=Paris", "")

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

// --- Currency ---

func TestConvert_DefaultsToBRL(t *testing.T) {
	conv := &fakeConverter{}
	router := newRouter(handler.Services{Currency: conv})

	rec := do(t, router, http.MethodGet, "/v1/currency/convert?price=%E2%82%AC50", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BRL", conv.to)
	body := decode(t, rec)
	assert.Equal(t, "€50", body["input"])
	assert.Equal(t, "R$ 300", body["formatted"])
}

func TestConvert_MissingPrice(t *testing.T) {
	rec := do(t, newRouter(handler.Services{Currency: &fakeConverter{}}), http.MethodGet, "/v1/currency/convert", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

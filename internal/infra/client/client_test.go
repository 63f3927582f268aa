package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/resilience"
)

var fastRetry = resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

func fixedNow() time.Time { return time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC) }

func newLimiter(name string) *resilience.RateLimiter {
	return resilience.NewRateLimiter(name, resilience.LimiterConfig{PerMinute: 10, Cooldown: time.Minute})
}

// ============================================================
// Amadeus
// ============================================================

func amadeusServer(t *testing.T, tokenCalls *int32, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/security/oauth2/token" {
			atomic.AddInt32(tokenCalls, 1)
			fmt.Fprint(w, `{"access_token":"tok","expires_in":1799}`)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const flightOffersJSON = `{
  "data": [
    {"price": {"grandTotal": "3000.00", "currency": "BRL"}, "validatingAirlineCodes": ["LA"]},
    {"price": {"grandTotal": "400.00", "currency": "BRL"}, "validatingAirlineCodes": ["XX"]},
    {"price": {"grandTotal": "2000.00", "currency": "BRL"}, "validatingAirlineCodes": ["G3"]},
    {"price": {"grandTotal": "5000.00", "currency": "BRL"}, "itineraries": [{"segments": [{"carrierCode": "AF"}]}]}
  ],
  "dictionaries": {"carriers": {"LA": "LATAM AIRLINES BRASIL", "G3": "GOL LINHAS AEREAS", "AF": "AIR FRANCE"}}
}`

func newAmadeus(srv *httptest.Server) *AmadeusClient {
	c := NewAmadeusClient(srv.Client(), srv.URL, "id", "secret", resilience.NewCircuitBreaker("amadeus-test"), fastRetry, zap.NewNop())
	c.now = fixedNow
	return c
}

func TestAmadeus_SearchFlightsPicksOfferByStyle(t *testing.T) {
	var tokenCalls int32
	srv := amadeusServer(t, &tokenCalls, map[string]string{"/v2/shopping/flight-offers": flightOffersJSON})
	c := newAmadeus(srv)

	cases := []struct {
		style     domain.TravelStyle
		perPerson float64
		airline   string
	}{
		{domain.StyleEconomica, 1000, "GOL LINHAS AEREAS"},
		{domain.StyleConforto, 1500, "LATAM AIRLINES BRASIL"},
		{domain.StyleLuxo, 2500, "AIR FRANCE"},
		{domain.StyleAventura, 1000, "GOL LINHAS AEREAS"},
	}
	for _, tc := range cases {
		offer, err := c.SearchFlights(context.Background(), domain.FlightQuery{
			Origin: "GRU", Destination: "PAR", DepartureDate: "2026-05-01", ReturnDate: "2026-05-08", Adults: 2, Style: tc.style,
		})
		require.NoError(t, err, tc.style)
		assert.Equal(t, tc.perPerson, offer.PricePerPerson, tc.style)
		assert.Equal(t, tc.perPerson*2, offer.TotalPrice, tc.style)
		assert.Equal(t, tc.airline, offer.AirlineName, tc.style)
		assert.Equal(t, "2026-04-02", offer.QuotationDate)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls), "token must be cached between calls")
}

func TestAmadeus_AllOffersImplausibleIsNoResults(t *testing.T) {
	var tokenCalls int32
	srv := amadeusServer(t, &tokenCalls, map[string]string{
		"/v2/shopping/flight-offers": `{"data":[{"price":{"grandTotal":"120.00","currency":"BRL"}}]}`,
	})

	_, err := newAmadeus(srv).SearchFlights(context.Background(), domain.FlightQuery{Origin: "GRU", Destination: "RIO", DepartureDate: "2026-05-01", Adults: 1})
	var noResults *domain.ErrNoResults
	require.ErrorAs(t, err, &noResults)
}

func TestAmadeus_MissingCredentialsNeverCallsOut(t *testing.T) {
	c := NewAmadeusClient(http.DefaultClient, "http://127.0.0.1:1", "", "", resilience.NewCircuitBreaker("amadeus-empty"), fastRetry, zap.NewNop())

	_, err := c.SearchFlights(context.Background(), domain.FlightQuery{Origin: "GRU", Destination: "PAR"})
	var unavailable *domain.ErrSourceUnavailable
	require.ErrorAs(t, err, &unavailable)

	_, err = c.SearchAccommodation(context.Background(), domain.AccommodationQuery{CityCode: "PAR"})
	require.ErrorAs(t, err, &unavailable)
}

func TestAmadeus_SearchAccommodation(t *testing.T) {
	var tokenCalls int32
	srv := amadeusServer(t, &tokenCalls, map[string]string{
		"/v1/reference-data/locations/hotels/by-city": `{"data":[{"hotelId":"H1"},{"hotelId":"H2"},{"hotelId":"H3"}]}`,
		"/v3/shopping/hotel-offers": `{"data":[
			{"available": true, "hotel": {"name": "Hotel Barato"}, "offers": [{"price": {"total": "1200.00", "currency": "BRL"}}]},
			{"available": false, "hotel": {"name": "Lotado"}, "offers": [{"price": {"total": "900.00", "currency": "BRL"}}]},
			{"available": true, "hotel": {"name": "Hotel Chique"}, "offers": [{"price": {"total": "6000.00", "currency": "BRL"}}]},
			{"available": true, "hotel": {"name": "Hotel Medio"}, "offers": [{"price": {"total": "2400.00", "currency": "BRL"}}]}
		]}`,
	})
	c := newAmadeus(srv)

	offer, err := c.SearchAccommodation(context.Background(), domain.AccommodationQuery{
		CityCode: "LIS", CheckIn: "2026-05-01", CheckOut: "2026-05-05", Adults: 1, Style: domain.StyleConforto,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hotel Medio", offer.HotelName)
	assert.Equal(t, 600.0, offer.PricePerDay)
	assert.Equal(t, 2400.0, offer.TotalPrice)

	offer, err = c.SearchAccommodation(context.Background(), domain.AccommodationQuery{
		CityCode: "LIS", CheckIn: "2026-05-01", CheckOut: "2026-05-05", Adults: 1, Style: domain.StyleLuxo,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hotel Chique", offer.HotelName)
	assert.Equal(t, 1500.0, offer.PricePerDay)
}

func TestAmadeus_OffersInOtherCurrenciesAreSkipped(t *testing.T) {
	var tokenCalls int32
	srv := amadeusServer(t, &tokenCalls, map[string]string{
		"/v1/reference-data/locations/hotels/by-city": `{"data":[{"hotelId":"H1"},{"hotelId":"H2"}]}`,
		"/v3/shopping/hotel-offers": `{"data":[
			{"available": true, "hotel": {"name": "Hotel Euro"}, "offers": [{"price": {"total": "1400.00", "currency": "EUR"}}]},
			{"available": true, "hotel": {"name": "Hotel Real"}, "offers": [{"price": {"total": "2000.00", "currency": "BRL"}}]}
		]}`,
	})
	c := newAmadeus(srv)

	offer, err := c.SearchAccommodation(context.Background(), domain.AccommodationQuery{
		CityCode: "LIS", CheckIn: "2026-05-01", CheckOut: "2026-05-05", Adults: 1, Style: domain.StyleEconomica,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hotel Real", offer.HotelName)
	assert.Equal(t, "BRL", offer.Currency)
}

func TestAmadeus_RejectedTokenIsRefreshed(t *testing.T) {
	var tokenCalls, offerCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/security/oauth2/token" {
			n := atomic.AddInt32(&tokenCalls, 1)
			fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":1799}`, n)
			return
		}
		atomic.AddInt32(&offerCalls, 1)
		if r.Header.Get("Authorization") != "Bearer tok-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, flightOffersJSON)
	}))
	defer srv.Close()

	offer, err := newAmadeus(srv).SearchFlights(context.Background(), domain.FlightQuery{
		Origin: "GRU", Destination: "PAR", DepartureDate: "2026-05-01", Adults: 2, Style: domain.StyleEconomica,
	})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, offer.PricePerPerson)
	assert.Equal(t, int32(2), atomic.LoadInt32(&tokenCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&offerCalls))
}

// ============================================================
// Places
// ============================================================

func TestPlaces_MapsPriceLevels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/place/textsearch/json", r.URL.Path)
		assert.Equal(t, "Museu do Louvre Paris", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"status":"OK","results":[
			{"name":"Louvre","price_level":2},
			{"name":"Jardim","price_level":0},
			{"name":"Sem preco"},
			{"name":"Tour VIP","price_level":4}
		]}`)
	}))
	defer srv.Close()

	c := NewPlacesClient(srv.Client(), srv.URL, "key", newLimiter("places"), resilience.NewCircuitBreaker("places-test"), fastRetry, zap.NewNop())
	quotes, err := c.SearchActivity(context.Background(), "Museu do Louvre", "Paris")
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, 35.0, quotes[0].Amount)
	assert.Equal(t, "USD", quotes[0].Currency)
	assert.Equal(t, domain.ConfidenceMedium, quotes[0].Confidence)
	assert.Equal(t, 150.0, quotes[1].Amount)
}

func TestPlaces_ZeroResultsAndLimiterDenial(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{"status":"ZERO_RESULTS","results":[]}`)
	}))
	defer srv.Close()

	limiter := resilience.NewRateLimiter("places", resilience.LimiterConfig{PerMinute: 1, Cooldown: time.Minute})
	c := NewPlacesClient(srv.Client(), srv.URL, "key", limiter, resilience.NewCircuitBreaker("places-test"), fastRetry, zap.NewNop())

	_, err := c.SearchActivity(context.Background(), "Praia", "Natal")
	var noResults *domain.ErrNoResults
	require.ErrorAs(t, err, &noResults)

	_, err = c.SearchActivity(context.Background(), "Praia", "Natal")
	var limited *domain.ErrRateLimited
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

// ============================================================
// Product sources
// ============================================================

func TestMercadoLivre_ConfidenceByCondition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/MLB/search", r.URL.Path)
		assert.Equal(t, "fone bluetooth JBL", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"results":[
			{"title":"Fone JBL","price":199.9,"currency_id":"BRL","condition":"new","permalink":"https://ml/1"},
			{"title":"Fone JBL usado","price":120,"currency_id":"BRL","condition":"used"},
			{"title":"Fone importado","price":30,"currency_id":"USD","condition":"new"},
			{"title":"Capa","price":0.5,"currency_id":"BRL","condition":"new"}
		]}`)
	}))
	defer srv.Close()

	c := NewMercadoLivreClient(srv.Client(), srv.URL, newLimiter("marketplace"), resilience.NewCircuitBreaker("ml-test"), fastRetry, zap.NewNop())
	quotes, err := c.SearchProduct(context.Background(), domain.ProductQuery{Name: "fone bluetooth", Brand: "JBL"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, domain.ConfidenceHigh, quotes[0].Confidence)
	assert.Equal(t, "https://ml/1", quotes[0].URL)
	assert.Equal(t, domain.ConfidenceMedium, quotes[1].Confidence)
	assert.Equal(t, MercadoLivreSource, c.Name())
}

func TestMercadoLivre_429OpensLimiterCircuit(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	limiter := newLimiter("marketplace")
	c := NewMercadoLivreClient(srv.Client(), srv.URL, limiter, resilience.NewCircuitBreaker("ml-test"), fastRetry, zap.NewNop())

	_, err := c.SearchProduct(context.Background(), domain.ProductQuery{Name: "geladeira"})
	var limited *domain.ErrRateLimited
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, "open", limiter.State())

	_, err = c.SearchProduct(context.Background(), domain.ProductQuery{Name: "geladeira"})
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "open circuit must not reach the marketplace")
}

func TestMercadoLivre_RetriesUseLimiterBackoff(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"results":[{"title":"Cafeteira","price":250,"currency_id":"BRL","condition":"new"}]}`)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	limiter := resilience.NewRateLimiter("marketplace",
		resilience.LimiterConfig{PerMinute: 10, Cooldown: time.Minute, BackoffBase: time.Second, BackoffMax: 4 * time.Second, RetryBudget: 4 * time.Second},
		resilience.WithSleep(func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		}),
	)
	retry := resilience.Config{MaxRetries: 2, InitialBackoff: time.Hour, MaxBackoff: time.Hour}
	c := NewMercadoLivreClient(srv.Client(), srv.URL, limiter, resilience.NewCircuitBreaker("ml-retry"), retry, zap.NewNop())

	quotes, err := c.SearchProduct(context.Background(), domain.ProductQuery{Name: "cafeteira"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps)
}

func TestMercadoLivre_BadRequestNeverHoldsTheTrialSlot(t *testing.T) {
	limiter := resilience.NewRateLimiter("marketplace", resilience.LimiterConfig{PerMinute: 10, Cooldown: 10 * time.Millisecond})
	limiter.RecordFailure(http.StatusTooManyRequests)
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, "half-open", limiter.State())

	c := NewMercadoLivreClient(http.DefaultClient, "http://bad host", limiter, resilience.NewCircuitBreaker("ml-bad"), fastRetry, zap.NewNop())
	_, err := c.SearchProduct(context.Background(), domain.ProductQuery{Name: "geladeira"})
	require.Error(t, err)

	assert.True(t, limiter.Acquire(context.Background()), "the half-open trial must still be available")
}

func TestSerpAPI_ExtractedPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "google_shopping", r.URL.Query().Get("engine"))
		assert.Equal(t, "br", r.URL.Query().Get("gl"))
		fmt.Fprint(w, `{"shopping_results":[
			{"title":"Air fryer","source":"Magazine Luiza","extracted_price":399.9,"link":"https://m/1"},
			{"title":"Air fryer","source":"Casas Bahia","extracted_price":0}
		]}`)
	}))
	defer srv.Close()

	c := NewSerpAPIShoppingClient(srv.Client(), srv.URL, "key", resilience.NewCircuitBreaker("serp-test"), fastRetry)
	quotes, err := c.SearchProduct(context.Background(), domain.ProductQuery{Name: "air fryer"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, 399.9, quotes[0].Amount)
	assert.Equal(t, "Magazine Luiza", quotes[0].StoreName)

	_, err = NewSerpAPIShoppingClient(srv.Client(), srv.URL, "", resilience.NewCircuitBreaker("serp-empty"), fastRetry).
		SearchProduct(context.Background(), domain.ProductQuery{Name: "air fryer"})
	var unavailable *domain.ErrSourceUnavailable
	require.ErrorAs(t, err, &unavailable)
}

func TestCustomSearch_PricesFromPagemapAndSnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customsearch/v1", r.URL.Path)
		fmt.Fprint(w, `{"items":[
			{"displayLink":"loja-a.com.br","link":"https://a","snippet":"sem preço","pagemap":{"offer":[{"price":"1299.00","pricecurrency":"BRL"}]}},
			{"displayLink":"loja-b.com.br","link":"https://b","snippet":"Por apenas R$ 1.349,90 à vista"},
			{"displayLink":"shop.com","link":"https://c","snippet":"$999","pagemap":{"offer":[{"price":"999","pricecurrency":"USD"}]}}
		]}`)
	}))
	defer srv.Close()

	c := NewCustomSearchCatalogClient(srv.Client(), srv.URL, "key", "cx", resilience.NewCircuitBreaker("cse-test"), fastRetry)
	quotes, err := c.SearchProduct(context.Background(), domain.ProductQuery{Name: "iphone 15"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, 1299.0, quotes[0].Amount)
	assert.Equal(t, 1349.9, quotes[1].Amount)
	assert.Equal(t, domain.ConfidenceLow, quotes[1].Confidence)
}

// ============================================================
// Exchange rate & LLM
// ============================================================

func TestExchangeRate_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/last/EUR-BRL", r.URL.Path)
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"EURBRL":{"bid":"6.0512","create_date":"2026-04-02 09:00:00"}}`)
	}))
	defer srv.Close()

	c := NewExchangeRateClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("fx-test"), fastRetry)
	rate, err := c.Rate(context.Background(), "eur", "BRL")
	require.NoError(t, err)
	assert.Equal(t, 6.0512, rate)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestOpenAI_GenerateReturnsTextAndUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"title\":\"Roteiro\"}"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":120,"completion_tokens":40,"total_tokens":160}}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.Client(), "sk-test", srv.URL+"/v1", "gpt-4o-mini", resilience.NewBulkhead(1), resilience.NewCircuitBreaker("llm-test"), fastRetry, zap.NewNop())
	out, err := c.Generate(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Roteiro"}`, out.Text)
	assert.Equal(t, 120, out.PromptTokens)
	assert.Equal(t, 40, out.CompletionTokens)

	_, err = NewOpenAIClient(nil, "", "", "gpt-4o-mini", resilience.NewBulkhead(1), resilience.NewCircuitBreaker("llm-empty"), fastRetry, zap.NewNop()).
		Generate(context.Background(), "s", "p")
	var unavailable *domain.ErrSourceUnavailable
	require.ErrorAs(t, err, &unavailable)
}

func TestClassify(t *testing.T) {
	var open *domain.ErrCircuitOpen
	require.ErrorAs(t, classify("x", fmt.Errorf("wrapped: %w", gobreaker.ErrOpenState)), &open)

	var ext *domain.ErrExternalService
	require.ErrorAs(t, classify("x", fmt.Errorf("boom")), &ext)

	var limited *domain.ErrRateLimited
	require.ErrorAs(t, classify("x", resilience.Permanent(&httpStatusError{Status: 429})), &limited)
}

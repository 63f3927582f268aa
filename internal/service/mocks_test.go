package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/estimate"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/port"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

var errUpstream = errors.New("upstream exploded")

type mockFlights struct {
	mu     sync.Mutex
	offers map[string]*domain.FlightOffer // by destination code
	deflt  *domain.FlightOffer
	err    error
	calls  []string
}

func (m *mockFlights) SearchFlights(_ context.Context, q domain.FlightQuery) (*domain.FlightOffer, error) {
	m.mu.Lock()
	m.calls = append(m.calls, q.Destination)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if o, ok := m.offers[q.Destination]; ok {
		return o, nil
	}
	if m.deflt != nil {
		return m.deflt, nil
	}
	return nil, &domain.ErrNoResults{Source: "mock", Query: q.Destination}
}

type mockHotels struct {
	mu     sync.Mutex
	offers map[string]*domain.AccommodationOffer
	deflt  *domain.AccommodationOffer
	err    error
	calls  []string
}

func (m *mockHotels) SearchAccommodation(_ context.Context, q domain.AccommodationQuery) (*domain.AccommodationOffer, error) {
	m.mu.Lock()
	m.calls = append(m.calls, q.CityCode)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if o, ok := m.offers[q.CityCode]; ok {
		return o, nil
	}
	if m.deflt != nil {
		return m.deflt, nil
	}
	return nil, &domain.ErrNoResults{Source: "mock", Query: q.CityCode}
}

type mockRates struct {
	mu    sync.Mutex
	rates map[string]float64 // "EUR-BRL"
	err   error
	calls int
}

func (m *mockRates) Rate(_ context.Context, from, to string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	r, ok := m.rates[from+"-"+to]
	if !ok {
		return 0, errors.New("pair not found")
	}
	return r, nil
}

type mockGenerator struct {
	text  string
	err   error
	calls int
}

func (m *mockGenerator) Generate(_ context.Context, _, _ string) (*port.Completion, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &port.Completion{Text: m.text, PromptTokens: 120, CompletionTokens: 480}, nil
}

type mockPricer struct {
	prices map[string]*domain.ActivityPrice
	calls  []string
}

func (m *mockPricer) GetActivityPrice(_ context.Context, name, _ string) (*domain.ActivityPrice, error) {
	m.calls = append(m.calls, name)
	if p, ok := m.prices[name]; ok {
		return p, nil
	}
	return nil, &domain.ErrNoResults{Source: domain.PriceSourcePlaces, Query: name}
}

type mockActivitySource struct {
	quotes []domain.PriceQuote
	err    error
	calls  int
}

func (m *mockActivitySource) SearchActivity(_ context.Context, _, _ string) ([]domain.PriceQuote, error) {
	m.calls++
	return m.quotes, m.err
}

type mockProductSource struct {
	name   string
	quotes []domain.PriceQuote
	err    error
	mu     sync.Mutex
	calls  int
}

func (m *mockProductSource) Name() string { return m.name }

func (m *mockProductSource) SearchProduct(_ context.Context, _ domain.ProductQuery) ([]domain.PriceQuote, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.quotes, m.err
}

type mockStore struct {
	saved []*domain.Itinerary
	err   error
}

func (m *mockStore) SaveItinerary(_ context.Context, _ *domain.ItineraryRequest, it *domain.Itinerary) error {
	m.saved = append(m.saved, it)
	return m.err
}

// --- Helpers ---

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func staticEstimator() *estimate.Estimator {
	return estimate.New(estimate.StaticNames{Hotel: "Hotel Teste", AirlineCode: "XX", AirlineName: "Linha Teste"})
}

func newCosts(f *mockFlights, h *mockHotels, m *observability.Metrics) *service.TravelCostService {
	return service.NewTravelCostService(f, h, staticEstimator(), m, zap.NewNop())
}

func newConverter(r *mockRates, m *observability.Metrics) *service.CurrencyConverter {
	return service.NewCurrencyConverterWithClock(r, clock, m, zap.NewNop())
}

func quote(amount float64, source, confidence string) domain.PriceQuote {
	return domain.PriceQuote{Amount: amount, Currency: "BRL", Source: source, Confidence: confidence, ObservedAt: fixedNow}
}

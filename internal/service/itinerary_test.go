package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/service"

	"go.uber.org/zap"
)

const parisPlan = `{"title":"Paris clássica","summary":"Museus e cafés","days":[
{"day":1,"activities":[{"time":"09:00","name":"Louvre","estimatedCost":"€22"}]},
{"day":2,"activities":[{"time":"10:00","name":"Torre Eiffel","estimatedCost":"€29,40"}]},
{"day":3,"activities":[{"time":"10:00","name":"Montmartre","estimatedCost":"Gratuito"}]}]}`

type itineraryFixture struct {
	gen     *mockGenerator
	flights *mockFlights
	hotels  *mockHotels
	pricer  *mockPricer
	store   *mockStore
	sleeps  []time.Duration
	metrics *observability.Metrics
	svc     *service.ItineraryService
}

func newItineraryFixture(gen *mockGenerator) *itineraryFixture {
	f := &itineraryFixture{
		gen:     gen,
		flights: &mockFlights{offers: map[string]*domain.FlightOffer{"PAR": {PricePerPerson: 3000, TotalPrice: 3000, AirlineCode: "AF", AirlineName: "Air France"}}},
		hotels:  &mockHotels{offers: map[string]*domain.AccommodationOffer{"PAR": {PricePerDay: 500, TotalPrice: 2000, HotelName: "Hotel Lumière"}}},
		pricer: &mockPricer{prices: map[string]*domain.ActivityPrice{
			"Louvre": {EstimatedPrice: 22, EstimatedPriceBRL: 132, OriginalCurrency: "EUR", ExchangeRate: 6, ExchangeDate: "2026-03-10", Source: domain.PriceSourcePlaces, Confidence: domain.ConfidenceMedium},
		}},
		store:   &mockStore{},
		metrics: observability.NewMetrics(),
	}
	rates := &mockRates{rates: map[string]float64{"EUR-BRL": 6.0, "USD-BRL": 5.0}}

	f.svc = service.NewItineraryService(
		f.gen,
		newCosts(f.flights, f.hotels, f.metrics),
		f.pricer,
		newConverter(rates, f.metrics),
		f.store,
		service.ItineraryOptions{
			EnrichmentPause: 200 * time.Millisecond,
			Sleep: func(_ context.Context, d time.Duration) error {
				f.sleeps = append(f.sleeps, d)
				return nil
			},
		},
		f.metrics,
		zap.NewNop(),
	)
	return f
}

func parisRequest() *domain.ItineraryRequest {
	return &domain.ItineraryRequest{
		Destination:    "Paris",
		Budget:         6000,
		DepartureDate:  "2026-05-01",
		ReturnDate:     "2026-05-05",
		TravelersCount: 1,
		TravelStyle:    "conforto",
	}
}

func TestGenerateItinerary_LLMPlanPaddedAndPriced(t *testing.T) {
	f := newItineraryFixture(&mockGenerator{text: parisPlan})

	it, err := f.svc.GenerateItinerary(context.Background(), parisRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if it.ID == "" {
		t.Error("expected an id")
	}
	if it.Provenance.ItinerarySource != domain.SourceLLM || it.Provenance.ParseStrategy != 1 || it.Provenance.Degraded {
		t.Errorf("unexpected provenance %+v", it.Provenance)
	}
	if it.Provenance.DestinationCode != "PAR" || it.Provenance.DestinationCodeGuessed {
		t.Errorf("unexpected destination code %+v", it.Provenance)
	}

	days := it.ItineraryData.Days
	if len(days) != 5 {
		t.Fatalf("expected 5 days, got %d", len(days))
	}
	if days[0].Activities[0].Name != "Louvre" || days[3].Theme != "Dia livre" {
		t.Errorf("expected 3 original days and 2 free days, got %+v", days)
	}

	louvre := days[0].Activities[0]
	if louvre.CostBRL != 132 || louvre.PriceSource != domain.PriceSourcePlaces || louvre.EstimatedCost != "R$ 132" {
		t.Errorf("unexpected priced activity %+v", louvre)
	}

	eiffel := days[1].Activities[0]
	if eiffel.CostBRL != 176.4 || eiffel.PriceSource != domain.PriceSourceEstimate || eiffel.Confidence != domain.ConfidenceLow {
		t.Errorf("unexpected fallback activity %+v", eiffel)
	}
	if eiffel.OriginalCurrency != "EUR" || eiffel.ExchangeRate != 6 || eiffel.ExchangeDate != "2026-03-10" {
		t.Errorf("foreign fallback cost must still be converted, got %+v", eiffel)
	}
	if eiffel.EstimatedCost != "€29,40" {
		t.Errorf("fallback must keep the original cost string, got %q", eiffel.EstimatedCost)
	}

	// 132 + 176.40 + 0 + (0 + 120) * 2 free days
	if it.TravelCosts.ExtrasTotal != 548.4 {
		t.Errorf("expected extras 548.4, got %v", it.TravelCosts.ExtrasTotal)
	}
	if it.TravelCosts.Flight.Source != domain.ProvenanceReal || it.TravelCosts.Accommodation.Nights != 4 {
		t.Errorf("unexpected legs %+v", it.TravelCosts)
	}
	if it.TravelCosts.GrandTotal() != 5548.4 {
		t.Errorf("expected grand total 5548.4, got %v", it.TravelCosts.GrandTotal())
	}

	ba := it.BudgetAnalysis
	if ba == nil || !ba.Sufficient || ba.Difference != 451.6 || ba.Percentage != 7.53 {
		t.Fatalf("unexpected budget analysis %+v", ba)
	}
	if !strings.Contains(ba.Message, "suficiente") {
		t.Errorf("unexpected message %q", ba.Message)
	}

	if it.Provenance.PricedActivities != 1 || it.Provenance.EstimatedActivities != 6 {
		t.Errorf("expected 1 priced / 6 estimated, got %d / %d", it.Provenance.PricedActivities, it.Provenance.EstimatedActivities)
	}
	prov := f.metrics.GetPricingSnapshot().Provenance
	if prov["activity/real"] != 1 || prov["activity/estimate"] != 6 {
		t.Errorf("expected activity provenance 1 real / 6 estimate, got %v", prov)
	}
	if len(f.pricer.calls) != 7 || len(f.sleeps) != 6 {
		t.Errorf("expected 7 sequential lookups with 6 pauses, got %d / %d", len(f.pricer.calls), len(f.sleeps))
	}
	if len(f.store.saved) != 1 {
		t.Errorf("expected itinerary to be persisted once, got %d", len(f.store.saved))
	}
}

func TestGenerateItinerary_GeneratorFailureUsesTemplate(t *testing.T) {
	f := newItineraryFixture(&mockGenerator{err: errUpstream})

	it, err := f.svc.GenerateItinerary(context.Background(), parisRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if it.Provenance.ItinerarySource != domain.SourceFallbackTempl || !it.Provenance.Degraded {
		t.Errorf("unexpected provenance %+v", it.Provenance)
	}
	if len(it.ItineraryData.Days) != 5 {
		t.Fatalf("expected 5 template days, got %d", len(it.ItineraryData.Days))
	}
	if it.ItineraryData.Title != "Roteiro em Paris" {
		t.Errorf("unexpected template title %q", it.ItineraryData.Title)
	}
	if f.metrics.GetPricingSnapshot().FallbackRate != 1 {
		t.Error("expected the fallback to be counted")
	}
}

func TestGenerateItinerary_DegradedParseKeepsTitle(t *testing.T) {
	f := newItineraryFixture(&mockGenerator{text: `{"title": "Minha Paris", "summary": "Só o essencial", "days": [ oops`})

	it, err := f.svc.GenerateItinerary(context.Background(), parisRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if it.ItineraryData.Title != "Minha Paris" || it.ItineraryData.Summary != "Só o essencial" {
		t.Errorf("expected recovered title/summary, got %q / %q", it.ItineraryData.Title, it.ItineraryData.Summary)
	}
	if it.Provenance.ItinerarySource != domain.SourceFallbackTempl || it.Provenance.ParseStrategy != 4 {
		t.Errorf("unexpected provenance %+v", it.Provenance)
	}
	if len(it.ItineraryData.Days) != 5 {
		t.Errorf("expected 5 days, got %d", len(it.ItineraryData.Days))
	}
}

func TestGenerateItinerary_InvalidStructureUsesTemplate(t *testing.T) {
	f := newItineraryFixture(&mockGenerator{text: `{"title":"Paris","days":[]}`})

	it, err := f.svc.GenerateItinerary(context.Background(), parisRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if it.Provenance.ItinerarySource != domain.SourceFallbackTempl {
		t.Errorf("expected fallback template, got %+v", it.Provenance)
	}
}

func TestGenerateItinerary_LegFailuresFallBackPerLeg(t *testing.T) {
	f := newItineraryFixture(&mockGenerator{text: parisPlan})
	f.hotels.offers = nil

	it, err := f.svc.GenerateItinerary(context.Background(), parisRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if it.TravelCosts.Flight.Source != domain.ProvenanceReal || it.TravelCosts.Accommodation.Source != domain.ProvenanceEstimate {
		t.Errorf("unexpected leg sources %+v", it.TravelCosts)
	}
	// Paris is in the expensive tier: 900 * 4 nights
	if it.TravelCosts.Accommodation.Total != 3600 {
		t.Errorf("expected estimated accommodation 3600, got %v", it.TravelCosts.Accommodation.Total)
	}
}

func TestGenerateItinerary_ReturnBeforeDeparture(t *testing.T) {
	f := newItineraryFixture(&mockGenerator{text: parisPlan})
	req := parisRequest()
	req.ReturnDate = "2026-04-20"

	_, err := f.svc.GenerateItinerary(context.Background(), req)

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if f.gen.calls != 0 {
		t.Error("generator must not be called for invalid input")
	}
}

func TestGenerateItinerary_NoBudgetNoVerdict(t *testing.T) {
	f := newItineraryFixture(&mockGenerator{text: parisPlan})
	req := parisRequest()
	req.Budget = 0

	it, err := f.svc.GenerateItinerary(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if it.BudgetAnalysis != nil {
		t.Errorf("expected no budget analysis, got %+v", it.BudgetAnalysis)
	}
}

func TestGenerateItinerary_PersistenceFailureIsIgnored(t *testing.T) {
	f := newItineraryFixture(&mockGenerator{text: parisPlan})
	f.store.err = errUpstream

	if _, err := f.svc.GenerateItinerary(context.Background(), parisRequest()); err != nil {
		t.Fatalf("persistence failures must not surface, got %v", err)
	}
}

func TestAnalyzeBudget_Insufficient(t *testing.T) {
	ba := service.AnalyzeBudget(1000, 1500)

	if ba.Sufficient || ba.Difference != -500 || ba.Percentage != -50 {
		t.Errorf("unexpected analysis %+v", ba)
	}
	if !strings.Contains(ba.Message, "faltam R$ 500") {
		t.Errorf("unexpected message %q", ba.Message)
	}
}

func TestGenerateItinerary_PesoCostsAreNotReadAsDollars(t *testing.T) {
	plan := `{"title":"Buenos Aires","summary":"Tango","days":[
{"day":1,"activities":[{"time":"10:00","name":"Caminito","estimatedCost":"$ 15.000"},{"time":"20:00","name":"Show de tango","estimatedCost":"AR$ 5.000"}]}]}`
	f := newItineraryFixture(&mockGenerator{text: plan})
	req := parisRequest()
	req.Destination = "Buenos Aires"
	req.ReturnDate = req.DepartureDate

	it, err := f.svc.GenerateItinerary(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	acts := it.ItineraryData.Days[0].Activities
	// no live ARS rate in the mock: fallback table, 0.0055
	if acts[0].OriginalCurrency != "ARS" || acts[0].CostBRL != 82.5 {
		t.Errorf("bare $ in Buenos Aires must be pesos, got %+v", acts[0])
	}
	if acts[1].OriginalCurrency != "ARS" || acts[1].CostBRL != 27.5 {
		t.Errorf("AR$ must be pesos, got %+v", acts[1])
	}
	if it.TravelCosts.ExtrasTotal != 110 {
		t.Errorf("expected extras 110, got %v", it.TravelCosts.ExtrasTotal)
	}
}

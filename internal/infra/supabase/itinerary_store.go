package supabase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
)

// ============================================================
// travel_itineraries: opaque documents, insert only
// ============================================================

type itineraryRow struct {
	ID             string                     `json:"id"`
	Destination    string                     `json:"destination"`
	Origin         string                     `json:"origin,omitempty"`
	DepartureDate  string                     `json:"departure_date"`
	ReturnDate     string                     `json:"return_date"`
	TravelersCount int                        `json:"travelers_count"`
	TravelStyle    string                     `json:"travel_style"`
	Budget         float64                    `json:"budget,omitempty"`
	ItineraryData  domain.ItineraryData       `json:"itinerary_data"`
	TravelCosts    domain.TravelCostEstimate  `json:"travel_costs"`
	BudgetAnalysis *domain.BudgetAnalysis     `json:"budget_analysis,omitempty"`
	Provenance     domain.ItineraryProvenance `json:"provenance"`
	CreatedAt      time.Time                  `json:"created_at"`
}

// ItineraryStore implements port.ItineraryStore.
type ItineraryStore struct {
	client *Client
}

func NewItineraryStore(c *Client) *ItineraryStore {
	return &ItineraryStore{client: c}
}

// SaveItinerary is a single attempt; callers treat failures as non-fatal.
func (s *ItineraryStore) SaveItinerary(ctx context.Context, req *domain.ItineraryRequest, it *domain.Itinerary) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveItinerary")
	defer span.End()
	span.SetAttributes(
		attribute.String("itinerary.id", it.ID),
		attribute.String("destination", req.Destination),
	)

	row := itineraryRow{
		ID:             it.ID,
		Destination:    req.Destination,
		Origin:         req.Origin,
		DepartureDate:  req.DepartureDate,
		ReturnDate:     req.ReturnDate,
		TravelersCount: req.TravelersCount,
		TravelStyle:    string(req.TravelStyle),
		Budget:         req.Budget,
		ItineraryData:  it.ItineraryData,
		TravelCosts:    it.TravelCosts,
		BudgetAnalysis: it.BudgetAnalysis,
		Provenance:     it.Provenance,
		CreatedAt:      time.Now().UTC(),
	}

	_, err := s.client.cb.Execute(func() (any, error) {
		return s.client.doPost(ctx, "travel_itineraries", row)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/travel_itineraries", Err: err}
	}
	return nil
}

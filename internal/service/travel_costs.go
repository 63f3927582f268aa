package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/estimate"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/port"
)

var errSourceMissing = errors.New("source not wired")

// TripPlan is one destination and party to quote.
type TripPlan struct {
	Destination   domain.DestinationDescriptor
	CityCode      string
	Origin        string
	DepartureDate string
	ReturnDate    string
	Travelers     int
	Nights        int
	Style         domain.TravelStyle
}

func (p TripPlan) trip() estimate.Trip {
	return estimate.Trip{Travelers: p.Travelers, Nights: p.Nights, Style: p.Style}
}

// LegQuote is the joined result of both cost legs of one trip. Legs that
// failed are already backfilled with heuristic estimates; the errors are kept
// so callers can classify the outcome.
type LegQuote struct {
	Costs     domain.TravelCostEstimate
	FlightErr error
	HotelErr  error
}

// FlightReal reports whether the flight leg came from the live source.
func (q LegQuote) FlightReal() bool { return q.FlightErr == nil }

// HotelReal reports whether the accommodation leg came from the live source.
func (q LegQuote) HotelReal() bool { return q.HotelErr == nil }

// TravelCostService quotes flight and accommodation for a trip.
type TravelCostService struct {
	flights   port.FlightSource
	hotels    port.AccommodationSource
	estimator *estimate.Estimator
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewTravelCostService creates the service. Either source may be nil.
func NewTravelCostService(
	flights port.FlightSource,
	hotels port.AccommodationSource,
	estimator *estimate.Estimator,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *TravelCostService {
	return &TravelCostService{
		flights:   flights,
		hotels:    hotels,
		estimator: estimator,
		metrics:   metrics,
		logger:    logger,
	}
}

// Quote runs both legs concurrently and joins them. It never fails.
func (s *TravelCostService) Quote(ctx context.Context, plan TripPlan) LegQuote {
	ctx, span := tracer.Start(ctx, "TravelCostService.Quote")
	defer span.End()
	span.SetAttributes(
		attribute.String("destination", plan.Destination.Name),
		attribute.String("city_code", plan.CityCode),
	)

	var (
		flight    *domain.FlightOffer
		hotel     *domain.AccommodationOffer
		flightErr error
		hotelErr  error
	)

	// Both goroutines swallow their errors so neither leg cancels the other.
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		flight, flightErr = s.searchFlight(gCtx, plan)
		return nil
	})
	g.Go(func() error {
		hotel, hotelErr = s.searchHotel(gCtx, plan)
		return nil
	})
	_ = g.Wait()

	if flightErr == nil {
		flightErr = requireBRL(flight.Currency)
	}
	if hotelErr == nil {
		hotelErr = requireBRL(hotel.Currency)
	}

	out := LegQuote{
		Costs:     domain.TravelCostEstimate{Currency: domain.CurrencyBRL},
		FlightErr: flightErr,
		HotelErr:  hotelErr,
	}

	if flightErr == nil {
		out.Costs.Flight = domain.FlightCost{
			PerPerson:     flight.PricePerPerson,
			Total:         flight.TotalPrice,
			Source:        domain.ProvenanceReal,
			AirlineCode:   flight.AirlineCode,
			AirlineName:   flight.AirlineName,
			QuotationDate: flight.QuotationDate,
		}
	} else {
		s.logger.Info("flight quote unavailable, using estimate",
			zap.String("destination", plan.Destination.Name),
			zap.Error(flightErr),
		)
		out.Costs.Flight = s.estimator.Flight(plan.Destination, plan.trip())
	}
	s.metrics.IncrProvenance("flight", out.Costs.Flight.Source)

	if hotelErr == nil {
		nights := plan.Nights
		if nights < 1 {
			nights = 1
		}
		out.Costs.Accommodation = domain.AccommodationCost{
			PerDay:        hotel.PricePerDay,
			Total:         hotel.TotalPrice,
			Nights:        nights,
			Source:        domain.ProvenanceReal,
			HotelName:     hotel.HotelName,
			QuotationDate: hotel.QuotationDate,
		}
	} else {
		s.logger.Info("accommodation quote unavailable, using estimate",
			zap.String("destination", plan.Destination.Name),
			zap.Error(hotelErr),
		)
		out.Costs.Accommodation = s.estimator.Accommodation(plan.Destination, plan.trip())
	}
	s.metrics.IncrProvenance("accommodation", out.Costs.Accommodation.Source)

	return out
}

func (s *TravelCostService) searchFlight(ctx context.Context, plan TripPlan) (*domain.FlightOffer, error) {
	if s.flights == nil {
		return nil, errSourceMissing
	}
	offer, err := s.flights.SearchFlights(ctx, domain.FlightQuery{
		Origin:        plan.Origin,
		Destination:   plan.CityCode,
		DepartureDate: plan.DepartureDate,
		ReturnDate:    plan.ReturnDate,
		Adults:        plan.Travelers,
		Style:         plan.Style,
	})
	if err != nil {
		s.countSourceError("flights", err)
		return nil, err
	}
	return offer, nil
}

func (s *TravelCostService) searchHotel(ctx context.Context, plan TripPlan) (*domain.AccommodationOffer, error) {
	if s.hotels == nil {
		return nil, errSourceMissing
	}
	offer, err := s.hotels.SearchAccommodation(ctx, domain.AccommodationQuery{
		CityCode: plan.CityCode,
		CheckIn:  plan.DepartureDate,
		CheckOut: plan.ReturnDate,
		Adults:   plan.Travelers,
		Style:    plan.Style,
	})
	if err != nil {
		s.countSourceError("accommodation", err)
		return nil, err
	}
	return offer, nil
}

func (s *TravelCostService) countSourceError(service string, err error) {
	if !expectedSkip(err) {
		s.metrics.IncrExternalError(service)
	}
}

// requireBRL rejects a live offer priced in another currency; the leg is then
// estimated instead of summing foreign money into the BRL total.
func requireBRL(currency string) error {
	if currency == "" || strings.EqualFold(currency, domain.CurrencyBRL) {
		return nil
	}
	return fmt.Errorf("offer priced in %s, expected %s", currency, domain.CurrencyBRL)
}

// expectedSkip reports the failures that are not worth counting as errors:
// missing credentials and nothing found.
func expectedSkip(err error) bool {
	var unavailable *domain.ErrSourceUnavailable
	var noResults *domain.ErrNoResults
	return errors.Is(err, errSourceMissing) || errors.As(err, &unavailable) || errors.As(err, &noResults)
}

// addDays shifts a YYYY-MM-DD date.
func addDays(date string, days int) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, days).Format(dateLayout)
}

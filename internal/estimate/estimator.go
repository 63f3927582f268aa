// Package estimate produces heuristic travel costs with no network calls.
// It is the last tier of every cost fallback.
package estimate

import (
	"github.com/shopspring/decimal"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
)

// Trip describes the party and duration being estimated.
type Trip struct {
	Travelers int
	Nights    int
	Style     domain.TravelStyle
}

func (t Trip) normalized() Trip {
	if t.Travelers < 1 {
		t.Travelers = 1
	}
	if t.Nights < 1 {
		t.Nights = 1
	}
	if _, ok := flightStyle[t.Style]; !ok {
		t.Style = domain.StyleConforto
	}
	return t
}

// Estimator computes deterministic cost legs from the lookup tables.
type Estimator struct {
	names NameGenerator
	rate  decimal.Decimal
}

// New returns an Estimator. names may be nil (no display names).
func New(names NameGenerator) *Estimator {
	return &Estimator{names: names, rate: decimal.NewFromFloat(USDToBRL)}
}

// Flight estimates the round trip:
// per person = region base (USD) * style multiplier * USDToBRL.
func (e *Estimator) Flight(d domain.DestinationDescriptor, trip Trip) domain.FlightCost {
	trip = trip.normalized()
	perPerson := decimal.NewFromFloat(RegionFor(d).BaseUSD).
		Mul(decimal.NewFromFloat(flightStyle[trip.Style])).
		Mul(e.rate).
		Round(2)
	total := perPerson.Mul(decimal.NewFromInt(int64(trip.Travelers))).Round(2)

	fc := domain.FlightCost{
		PerPerson: perPerson.InexactFloat64(),
		Total:     total.InexactFloat64(),
		Source:    domain.ProvenanceEstimate,
	}
	if e.names != nil {
		fc.AirlineCode, fc.AirlineName = e.names.Airline()
	}
	return fc
}

// Accommodation estimates the stay:
// per day = tier daily rate * style multiplier * group factor, where the
// group factor is 1 for a single traveler and travelers*0.7 otherwise.
func (e *Estimator) Accommodation(d domain.DestinationDescriptor, trip Trip) domain.AccommodationCost {
	trip = trip.normalized()
	group := decimal.NewFromInt(1)
	if trip.Travelers > 1 {
		group = decimal.NewFromInt(int64(trip.Travelers)).Mul(decimal.NewFromFloat(sharedRoomFactor))
	}
	perDay := decimal.NewFromFloat(TierFor(d).Daily).
		Mul(decimal.NewFromFloat(hotelStyle[trip.Style])).
		Mul(group).
		Round(2)
	total := perDay.Mul(decimal.NewFromInt(int64(trip.Nights))).Round(2)

	ac := domain.AccommodationCost{
		PerDay: perDay.InexactFloat64(),
		Total:  total.InexactFloat64(),
		Nights: trip.Nights,
		Source: domain.ProvenanceEstimate,
	}
	if e.names != nil {
		ac.HotelName = e.names.HotelName(d.Name, trip.Style)
	}
	return ac
}

// Estimate returns both legs with no extras.
func (e *Estimator) Estimate(d domain.DestinationDescriptor, trip Trip) domain.TravelCostEstimate {
	return domain.TravelCostEstimate{
		Flight:        e.Flight(d, trip),
		Accommodation: e.Accommodation(d, trip),
		Currency:      domain.CurrencyBRL,
	}
}

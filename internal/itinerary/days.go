package itinerary

import (
	"time"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
)

// MaxDays caps the generated plan regardless of the date range.
const MaxDays = 21

// DateLayout is the request date format.
const DateLayout = "2006-01-02"

// Span is the day and night count of a trip.
type Span struct {
	Start  time.Time
	Days   int // (return - departure) + 1, capped at MaxDays
	Nights int // return - departure, at least 1
}

// SpanOf validates the dates and computes the trip span.
func SpanOf(departure, ret string) (Span, error) {
	start, err := time.Parse(DateLayout, departure)
	if err != nil {
		return Span{}, &domain.ErrValidation{Field: "departureDate", Message: "must be YYYY-MM-DD"}
	}
	end, err := time.Parse(DateLayout, ret)
	if err != nil {
		return Span{}, &domain.ErrValidation{Field: "returnDate", Message: "must be YYYY-MM-DD"}
	}
	if end.Before(start) {
		return Span{}, &domain.ErrValidation{Field: "returnDate", Message: "must not be before departureDate"}
	}

	diff := int(end.Sub(start).Hours() / 24)
	days := diff + 1
	if days > MaxDays {
		days = MaxDays
	}
	nights := diff
	if nights < 1 {
		nights = 1
	}
	return Span{Start: start, Days: days, Nights: nights}, nil
}

// AdjustDays pads the plan with free days or truncates it so it has exactly
// count days. Kept days are not modified.
func AdjustDays(data domain.ItineraryData, count int, start time.Time) domain.ItineraryData {
	if count < 0 {
		count = 0
	}
	out := data
	if len(data.Days) >= count {
		out.Days = append([]domain.ItineraryDay(nil), data.Days[:count]...)
		return out
	}

	out.Days = make([]domain.ItineraryDay, 0, count)
	out.Days = append(out.Days, data.Days...)
	for n := len(data.Days) + 1; n <= count; n++ {
		out.Days = append(out.Days, freeDay(n, start))
	}
	return out
}

func freeDay(n int, start time.Time) domain.ItineraryDay {
	return domain.ItineraryDay{
		Day:   n,
		Date:  start.AddDate(0, 0, n-1).Format(DateLayout),
		Theme: "Dia livre",
		Activities: []domain.ItineraryActivity{
			{Time: "10:00", Name: "Passeio livre pela cidade", Description: "Explore o bairro no seu ritmo.", EstimatedCost: "Gratuito"},
			{Time: "19:30", Name: "Jantar em restaurante local", EstimatedCost: "R$ 120"},
		},
	}
}

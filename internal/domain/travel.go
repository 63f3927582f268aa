package domain

import (
	"encoding/json"
	"math"
	"time"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/geo"
)

// ============================================================
// Travel style
// ============================================================

// TravelStyle drives the style multipliers and the offer selection.
type TravelStyle string

const (
	StyleEconomica TravelStyle = "Econômica"
	StyleConforto  TravelStyle = "Conforto"
	StyleLuxo      TravelStyle = "Luxo"
	StyleAventura  TravelStyle = "Aventura"
)

// ParseTravelStyle is case and accent insensitive. Unknown or empty input
// resolves to Conforto.
func ParseTravelStyle(s string) TravelStyle {
	switch geo.Normalize(s) {
	case "economica", "economico", "economy":
		return StyleEconomica
	case "luxo", "luxury":
		return StyleLuxo
	case "aventura", "adventure":
		return StyleAventura
	default:
		return StyleConforto
	}
}

// Data provenance tags.
const (
	ProvenanceReal      = "real"
	ProvenanceEstimate  = "estimate"
	DataTypeReal        = "real"
	DataTypeHybrid      = "hybrid"
	DataTypeEstimated   = "estimated"
	CurrencyBRL         = "BRL"
	SourceLLM           = "llm"
	SourceFallbackTempl = "fallback_template"
)

// ============================================================
// Adapter contracts
// ============================================================

// FlightQuery is the input of the flight adapter.
type FlightQuery struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
	Style         TravelStyle
}

// FlightOffer is the flight adapter result.
type FlightOffer struct {
	PricePerPerson float64 `json:"pricePerPerson"`
	TotalPrice     float64 `json:"totalPrice"`
	Currency       string  `json:"currency"`
	AirlineCode    string  `json:"airlineCode"`
	AirlineName    string  `json:"airlineName"`
	QuotationDate  string  `json:"quotationDate"`
}

// AccommodationQuery is the input of the accommodation adapter.
type AccommodationQuery struct {
	CityCode string
	CheckIn  string
	CheckOut string
	Adults   int
	Style    TravelStyle
}

// AccommodationOffer is the accommodation adapter result.
type AccommodationOffer struct {
	PricePerDay   float64 `json:"pricePerDay"`
	TotalPrice    float64 `json:"totalPrice"`
	Currency      string  `json:"currency"`
	HotelName     string  `json:"hotelDetails"`
	QuotationDate string  `json:"quotationDate"`
}

// ============================================================
// Cost breakdown
// ============================================================

// FlightCost is the flight leg of a TravelCostEstimate.
type FlightCost struct {
	PerPerson     float64 `json:"perPerson"`
	Total         float64 `json:"total"`
	Source        string  `json:"source"` // real | estimate
	AirlineCode   string  `json:"airlineCode,omitempty"`
	AirlineName   string  `json:"airlineName,omitempty"`
	QuotationDate string  `json:"quotationDate,omitempty"`
}

// AccommodationCost is the accommodation leg of a TravelCostEstimate.
type AccommodationCost struct {
	PerDay        float64 `json:"perDay"`
	Total         float64 `json:"total"`
	Nights        int     `json:"nights"`
	Source        string  `json:"source"` // real | estimate
	HotelName     string  `json:"hotelName,omitempty"`
	QuotationDate string  `json:"quotationDate,omitempty"`
}

// TravelCostEstimate is the per-leg cost breakdown of one trip.
// The grand total is derived on every read and never stored.
type TravelCostEstimate struct {
	Flight        FlightCost        `json:"flight"`
	Accommodation AccommodationCost `json:"accommodation"`
	ExtrasTotal   float64           `json:"extrasTotal"`
	Currency      string            `json:"currency"`
}

// GrandTotal returns flight + accommodation + extras.
func (t TravelCostEstimate) GrandTotal() float64 {
	return round2(t.Flight.Total + t.Accommodation.Total + t.ExtrasTotal)
}

// MarshalJSON adds the derived grandTotal field.
func (t TravelCostEstimate) MarshalJSON() ([]byte, error) {
	type alias TravelCostEstimate
	return json.Marshal(struct {
		alias
		GrandTotal float64 `json:"grandTotal"`
	}{alias: alias(t), GrandTotal: t.GrandTotal()})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ============================================================
// Destination suggestion
// ============================================================

// Destination categories.
const (
	CategoryNacional      = "nacional"
	CategoryAmericaDoSul  = "america_do_sul"
	CategoryInternacional = "internacional"
)

// DestinationDescriptor is a catalog entry.
type DestinationDescriptor struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Category  string  `json:"category"`
	MinBudget float64 `json:"minBudget"`
}

// DestinationCandidate is one scored option during destination suggestion.
type DestinationCandidate struct {
	Destination DestinationDescriptor `json:"destination"`
	Costs       TravelCostEstimate    `json:"costs"`
	DataType    string                `json:"dataType"`
	Score       float64               `json:"score"`
}

// SuggestionRequest is the input of POST /v1/travel/destination-suggestion.
type SuggestionRequest struct {
	Budget        float64     `json:"budget" validate:"required,gt=0"`
	Travelers     int         `json:"travelersCount,omitempty" validate:"omitempty,min=1,max=20"`
	Days          int         `json:"days,omitempty" validate:"omitempty,min=1,max=30"`
	Style         TravelStyle `json:"travelStyle,omitempty"`
	Origin        string      `json:"origin,omitempty" validate:"omitempty,len=3"`
	DepartureDate string      `json:"departureDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// DestinationSuggestion is the selected candidate plus provenance flags.
// The four boolean flags are always serialized.
type DestinationSuggestion struct {
	Success                  bool                  `json:"success"`
	Destination              DestinationDescriptor `json:"destination"`
	TravelCosts              TravelCostEstimate    `json:"travelCosts"`
	DataType                 string                `json:"dataType"`
	Score                    float64               `json:"score"`
	RemainingBudget          float64               `json:"remainingBudget"`
	HasRealFlightData        bool                  `json:"hasRealFlightData"`
	HasRealAccommodationData bool                  `json:"hasRealAccommodationData"`
	IsEstimate               bool                  `json:"isEstimate"`
	IsRealData               bool                  `json:"isRealData"`
	CandidatesEvaluated      int                   `json:"candidatesEvaluated"`
	GeneratedAt              time.Time             `json:"generatedAt"`
}

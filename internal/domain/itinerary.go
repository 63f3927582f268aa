package domain

// ============================================================
// Itinerary
// ============================================================

// ItineraryRequest is the input of POST /v1/travel/itinerary.
type ItineraryRequest struct {
	Destination           string      `json:"destination" validate:"required,min=2,max=120"`
	Origin                string      `json:"origin,omitempty" validate:"omitempty,len=3"`
	Budget                float64     `json:"budget,omitempty" validate:"gte=0"`
	DepartureDate         string      `json:"departureDate" validate:"required,datetime=2006-01-02"`
	ReturnDate            string      `json:"returnDate" validate:"required,datetime=2006-01-02"`
	TravelersCount        int         `json:"travelersCount" validate:"omitempty,min=1,max=20"`
	TravelStyle           TravelStyle `json:"travelStyle,omitempty"`
	AdditionalPreferences string      `json:"additionalPreferences,omitempty" validate:"max=1000"`
}

// ItineraryActivity is one scheduled activity of a day.
type ItineraryActivity struct {
	Time             string  `json:"time"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	Location         string  `json:"location,omitempty"`
	EstimatedCost    string  `json:"estimatedCost,omitempty"`
	CostBRL          float64 `json:"costBRL"`
	PriceSource      string  `json:"priceSource,omitempty"`
	Confidence       string  `json:"confidence,omitempty"`
	OriginalCurrency string  `json:"originalCurrency,omitempty"`
	ExchangeRate     float64 `json:"exchangeRate,omitempty"`
	ExchangeDate     string  `json:"exchangeDate,omitempty"`
}

// ItineraryDay is one day of the plan.
type ItineraryDay struct {
	Day        int                 `json:"day"`
	Date       string              `json:"date,omitempty"`
	Theme      string              `json:"theme,omitempty"`
	Activities []ItineraryActivity `json:"activities"`
}

// ItineraryData is the structured plan produced by the text generator.
type ItineraryData struct {
	Title   string         `json:"title"`
	Summary string         `json:"summary,omitempty"`
	Days    []ItineraryDay `json:"days"`
}

// BudgetAnalysis is the budget sufficiency verdict.
type BudgetAnalysis struct {
	Budget     float64 `json:"budget"`
	GrandTotal float64 `json:"grandTotal"`
	Difference float64 `json:"difference"`
	Percentage float64 `json:"percentage"`
	Sufficient bool    `json:"sufficient"`
	Message    string  `json:"message"`
}

// ItineraryProvenance discloses where each part of the itinerary came from.
type ItineraryProvenance struct {
	ItinerarySource        string `json:"itinerarySource"` // llm | fallback_template
	ParseStrategy          int    `json:"parseStrategy,omitempty"`
	Degraded               bool   `json:"degraded"`
	DegradedReason         string `json:"degradedReason,omitempty"`
	DestinationCode        string `json:"destinationCode"`
	DestinationCodeGuessed bool   `json:"destinationCodeGuessed"`
	PricedActivities       int    `json:"pricedActivities"`
	EstimatedActivities    int    `json:"estimatedActivities"`
}

// Itinerary is the full generation result.
type Itinerary struct {
	ID             string              `json:"id"`
	ItineraryData  ItineraryData       `json:"itineraryData"`
	TravelCosts    TravelCostEstimate  `json:"travelCosts"`
	BudgetAnalysis *BudgetAnalysis     `json:"budgetAnalysis,omitempty"`
	Provenance     ItineraryProvenance `json:"provenance"`
}

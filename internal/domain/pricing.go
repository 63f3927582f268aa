package domain

import "time"

// ============================================================
// Price observations & reconciliation
// ============================================================

// Confidence tiers for a single PriceQuote.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Confidence levels for a ReconciledPriceEstimate.
const (
	LevelReal      = "real"
	LevelEstimated = "estimated"
)

// PriceQuote is one observation of a price from one source.
type PriceQuote struct {
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Source     string    `json:"source"`
	StoreName  string    `json:"storeName"`
	URL        string    `json:"url,omitempty"`
	Confidence string    `json:"confidence"`
	ObservedAt time.Time `json:"observedAt"`
}

// ReconciledPriceEstimate is the outlier-filtered combination of N quotes.
type ReconciledPriceEstimate struct {
	Average         float64 `json:"averagePrice"`
	Min             float64 `json:"minPrice"`
	Max             float64 `json:"maxPrice"`
	ConfidenceLevel string  `json:"confidenceLevel"`
	QuoteCount      int     `json:"quoteCount"`
}

// CachedPrice is the shape stored in the price caches. It mirrors the
// product_prices_cache / activity_prices_cache rows.
type CachedPrice struct {
	CacheKey    string                  `json:"cache_key"`
	Name        string                  `json:"name"`
	Estimate    ReconciledPriceEstimate `json:"estimate"`
	Quotes      []PriceQuote            `json:"quotes,omitempty"`
	Currency    string                  `json:"currency"`
	LastUpdated time.Time               `json:"last_updated"`
}

// ============================================================
// Product price comparison
// ============================================================

// ProductQuery is the normalized input of every product price source.
type ProductQuery struct {
	Name  string `json:"productName" validate:"required,min=2,max=200"`
	Brand string `json:"brand,omitempty" validate:"max=100"`
}

// SourceStatus reports the outcome of one source during a product search.
type SourceStatus struct {
	Source string `json:"source"`
	Quotes int    `json:"quotes"`
	Error  string `json:"error,omitempty"`
}

// ProductPriceResult is returned by POST /v1/prices/search.
type ProductPriceResult struct {
	Query     ProductQuery            `json:"query"`
	Estimate  ReconciledPriceEstimate `json:"estimate"`
	Quotes    []PriceQuote            `json:"quotes"`
	Sources   []SourceStatus          `json:"sources,omitempty"`
	FromCache bool                    `json:"fromCache"`
	Currency  string                  `json:"currency"`
}

// ============================================================
// Activity prices & currency
// ============================================================

// Activity price provenance.
const (
	PriceSourcePlaces   = "google_places"
	PriceSourceCache    = "cache"
	PriceSourceEstimate = "estimate"
)

// ActivityPrice is the activity price adapter contract.
type ActivityPrice struct {
	EstimatedPrice    float64 `json:"estimatedPrice"`
	EstimatedPriceBRL float64 `json:"estimatedPriceBRL"`
	OriginalCurrency  string  `json:"originalCurrency"`
	ExchangeRate      float64 `json:"exchangeRate"`
	ExchangeDate      string  `json:"exchangeDate"`
	Source            string  `json:"source"`
	Confidence        string  `json:"confidence"`
}

// Conversion is the result of converting a numeric amount.
type Conversion struct {
	Amount   float64 `json:"convertedAmount"`
	Rate     float64 `json:"exchangeRate"`
	AsOfDate string  `json:"date"`
	Fallback bool    `json:"fallbackRate"`
}

// PriceConversion is the result of converting a free-text price string.
type PriceConversion struct {
	Input            string  `json:"input"`
	OriginalCurrency string  `json:"originalCurrency"`
	OriginalAmount   float64 `json:"originalAmount"`
	Currency         string  `json:"currency"`
	Amount           float64 `json:"convertedAmount"`
	Formatted        string  `json:"formatted"`
	Rate             float64 `json:"exchangeRate"`
	AsOfDate         string  `json:"date"`
	Converted        bool    `json:"converted"`
}

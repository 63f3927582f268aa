// Package pricing merges price observations from several sources and
// normalizes free-text prices.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
)

// MaxDeviation is the largest relative distance from the median a quote may
// have and still count.
const MaxDeviation = 0.5

// minAuthoritativeQuotes is how many surviving quotes an authoritative source
// needs alongside it to upgrade the estimate to real.
const minAuthoritativeQuotes = 3

// Reconcile combines quotes into one estimate. Quotes further than 50% from the
// median are dropped before averaging. authoritative lists source identifiers
// trusted enough to label the result real when at least three quotes survive.
func Reconcile(quotes []domain.PriceQuote, authoritative ...string) (*domain.ReconciledPriceEstimate, error) {
	valid := make([]domain.PriceQuote, 0, len(quotes))
	for _, q := range quotes {
		if q.Amount > 0 {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		return nil, &domain.ErrNoValidPrices{Received: len(quotes)}
	}

	median := Median(valid)
	kept := make([]domain.PriceQuote, 0, len(valid))
	for _, q := range valid {
		if deviation(q.Amount, median) <= MaxDeviation {
			kept = append(kept, q)
		}
	}
	if len(kept) == 0 {
		return nil, &domain.ErrNoValidPrices{Received: len(quotes)}
	}

	sum := decimal.Zero
	lo, hi := kept[0].Amount, kept[0].Amount
	for _, q := range kept {
		sum = sum.Add(decimal.NewFromFloat(q.Amount))
		if q.Amount < lo {
			lo = q.Amount
		}
		if q.Amount > hi {
			hi = q.Amount
		}
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(kept)))).Round(2)

	return &domain.ReconciledPriceEstimate{
		Average:         avg.InexactFloat64(),
		Min:             lo,
		Max:             hi,
		ConfidenceLevel: confidenceLevel(kept, authoritative),
		QuoteCount:      len(kept),
	}, nil
}

// Median of the quote amounts; the mean of the two middle values for an even count.
func Median(quotes []domain.PriceQuote) float64 {
	if len(quotes) == 0 {
		return 0
	}
	amounts := make([]float64, len(quotes))
	for i, q := range quotes {
		amounts[i] = q.Amount
	}
	sort.Float64s(amounts)
	mid := len(amounts) / 2
	if len(amounts)%2 == 1 {
		return amounts[mid]
	}
	return (amounts[mid-1] + amounts[mid]) / 2
}

func deviation(v, median float64) float64 {
	if median == 0 {
		return 0
	}
	d := (v - median) / median
	if d < 0 {
		return -d
	}
	return d
}

func confidenceLevel(kept []domain.PriceQuote, authoritative []string) string {
	hasAuthoritative := false
	for _, q := range kept {
		if q.Confidence == domain.ConfidenceHigh {
			return domain.LevelReal
		}
		for _, a := range authoritative {
			if q.Source == a {
				hasAuthoritative = true
			}
		}
	}
	if hasAuthoritative && len(kept) >= minAuthoritativeQuotes {
		return domain.LevelReal
	}
	return domain.LevelEstimated
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/cache"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/port"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/pricing"
)

const dateLayout = "2006-01-02"

// fallbackRatesBRL holds approximate BRL prices of one unit of each currency.
// Used whenever the live provider fails.
var fallbackRatesBRL = map[string]float64{
	"BRL": 1,
	"USD": 5.5,
	"EUR": 6.7,
	"GBP": 7.8,
	"JPY": 0.037,
	"ARS": 0.0055,
	"CLP": 0.0058,
	"UYU": 0.13,
	"PEN": 1.5,
	"COP": 0.0013,
	"MXN": 0.30,
	"CAD": 4.0,
	"AUD": 3.6,
	"CHF": 6.3,
	"AED": 1.5,
}

// CurrencyConverter converts amounts using the live provider, with a rate
// cache per pair per day and a fixed table when the provider fails.
// Convert never fails: the caller always gets a rate dated today.
type CurrencyConverter struct {
	provider port.ExchangeRateProvider
	rates    *cache.InMemory[float64]
	now      func() time.Time
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewCurrencyConverter creates the converter. provider may be nil, in which
// case only the fallback table is used.
func NewCurrencyConverter(provider port.ExchangeRateProvider, metrics *observability.Metrics, logger *zap.Logger) *CurrencyConverter {
	return NewCurrencyConverterWithClock(provider, time.Now, metrics, logger)
}

// NewCurrencyConverterWithClock is NewCurrencyConverter with an injected clock.
func NewCurrencyConverterWithClock(provider port.ExchangeRateProvider, now func() time.Time, metrics *observability.Metrics, logger *zap.Logger) *CurrencyConverter {
	return &CurrencyConverter{
		provider: provider,
		rates:    cache.NewWithClock[float64](24*time.Hour, now),
		now:      now,
		metrics:  metrics,
		logger:   logger,
	}
}

// Convert converts amount from one currency to another.
func (c *CurrencyConverter) Convert(ctx context.Context, amount float64, from, to string) domain.Conversion {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	asOf := c.now().Format(dateLayout)

	if from == to {
		return domain.Conversion{Amount: amount, Rate: 1, AsOfDate: asOf}
	}

	rate, fallback := c.rate(ctx, from, to, asOf)
	converted := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).Round(2)

	return domain.Conversion{
		Amount:   converted.InexactFloat64(),
		Rate:     rate,
		AsOfDate: asOf,
		Fallback: fallback,
	}
}

// ConvertPrice converts a free-text price ("€50", "US$ 1,234.56", "R$ 80").
// The currency is detected before parsing; a price already in the target
// currency passes through unchanged. A bare "$" is read as US dollars.
func (c *CurrencyConverter) ConvertPrice(ctx context.Context, text, to string) domain.PriceConversion {
	return c.ConvertPriceIn(ctx, text, to, "USD")
}

// ConvertPriceIn is ConvertPrice for prices quoted at a place where a bare
// "$" means bareDollar (ARS in Buenos Aires, CLP in Santiago).
func (c *CurrencyConverter) ConvertPriceIn(ctx context.Context, text, to, bareDollar string) domain.PriceConversion {
	to = strings.ToUpper(to)
	from, _ := pricing.DetectCurrencyWith(text, bareDollar)
	amount := pricing.ParsePrice(text)

	out := domain.PriceConversion{
		Input:            text,
		OriginalCurrency: from,
		OriginalAmount:   amount,
		Currency:         to,
	}

	if from == to {
		out.Amount = amount
		out.Rate = 1
		out.AsOfDate = c.now().Format(dateLayout)
		out.Formatted = format(amount, to)
		return out
	}

	conv := c.Convert(ctx, amount, from, to)
	out.Amount = conv.Amount
	out.Rate = conv.Rate
	out.AsOfDate = conv.AsOfDate
	out.Formatted = format(conv.Amount, to)
	out.Converted = true
	return out
}

func (c *CurrencyConverter) rate(ctx context.Context, from, to, asOf string) (float64, bool) {
	key := fmt.Sprintf("%s-%s|%s", from, to, asOf)
	if r, ok := c.rates.Get(key); ok {
		return r, false
	}

	if c.provider != nil {
		r, err := c.provider.Rate(ctx, from, to)
		if err == nil && r > 0 {
			c.rates.Set(key, r)
			return r, false
		}
		c.metrics.IncrExternalError("exchange_rate")
		c.logger.Warn("exchange rate lookup failed, using fallback table",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
	}

	return c.fallbackRate(from, to), true
}

func (c *CurrencyConverter) fallbackRate(from, to string) float64 {
	fromBRL, okFrom := fallbackRatesBRL[from]
	toBRL, okTo := fallbackRatesBRL[to]
	if !okFrom || !okTo {
		c.logger.Warn("no fallback rate for currency pair, assuming 1.0",
			zap.String("from", from),
			zap.String("to", to),
		)
		return 1.0
	}
	return decimal.NewFromFloat(fromBRL).Div(decimal.NewFromFloat(toBRL)).Round(6).InexactFloat64()
}

func format(amount float64, currency string) string {
	if currency == domain.CurrencyBRL {
		return pricing.FormatBRL(amount)
	}
	return fmt.Sprintf("%s %.2f", currency, amount)
}

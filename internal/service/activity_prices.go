package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/port"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/pricing"
)

// ActivityPriceService prices a named activity: cache, then the places
// source, reconciled and converted to BRL.
type ActivityPriceService struct {
	source    port.ActivityPriceSource
	cache     port.PriceCache
	converter *CurrencyConverter
	now       func() time.Time
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewActivityPriceService creates the service. cache may be nil.
func NewActivityPriceService(
	source port.ActivityPriceSource,
	cache port.PriceCache,
	converter *CurrencyConverter,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ActivityPriceService {
	return &ActivityPriceService{
		source:    source,
		cache:     cache,
		converter: converter,
		now:       time.Now,
		metrics:   metrics,
		logger:    logger,
	}
}

// GetActivityPrice returns the BRL price of an activity. Errors from the
// source are returned as-is so callers can fall back to their own estimate.
func (s *ActivityPriceService) GetActivityPrice(ctx context.Context, name, location string) (*domain.ActivityPrice, error) {
	ctx, span := tracer.Start(ctx, "ActivityPriceService.GetActivityPrice")
	defer span.End()
	span.SetAttributes(attribute.String("activity", name), attribute.String("location", location))

	if strings.TrimSpace(name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "is required"}
	}

	key := pricing.CacheKey(name, location)
	if cached := s.lookup(ctx, key); cached != nil {
		s.metrics.IncrCacheHit("activity")
		return s.price(ctx, cached.Estimate, cached.Currency, domain.PriceSourceCache), nil
	}
	s.metrics.IncrCacheMiss("activity")

	if s.source == nil {
		return nil, &domain.ErrSourceUnavailable{Source: domain.PriceSourcePlaces, Reason: "not configured"}
	}

	quotes, err := s.source.SearchActivity(ctx, name, location)
	if err != nil {
		return nil, err
	}

	est, err := pricing.Reconcile(quotes)
	if err != nil {
		return nil, err
	}

	currency := quoteCurrency(quotes)
	s.store(ctx, &domain.CachedPrice{
		CacheKey:    key,
		Name:        name,
		Estimate:    *est,
		Currency:    currency,
		LastUpdated: s.now().UTC(),
	})

	return s.price(ctx, *est, currency, domain.PriceSourcePlaces), nil
}

func (s *ActivityPriceService) price(ctx context.Context, est domain.ReconciledPriceEstimate, currency, source string) *domain.ActivityPrice {
	conv := s.converter.Convert(ctx, est.Average, currency, domain.CurrencyBRL)
	return &domain.ActivityPrice{
		EstimatedPrice:    est.Average,
		EstimatedPriceBRL: conv.Amount,
		OriginalCurrency:  currency,
		ExchangeRate:      conv.Rate,
		ExchangeDate:      conv.AsOfDate,
		Source:            source,
		Confidence:        quoteConfidence(est.ConfidenceLevel),
	}
}

// lookup treats cache failures as misses.
func (s *ActivityPriceService) lookup(ctx context.Context, key string) *domain.CachedPrice {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.GetPrice(ctx, key)
	if err != nil {
		s.logger.Warn("activity cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return cached
}

func (s *ActivityPriceService) store(ctx context.Context, entry *domain.CachedPrice) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetPrice(ctx, entry); err != nil {
		s.logger.Warn("activity cache write failed", zap.String("key", entry.CacheKey), zap.Error(err))
	}
}

// quoteCurrency returns the currency shared by the quotes (first wins).
func quoteCurrency(quotes []domain.PriceQuote) string {
	for _, q := range quotes {
		if q.Currency != "" {
			return strings.ToUpper(q.Currency)
		}
	}
	return domain.CurrencyBRL
}

func quoteConfidence(level string) string {
	if level == domain.LevelReal {
		return domain.ConfidenceHigh
	}
	return domain.ConfidenceMedium
}

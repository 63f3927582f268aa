package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/port"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/pricing"
)

// ProductPriceService compares a product's price across every configured
// source and caches the reconciled result.
type ProductPriceService struct {
	sources       []port.ProductPriceSource
	cache         port.PriceCache
	authoritative []string
	now           func() time.Time
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewProductPriceService creates the service. authoritative names the
// sources whose quotes can upgrade an estimate to real.
func NewProductPriceService(
	sources []port.ProductPriceSource,
	cache port.PriceCache,
	authoritative []string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ProductPriceService {
	return &ProductPriceService{
		sources:       sources,
		cache:         cache,
		authoritative: authoritative,
		now:           time.Now,
		metrics:       metrics,
		logger:        logger,
	}
}

// Search returns the reconciled price of a product.
func (s *ProductPriceService) Search(ctx context.Context, q domain.ProductQuery) (*domain.ProductPriceResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "ProductPriceService.Search")
	defer span.End()
	span.SetAttributes(attribute.String("product", q.Name), attribute.String("brand", q.Brand))

	q.Name = strings.TrimSpace(q.Name)
	q.Brand = strings.TrimSpace(q.Brand)
	if q.Name == "" {
		return nil, &domain.ErrValidation{Field: "productName", Message: "is required"}
	}

	key := pricing.CacheKey(q.Name, q.Brand)
	if cached := s.lookup(ctx, key); cached != nil {
		s.metrics.IncrCacheHit("product")
		return &domain.ProductPriceResult{
			Query:     q,
			Estimate:  cached.Estimate,
			Quotes:    cached.Quotes,
			FromCache: true,
			Currency:  cached.Currency,
		}, nil
	}
	s.metrics.IncrCacheMiss("product")

	quotes, statuses := s.fanOut(ctx, q)

	est, err := pricing.Reconcile(quotes, s.authoritative...)
	if err != nil {
		var noPrices *domain.ErrNoValidPrices
		if errors.As(err, &noPrices) {
			noPrices.Query = q.Name
		}
		s.logger.Info("no valid product prices",
			zap.String("product", q.Name),
			zap.Int("quotes", len(quotes)),
		)
		return nil, err
	}

	result := &domain.ProductPriceResult{
		Query:    q,
		Estimate: *est,
		Quotes:   quotes,
		Sources:  statuses,
		Currency: domain.CurrencyBRL,
	}
	s.store(ctx, &domain.CachedPrice{
		CacheKey:    key,
		Name:        q.Name,
		Estimate:    *est,
		Quotes:      quotes,
		Currency:    domain.CurrencyBRL,
		LastUpdated: s.now().UTC(),
	})

	return result, nil
}

// fanOut queries every source concurrently. Source failures are reported
// in the statuses and never cancel the other sources.
func (s *ProductPriceService) fanOut(ctx context.Context, q domain.ProductQuery) ([]domain.PriceQuote, []domain.SourceStatus) {
	results := make([][]domain.PriceQuote, len(s.sources))
	statuses := make([]domain.SourceStatus, len(s.sources))

	g, gCtx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() error {
			statuses[i].Source = src.Name()
			quotes, err := src.SearchProduct(gCtx, q)
			if err != nil {
				statuses[i].Error = err.Error()
				s.countSourceError(src.Name(), err)
				s.logger.Info("product source failed",
					zap.String("source", src.Name()),
					zap.Error(err),
				)
				return nil
			}
			results[i] = quotes
			statuses[i].Quotes = len(quotes)
			return nil
		})
	}
	_ = g.Wait()

	var all []domain.PriceQuote
	for _, r := range results {
		all = append(all, r...)
	}
	return all, statuses
}

func (s *ProductPriceService) countSourceError(source string, err error) {
	if !expectedSkip(err) {
		s.metrics.IncrExternalError(source)
	}
}

func (s *ProductPriceService) lookup(ctx context.Context, key string) *domain.CachedPrice {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.GetPrice(ctx, key)
	if err != nil {
		s.logger.Warn("product cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return cached
}

func (s *ProductPriceService) store(ctx context.Context, entry *domain.CachedPrice) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetPrice(ctx, entry); err != nil {
		s.logger.Warn("product cache write failed", zap.String("key", entry.CacheKey), zap.Error(err))
	}
}

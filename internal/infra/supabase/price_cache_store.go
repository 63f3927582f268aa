package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/resilience"
)

// ============================================================
// Price cache tables: product_prices_cache / activity_prices_cache
// ============================================================

// PriceTable describes one cache table and the column that holds the item name.
type PriceTable struct {
	Name       string
	NameColumn string
}

var (
	ProductPricesTable  = PriceTable{Name: "product_prices_cache", NameColumn: "product_name"}
	ActivityPricesTable = PriceTable{Name: "activity_prices_cache", NameColumn: "activity_name"}
)

// priceRow maps the cache table columns. Only one of the name columns is set.
type priceRow struct {
	CacheKey        string              `json:"cache_key"`
	ProductName     string              `json:"product_name,omitempty"`
	ActivityName    string              `json:"activity_name,omitempty"`
	Prices          []domain.PriceQuote `json:"prices,omitempty"`
	EstimatedPrice  float64             `json:"estimated_price"`
	AveragePrice    float64             `json:"average_price"`
	MinPrice        float64             `json:"min_price"`
	MaxPrice        float64             `json:"max_price"`
	ConfidenceLevel string              `json:"confidence_level"`
	QuoteCount      int                 `json:"quote_count"`
	Currency        string              `json:"currency"`
	LastUpdated     time.Time           `json:"last_updated"`
}

// PriceCacheStore implements port.PriceCache on a PostgREST table.
// Rows older than ttl are ignored on read and overwritten on the next write.
type PriceCacheStore struct {
	client *Client
	table  PriceTable
	ttl    time.Duration
	now    func() time.Time
}

// NewPriceCacheStore binds a table to the client.
func NewPriceCacheStore(c *Client, table PriceTable, ttl time.Duration) *PriceCacheStore {
	return &PriceCacheStore{client: c, table: table, ttl: ttl, now: time.Now}
}

func (s *PriceCacheStore) GetPrice(ctx context.Context, key string) (*domain.CachedPrice, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetPrice")
	defer span.End()
	span.SetAttributes(
		attribute.String("table", s.table.Name),
		attribute.String("cache.key", key),
	)

	cutoff := s.now().Add(-s.ttl).UTC().Format(time.RFC3339)
	path := fmt.Sprintf("%s?cache_key=eq.%s&last_updated=gte.%s&limit=1",
		s.table.Name, url.QueryEscape(key), url.QueryEscape(cutoff))

	var found *domain.CachedPrice
	_, err := s.client.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, s.client.cfg, func() error {
			body, err := s.client.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				return nil
			}

			var rows []priceRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return resilience.Permanent(fmt.Errorf("decode %s row: %w", s.table.Name, err))
			}
			if len(rows) > 0 {
				found = s.fromRow(rows[0])
			}
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/" + s.table.Name, Err: err}
	}
	return found, nil
}

func (s *PriceCacheStore) SetPrice(ctx context.Context, entry *domain.CachedPrice) error {
	ctx, span := tracer.Start(ctx, "Supabase.SetPrice")
	defer span.End()
	span.SetAttributes(attribute.String("table", s.table.Name))

	row := s.toRow(entry)
	_, err := s.client.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, s.client.cfg, func() error {
			return s.client.doUpsert(ctx, s.table.Name, "cache_key", row)
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/" + s.table.Name, Err: err}
	}
	return nil
}

func (s *PriceCacheStore) toRow(e *domain.CachedPrice) priceRow {
	row := priceRow{
		CacheKey:        e.CacheKey,
		Prices:          e.Quotes,
		EstimatedPrice:  e.Estimate.Average,
		AveragePrice:    e.Estimate.Average,
		MinPrice:        e.Estimate.Min,
		MaxPrice:        e.Estimate.Max,
		ConfidenceLevel: e.Estimate.ConfidenceLevel,
		QuoteCount:      e.Estimate.QuoteCount,
		Currency:        e.Currency,
		LastUpdated:     e.LastUpdated.UTC(),
	}
	if s.table.NameColumn == ActivityPricesTable.NameColumn {
		row.ActivityName = e.Name
	} else {
		row.ProductName = e.Name
	}
	return row
}

func (s *PriceCacheStore) fromRow(r priceRow) *domain.CachedPrice {
	name := r.ProductName
	if name == "" {
		name = r.ActivityName
	}
	avg := r.AveragePrice
	if avg == 0 {
		avg = r.EstimatedPrice
	}
	return &domain.CachedPrice{
		CacheKey: r.CacheKey,
		Name:     name,
		Estimate: domain.ReconciledPriceEstimate{
			Average:         avg,
			Min:             r.MinPrice,
			Max:             r.MaxPrice,
			ConfidenceLevel: r.ConfidenceLevel,
			QuoteCount:      r.QuoteCount,
		},
		Quotes:      r.Prices,
		Currency:    r.Currency,
		LastUpdated: r.LastUpdated,
	}
}

package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/resilience"
)

const (
	placesService        = "google_places"
	defaultPlacesBaseURL = "https://maps.googleapis.com"
)

// priceLevelUSD maps the Places price_level (1..4) to a typical ticket in USD.
// Level 0 means free and is dropped.
var priceLevelUSD = map[int]float64{
	1: 15,
	2: 35,
	3: 70,
	4: 150,
}

// PlacesClient looks up activities on Google Places Text Search.
// It implements port.ActivityPriceSource.
type PlacesClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *resilience.RateLimiter
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
	now        func() time.Time
}

// NewPlacesClient creates a new PlacesClient. An empty baseURL selects the public endpoint.
func NewPlacesClient(httpClient *http.Client, baseURL, apiKey string, limiter *resilience.RateLimiter, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *PlacesClient {
	if baseURL == "" {
		baseURL = defaultPlacesBaseURL
	}
	return &PlacesClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		limiter:    limiter,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func (c *PlacesClient) Configured() bool { return c.apiKey != "" }

type placesTextSearch struct {
	Status  string `json:"status"`
	Results []struct {
		Name       string `json:"name"`
		PriceLevel *int   `json:"price_level"`
		PlaceID    string `json:"place_id"`
	} `json:"results"`
}

// SearchActivity returns one USD quote per matching place that carries a price level.
func (c *PlacesClient) SearchActivity(ctx context.Context, name, location string) ([]domain.PriceQuote, error) {
	ctx, span := tracer.Start(ctx, "PlacesClient.SearchActivity")
	defer span.End()
	span.SetAttributes(
		attribute.String("activity.name", name),
		attribute.String("activity.location", location),
	)

	if !c.Configured() {
		return nil, &domain.ErrSourceUnavailable{Source: placesService, Reason: "missing api key"}
	}

	query := strings.TrimSpace(name + " " + location)
	params := url.Values{}
	params.Set("query", query)
	params.Set("language", "pt-BR")
	params.Set("key", c.apiKey)
	endpoint := c.baseURL + "/maps/api/place/textsearch/json?" + params.Encode()

	var quotes []domain.PriceQuote
	err := callLimited(ctx, c.cb, c.cfg, c.limiter, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return resilience.Permanent(err)
		}

		if !c.limiter.Acquire(ctx) {
			return resilience.Permanent(&domain.ErrRateLimited{Source: placesService})
		}

		var resp placesTextSearch
		if err := getJSON(c.httpClient, req, &resp); err != nil {
			settle(c.limiter, err)
			return err
		}

		if resp.Status == "OVER_QUERY_LIMIT" {
			c.limiter.RecordFailure(http.StatusTooManyRequests)
			return resilience.Permanent(&domain.ErrRateLimited{Source: placesService})
		}
		c.limiter.RecordSuccess()

		switch resp.Status {
		case "OK":
		case "ZERO_RESULTS":
			return resilience.Permanent(&domain.ErrNoResults{Source: placesService, Query: query})
		case "REQUEST_DENIED":
			return resilience.Permanent(&domain.ErrSourceUnavailable{Source: placesService, Reason: "request denied"})
		default:
			return &httpStatusError{Status: http.StatusBadGateway, Body: "places status " + resp.Status}
		}

		observed := c.now()
		quotes = quotes[:0]
		for _, r := range resp.Results {
			if r.PriceLevel == nil {
				continue
			}
			usd, ok := priceLevelUSD[*r.PriceLevel]
			if !ok || !within(usd, minActivityPrice, maxActivityPrice) {
				continue
			}
			quotes = append(quotes, domain.PriceQuote{
				Amount:     usd,
				Currency:   "USD",
				Source:     placesService,
				StoreName:  r.Name,
				Confidence: domain.ConfidenceMedium,
				ObservedAt: observed,
			})
		}
		if len(quotes) == 0 {
			return resilience.Permanent(&domain.ErrNoResults{Source: placesService, Query: query})
		}
		return nil
	})
	if err != nil {
		c.logger.Debug("places: no activity price",
			zap.String("query", query),
			zap.Error(err),
		)
		return nil, classify(placesService, err)
	}
	return quotes, nil
}

package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/resilience"
)

const (
	serpAPISource         = "google_shopping"
	defaultSerpAPIBaseURL = "https://serpapi.com"
)

// SerpAPIShoppingClient queries Google Shopping through SerpAPI.
type SerpAPIShoppingClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	now        func() time.Time
}

func NewSerpAPIShoppingClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *SerpAPIShoppingClient {
	if baseURL == "" {
		baseURL = defaultSerpAPIBaseURL
	}
	return &SerpAPIShoppingClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		cb:         cb,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (c *SerpAPIShoppingClient) Name() string { return serpAPISource }

type serpShopping struct {
	Error           string `json:"error"`
	ShoppingResults []struct {
		Title          string  `json:"title"`
		Source         string  `json:"source"`
		ExtractedPrice float64 `json:"extracted_price"`
		Link           string  `json:"link"`
		ProductLink    string  `json:"product_link"`
	} `json:"shopping_results"`
}

func (c *SerpAPIShoppingClient) SearchProduct(ctx context.Context, q domain.ProductQuery) ([]domain.PriceQuote, error) {
	ctx, span := tracer.Start(ctx, "SerpAPIShoppingClient.SearchProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.name", q.Name))

	if c.apiKey == "" {
		return nil, &domain.ErrSourceUnavailable{Source: serpAPISource, Reason: "missing api key"}
	}

	text := productSearchText(q)
	params := url.Values{}
	params.Set("engine", "google_shopping")
	params.Set("q", text)
	params.Set("gl", "br")
	params.Set("hl", "pt-br")
	params.Set("api_key", c.apiKey)
	endpoint := c.baseURL + "/search.json?" + params.Encode()

	var quotes []domain.PriceQuote
	err := call(ctx, c.cb, c.cfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		var resp serpShopping
		if err := getJSON(c.httpClient, req, &resp); err != nil {
			return err
		}

		observed := c.now()
		quotes = quotes[:0]
		for _, r := range resp.ShoppingResults {
			if !within(r.ExtractedPrice, minProductPrice, maxProductPrice) {
				continue
			}
			link := r.Link
			if link == "" {
				link = r.ProductLink
			}
			quotes = append(quotes, domain.PriceQuote{
				Amount:     r.ExtractedPrice,
				Currency:   domain.CurrencyBRL,
				Source:     serpAPISource,
				StoreName:  r.Source,
				URL:        link,
				Confidence: domain.ConfidenceMedium,
				ObservedAt: observed,
			})
		}
		if len(quotes) == 0 {
			return resilience.Permanent(&domain.ErrNoResults{Source: serpAPISource, Query: text})
		}
		return nil
	})
	if err != nil {
		return nil, classify(serpAPISource, err)
	}
	return quotes, nil
}

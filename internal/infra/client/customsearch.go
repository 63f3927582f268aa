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
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/pricing"
)

const (
	customSearchSource         = "google_cse"
	defaultCustomSearchBaseURL = "https://www.googleapis.com"
)

// CustomSearchCatalogClient reads prices out of Google Custom Search results.
// Snippet prices are weak evidence, so every quote is low confidence.
type CustomSearchCatalogClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cx         string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	now        func() time.Time
}

func NewCustomSearchCatalogClient(httpClient *http.Client, baseURL, apiKey, cx string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *CustomSearchCatalogClient {
	if baseURL == "" {
		baseURL = defaultCustomSearchBaseURL
	}
	return &CustomSearchCatalogClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		cx:         cx,
		cb:         cb,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (c *CustomSearchCatalogClient) Name() string { return customSearchSource }

type cseOffer struct {
	Price         string `json:"price"`
	PriceCurrency string `json:"pricecurrency"`
}

type cseResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Snippet     string `json:"snippet"`
		DisplayLink string `json:"displayLink"`
		Pagemap     struct {
			Offer []cseOffer `json:"offer"`
		} `json:"pagemap"`
	} `json:"items"`
}

func (c *CustomSearchCatalogClient) SearchProduct(ctx context.Context, q domain.ProductQuery) ([]domain.PriceQuote, error) {
	ctx, span := tracer.Start(ctx, "CustomSearchCatalogClient.SearchProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.name", q.Name))

	if c.apiKey == "" || c.cx == "" {
		return nil, &domain.ErrSourceUnavailable{Source: customSearchSource, Reason: "missing api key or cx"}
	}

	text := productSearchText(q)
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.cx)
	params.Set("q", text+" preço")
	params.Set("gl", "br")
	params.Set("num", "10")
	endpoint := c.baseURL + "/customsearch/v1?" + params.Encode()

	var quotes []domain.PriceQuote
	err := call(ctx, c.cb, c.cfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		var resp cseResponse
		if err := getJSON(c.httpClient, req, &resp); err != nil {
			return err
		}

		observed := c.now()
		quotes = quotes[:0]
		for _, it := range resp.Items {
			amount, ok := snippetPrice(it.Pagemap.Offer, it.Snippet)
			if !ok || !within(amount, minProductPrice, maxProductPrice) {
				continue
			}
			quotes = append(quotes, domain.PriceQuote{
				Amount:     amount,
				Currency:   domain.CurrencyBRL,
				Source:     customSearchSource,
				StoreName:  it.DisplayLink,
				URL:        it.Link,
				Confidence: domain.ConfidenceLow,
				ObservedAt: observed,
			})
		}
		if len(quotes) == 0 {
			return resilience.Permanent(&domain.ErrNoResults{Source: customSearchSource, Query: text})
		}
		return nil
	})
	if err != nil {
		return nil, classify(customSearchSource, err)
	}
	return quotes, nil
}

// snippetPrice prefers structured offer data and falls back to the first
// "R$" amount in the snippet. Non-BRL prices are ignored.
func snippetPrice(offers []cseOffer, snippet string) (float64, bool) {
	for _, o := range offers {
		if o.PriceCurrency != "" && !strings.EqualFold(o.PriceCurrency, domain.CurrencyBRL) {
			continue
		}
		if v := pricing.ParsePrice(o.Price); v > 0 {
			return v, true
		}
	}

	idx := strings.Index(snippet, "R$")
	if idx < 0 {
		return 0, false
	}
	v := pricing.ParsePrice(snippet[idx+2:])
	return v, v > 0
}

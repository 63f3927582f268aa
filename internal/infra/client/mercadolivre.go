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

// MercadoLivreSource is the marketplace source name. Reconciliation treats it
// as authoritative.
const MercadoLivreSource = "mercadolivre"

// MercadoLivreClient searches the MLB marketplace. It implements port.ProductPriceSource.
type MercadoLivreClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *resilience.RateLimiter
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
	now        func() time.Time
}

// NewMercadoLivreClient creates a new MercadoLivreClient.
func NewMercadoLivreClient(httpClient *http.Client, baseURL string, limiter *resilience.RateLimiter, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *MercadoLivreClient {
	return &MercadoLivreClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    limiter,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func (c *MercadoLivreClient) Name() string { return MercadoLivreSource }

type mlSearch struct {
	Results []struct {
		Title      string  `json:"title"`
		Price      float64 `json:"price"`
		CurrencyID string  `json:"currency_id"`
		Permalink  string  `json:"permalink"`
		Condition  string  `json:"condition"`
	} `json:"results"`
}

func (c *MercadoLivreClient) SearchProduct(ctx context.Context, q domain.ProductQuery) ([]domain.PriceQuote, error) {
	ctx, span := tracer.Start(ctx, "MercadoLivreClient.SearchProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.name", q.Name))

	if c.baseURL == "" {
		return nil, &domain.ErrSourceUnavailable{Source: MercadoLivreSource, Reason: "missing base url"}
	}

	text := productSearchText(q)
	params := url.Values{}
	params.Set("q", text)
	params.Set("limit", "20")
	endpoint := c.baseURL + "/sites/MLB/search?" + params.Encode()

	var quotes []domain.PriceQuote
	err := callLimited(ctx, c.cb, c.cfg, c.limiter, func() error {
		// built before Acquire: a granted half-open trial must always be settled
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return resilience.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		if !c.limiter.Acquire(ctx) {
			return resilience.Permanent(&domain.ErrRateLimited{Source: MercadoLivreSource})
		}

		var resp mlSearch
		err = getJSON(c.httpClient, req, &resp)
		settle(c.limiter, err)
		if statusOf(err) == http.StatusTooManyRequests {
			return resilience.Permanent(&domain.ErrRateLimited{Source: MercadoLivreSource})
		}
		if err != nil {
			return err
		}

		observed := c.now()
		quotes = quotes[:0]
		for _, r := range resp.Results {
			if r.CurrencyID != "" && r.CurrencyID != domain.CurrencyBRL {
				continue
			}
			if !within(r.Price, minProductPrice, maxProductPrice) {
				continue
			}
			confidence := domain.ConfidenceMedium
			if r.Condition == "new" {
				confidence = domain.ConfidenceHigh
			}
			quotes = append(quotes, domain.PriceQuote{
				Amount:     r.Price,
				Currency:   domain.CurrencyBRL,
				Source:     MercadoLivreSource,
				StoreName:  "Mercado Livre",
				URL:        r.Permalink,
				Confidence: confidence,
				ObservedAt: observed,
			})
		}
		if len(quotes) == 0 {
			return resilience.Permanent(&domain.ErrNoResults{Source: MercadoLivreSource, Query: text})
		}
		return nil
	})
	if err != nil {
		return nil, classify(MercadoLivreSource, err)
	}
	return quotes, nil
}

func productSearchText(q domain.ProductQuery) string {
	return strings.TrimSpace(strings.TrimSpace(q.Name) + " " + strings.TrimSpace(q.Brand))
}

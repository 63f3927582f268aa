package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/resilience"
)

const exchangeService = "awesomeapi"

// ExchangeRateClient reads the latest quote from AwesomeAPI
// (GET /json/last/USD-BRL → {"USDBRL": {"bid": "5.43"}}).
// It implements port.ExchangeRateProvider.
type ExchangeRateClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

func NewExchangeRateClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *ExchangeRateClient {
	return &ExchangeRateClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         cb,
		cfg:        cfg,
	}
}

type awesomeQuote struct {
	Bid        string `json:"bid"`
	CreateDate string `json:"create_date"`
}

// Rate returns how many `to` one `from` buys.
func (c *ExchangeRateClient) Rate(ctx context.Context, from, to string) (float64, error) {
	ctx, span := tracer.Start(ctx, "ExchangeRateClient.Rate")
	defer span.End()

	from, to = strings.ToUpper(from), strings.ToUpper(to)
	span.SetAttributes(attribute.String("fx.pair", from+"-"+to))

	if c.baseURL == "" {
		return 0, &domain.ErrSourceUnavailable{Source: exchangeService, Reason: "missing base url"}
	}

	var rate float64
	err := call(ctx, c.cb, c.cfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/json/last/%s-%s", c.baseURL, from, to), nil)
		if err != nil {
			return err
		}

		var resp map[string]awesomeQuote
		if err := getJSON(c.httpClient, req, &resp); err != nil {
			return err
		}
		q, ok := resp[from+to]
		if !ok {
			return resilience.Permanent(&domain.ErrNoResults{Source: exchangeService, Query: from + "-" + to})
		}
		v, err := strconv.ParseFloat(q.Bid, 64)
		if err != nil || v <= 0 {
			return resilience.Permanent(fmt.Errorf("invalid bid %q for %s-%s", q.Bid, from, to))
		}
		rate = v
		return nil
	})
	if err != nil {
		return 0, classify(exchangeService, err)
	}
	return rate, nil
}

package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/resilience"
)

const (
	amadeusService   = "amadeus"
	maxHotelIDs      = 20
	tokenEarlyExpiry = 30 * time.Second
)

// errTokenRejected forces a token refresh on the next attempt.
var errTokenRejected = errors.New("amadeus: access token rejected")

// AmadeusClient quotes flights and hotels. It implements port.FlightSource
// and port.AccommodationSource.
type AmadeusClient struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	cb           *gobreaker.CircuitBreaker
	cfg          resilience.Config
	logger       *zap.Logger
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewAmadeusClient creates a new AmadeusClient.
func NewAmadeusClient(httpClient *http.Client, baseURL, clientID, clientSecret string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *AmadeusClient {
	return &AmadeusClient{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		cb:           cb,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Configured reports whether client credentials are present.
func (c *AmadeusClient) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// ============================================================
// OAuth2 client credentials
// ============================================================

type amadeusToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns the cached token, refreshing it when expired.
func (c *AmadeusClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok amadeusToken
	if err := getJSON(c.httpClient, req, &tok); err != nil {
		return "", fmt.Errorf("amadeus token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", resilience.Permanent(errors.New("amadeus token: empty access_token"))
	}

	c.token = tok.AccessToken
	c.expiresAt = c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenEarlyExpiry)
	return c.token, nil
}

func (c *AmadeusClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// get performs an authenticated GET. A 401 drops the cached token and is retried.
func (c *AmadeusClient) get(ctx context.Context, path string, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	err = getJSON(c.httpClient, req, out)
	if statusOf(err) == http.StatusUnauthorized {
		c.invalidateToken()
		return errTokenRejected
	}
	return err
}

// ============================================================
// Flights: GET /v2/shopping/flight-offers
// ============================================================

type amadeusFlightOffers struct {
	Data []struct {
		Price struct {
			GrandTotal string `json:"grandTotal"`
			Currency   string `json:"currency"`
		} `json:"price"`
		ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
		Itineraries            []struct {
			Segments []struct {
				CarrierCode string `json:"carrierCode"`
			} `json:"segments"`
		} `json:"itineraries"`
	} `json:"data"`
	Dictionaries struct {
		Carriers map[string]string `json:"carriers"`
	} `json:"dictionaries"`
}

// SearchFlights quotes a round trip and picks one offer according to the style.
func (c *AmadeusClient) SearchFlights(ctx context.Context, q domain.FlightQuery) (*domain.FlightOffer, error) {
	ctx, span := tracer.Start(ctx, "AmadeusClient.SearchFlights")
	defer span.End()
	span.SetAttributes(
		attribute.String("flight.origin", q.Origin),
		attribute.String("flight.destination", q.Destination),
	)

	if !c.Configured() {
		return nil, &domain.ErrSourceUnavailable{Source: amadeusService, Reason: "missing client credentials"}
	}
	adults := q.Adults
	if adults < 1 {
		adults = 1
	}

	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", q.DepartureDate)
	if q.ReturnDate != "" {
		params.Set("returnDate", q.ReturnDate)
	}
	params.Set("adults", strconv.Itoa(adults))
	params.Set("currencyCode", domain.CurrencyBRL)
	params.Set("max", "20")

	var offer *domain.FlightOffer
	err := call(ctx, c.cb, c.cfg, func() error {
		var resp amadeusFlightOffers
		if err := c.get(ctx, "/v2/shopping/flight-offers?"+params.Encode(), &resp); err != nil {
			return err
		}

		type candidate struct {
			perPerson float64
			total     float64
			currency  string
			airline   string
		}
		var cands []candidate
		for _, d := range resp.Data {
			if !isBRL(d.Price.Currency) {
				continue
			}
			total, err := strconv.ParseFloat(d.Price.GrandTotal, 64)
			if err != nil {
				continue
			}
			perPerson := total / float64(adults)
			if !within(perPerson, minFlightPerPerson, maxFlightPerPerson) {
				continue
			}
			code := ""
			if len(d.ValidatingAirlineCodes) > 0 {
				code = d.ValidatingAirlineCodes[0]
			} else if len(d.Itineraries) > 0 && len(d.Itineraries[0].Segments) > 0 {
				code = d.Itineraries[0].Segments[0].CarrierCode
			}
			cands = append(cands, candidate{perPerson: perPerson, total: total, currency: d.Price.Currency, airline: code})
		}
		if len(cands) == 0 {
			return resilience.Permanent(&domain.ErrNoResults{Source: amadeusService, Query: q.Origin + "-" + q.Destination})
		}

		picked := pickByStyle(cands, func(c candidate) float64 { return c.perPerson }, q.Style)
		name := resp.Dictionaries.Carriers[picked.airline]
		if name == "" {
			name = picked.airline
		}
		offer = &domain.FlightOffer{
			PricePerPerson: round2(picked.perPerson),
			TotalPrice:     round2(picked.total),
			Currency:       picked.currency,
			AirlineCode:    picked.airline,
			AirlineName:    name,
			QuotationDate:  today(c.now),
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("amadeus: flight search failed",
			zap.String("origin", q.Origin),
			zap.String("destination", q.Destination),
			zap.Error(err),
		)
		return nil, classify(amadeusService, err)
	}
	return offer, nil
}

// ============================================================
// Hotels: by-city list, then hotel-offers
// ============================================================

type amadeusHotelList struct {
	Data []struct {
		HotelID string `json:"hotelId"`
	} `json:"data"`
}

type amadeusHotelOffers struct {
	Data []struct {
		Available bool `json:"available"`
		Hotel     struct {
			Name string `json:"name"`
		} `json:"hotel"`
		Offers []struct {
			Price struct {
				Total    string `json:"total"`
				Currency string `json:"currency"`
			} `json:"price"`
		} `json:"offers"`
	} `json:"data"`
}

// SearchAccommodation lists hotels in the city and picks one offer according to the style.
func (c *AmadeusClient) SearchAccommodation(ctx context.Context, q domain.AccommodationQuery) (*domain.AccommodationOffer, error) {
	ctx, span := tracer.Start(ctx, "AmadeusClient.SearchAccommodation")
	defer span.End()
	span.SetAttributes(attribute.String("hotel.city_code", q.CityCode))

	if !c.Configured() {
		return nil, &domain.ErrSourceUnavailable{Source: amadeusService, Reason: "missing client credentials"}
	}
	nights := nightsBetween(q.CheckIn, q.CheckOut)
	adults := q.Adults
	if adults < 1 {
		adults = 1
	}

	var offer *domain.AccommodationOffer
	err := call(ctx, c.cb, c.cfg, func() error {
		var list amadeusHotelList
		if err := c.get(ctx, "/v1/reference-data/locations/hotels/by-city?cityCode="+url.QueryEscape(q.CityCode), &list); err != nil {
			return err
		}
		ids := make([]string, 0, maxHotelIDs)
		for _, h := range list.Data {
			if h.HotelID != "" {
				ids = append(ids, h.HotelID)
			}
			if len(ids) == maxHotelIDs {
				break
			}
		}
		if len(ids) == 0 {
			return resilience.Permanent(&domain.ErrNoResults{Source: amadeusService, Query: q.CityCode})
		}

		params := url.Values{}
		params.Set("hotelIds", strings.Join(ids, ","))
		params.Set("checkInDate", q.CheckIn)
		params.Set("checkOutDate", q.CheckOut)
		params.Set("adults", strconv.Itoa(adults))
		params.Set("currency", domain.CurrencyBRL)
		params.Set("bestRateOnly", "true")

		var offers amadeusHotelOffers
		if err := c.get(ctx, "/v3/shopping/hotel-offers?"+params.Encode(), &offers); err != nil {
			return err
		}

		type candidate struct {
			perDay   float64
			total    float64
			currency string
			name     string
		}
		var cands []candidate
		for _, d := range offers.Data {
			if !d.Available || len(d.Offers) == 0 {
				continue
			}
			if !isBRL(d.Offers[0].Price.Currency) {
				continue
			}
			total, err := strconv.ParseFloat(d.Offers[0].Price.Total, 64)
			if err != nil {
				continue
			}
			perDay := total / float64(nights)
			if !within(perDay, minHotelPerNight, maxHotelPerNight) {
				continue
			}
			cands = append(cands, candidate{perDay: perDay, total: total, currency: d.Offers[0].Price.Currency, name: d.Hotel.Name})
		}
		if len(cands) == 0 {
			return resilience.Permanent(&domain.ErrNoResults{Source: amadeusService, Query: q.CityCode})
		}

		picked := pickByStyle(cands, func(c candidate) float64 { return c.perDay }, q.Style)
		offer = &domain.AccommodationOffer{
			PricePerDay:   round2(picked.perDay),
			TotalPrice:    round2(picked.total),
			Currency:      picked.currency,
			HotelName:     picked.name,
			QuotationDate: today(c.now),
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("amadeus: hotel search failed",
			zap.String("city_code", q.CityCode),
			zap.Error(err),
		)
		return nil, classify(amadeusService, err)
	}
	return offer, nil
}

// pickByStyle: Econômica/Aventura take the cheapest, Luxo the most expensive,
// Conforto the median.
func pickByStyle[T any](items []T, price func(T) float64, style domain.TravelStyle) T {
	sorted := append([]T(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return price(sorted[i]) < price(sorted[j]) })

	switch style {
	case domain.StyleEconomica, domain.StyleAventura:
		return sorted[0]
	case domain.StyleLuxo:
		return sorted[len(sorted)-1]
	default:
		return sorted[len(sorted)/2]
	}
}

func nightsBetween(checkIn, checkOut string) int {
	in, err1 := time.Parse("2006-01-02", checkIn)
	out, err2 := time.Parse("2006-01-02", checkOut)
	if err1 != nil || err2 != nil {
		return 1
	}
	n := int(out.Sub(in).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// isBRL reports whether an offer is priced in reais. Hotels may ignore the
// requested currency and answer in the local one; those offers are skipped
// so the plausibility bounds only ever see BRL amounts.
func isBRL(currency string) bool {
	return currency == "" || strings.EqualFold(currency, domain.CurrencyBRL)
}

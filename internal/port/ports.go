// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
)

// FlightSource quotes round-trip flights.
type FlightSource interface {
	SearchFlights(ctx context.Context, q domain.FlightQuery) (*domain.FlightOffer, error)
}

// AccommodationSource quotes hotel stays.
type AccommodationSource interface {
	SearchAccommodation(ctx context.Context, q domain.AccommodationQuery) (*domain.AccommodationOffer, error)
}

// ActivityPriceSource returns raw price observations for a named activity.
type ActivityPriceSource interface {
	SearchActivity(ctx context.Context, name, location string) ([]domain.PriceQuote, error)
}

// ProductPriceSource is one product price source (marketplace, shopping, catalog).
type ProductPriceSource interface {
	Name() string
	SearchProduct(ctx context.Context, q domain.ProductQuery) ([]domain.PriceQuote, error)
}

// ExchangeRateProvider returns how many units of `to` one unit of `from` buys today.
type ExchangeRateProvider interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// Completion is the raw text returned by the text generator with token usage.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// TextGenerator is the chat-completion collaborator.
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (*Completion, error)
}

// PriceCache stores reconciled prices by normalized key. A miss returns nil, nil.
type PriceCache interface {
	GetPrice(ctx context.Context, key string) (*domain.CachedPrice, error)
	SetPrice(ctx context.Context, entry *domain.CachedPrice) error
}

// ItineraryStore persists generated itineraries as opaque documents.
type ItineraryStore interface {
	SaveItinerary(ctx context.Context, req *domain.ItineraryRequest, it *domain.Itinerary) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

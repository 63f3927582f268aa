package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Cache backends accepted by CACHE_BACKEND.
const (
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CacheSupabase = "supabase"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP client
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	// Resilience
	MaxRetries     int           `envconfig:"MAX_RETRIES" default:"2"`
	InitialBackoff time.Duration `envconfig:"INITIAL_BACKOFF" default:"1s"`
	MaxBackoff     time.Duration `envconfig:"MAX_BACKOFF" default:"4s"`
	MaxConcurrency int           `envconfig:"MAX_CONCURRENCY" default:"10"`

	// Marketplace / places rate limiting
	RateLimitMinInterval time.Duration `envconfig:"RATE_LIMIT_MIN_INTERVAL" default:"1.2s"`
	RateLimitPerMinute   int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"10"`
	RateLimitCooldown    time.Duration `envconfig:"RATE_LIMIT_COOLDOWN" default:"5m"`

	// Cache
	CacheBackend     string        `envconfig:"CACHE_BACKEND" default:"memory"`
	RedisURL         string        `envconfig:"REDIS_URL"`
	ProductCacheTTL  time.Duration `envconfig:"PRODUCT_CACHE_TTL" default:"12h"`
	ActivityCacheTTL time.Duration `envconfig:"ACTIVITY_CACHE_TTL" default:"720h"`

	// Supabase
	SupabaseURL        string `envconfig:"SUPABASE_URL"`
	SupabaseAnonKey    string `envconfig:"SUPABASE_ANON_KEY"`
	SupabaseServiceKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`

	// Amadeus (flights + hotels)
	AmadeusClientID     string `envconfig:"AMADEUS_CLIENT_ID"`
	AmadeusClientSecret string `envconfig:"AMADEUS_CLIENT_SECRET"`
	AmadeusBaseURL      string `envconfig:"AMADEUS_BASE_URL" default:"https://test.api.amadeus.com"`

	// Google Places (activities). Empty base URLs select the public endpoints.
	PlacesAPIKey  string `envconfig:"GOOGLE_PLACES_API_KEY"`
	PlacesBaseURL string `envconfig:"GOOGLE_PLACES_BASE_URL"`

	// Product price sources
	CSEAPIKey           string `envconfig:"GOOGLE_CSE_API_KEY"`
	CSECX               string `envconfig:"GOOGLE_CSE_CX"`
	CSEBaseURL          string `envconfig:"GOOGLE_CSE_BASE_URL"`
	SerpAPIKey          string `envconfig:"SERPAPI_KEY"`
	SerpAPIBaseURL      string `envconfig:"SERPAPI_BASE_URL"`
	MercadoLivreBaseURL string `envconfig:"MERCADOLIVRE_BASE_URL" default:"https://api.mercadolibre.com"`

	// Exchange rates
	ExchangeRateBaseURL string `envconfig:"EXCHANGE_RATE_BASE_URL" default:"https://economia.awesomeapi.com.br"`

	// LLM
	OpenAIAPIKey    string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel     string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL   string        `envconfig:"OPENAI_BASE_URL"`
	EnrichmentPause time.Duration `envconfig:"ENRICHMENT_PAUSE" default:"200ms"`

	// Observability
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`

	// Travel defaults
	DefaultOrigin string `envconfig:"DEFAULT_ORIGIN" default:"GRU"`
}

// LoadDotEnv reads a .env file for local development.
// Existing env vars take precedence; a missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			return errors.New("config: CACHE_BACKEND=redis requires REDIS_URL")
		}
	case CacheSupabase:
		if c.SupabaseURL == "" {
			return errors.New("config: CACHE_BACKEND=supabase requires SUPABASE_URL")
		}
	default:
		return fmt.Errorf("config: unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.MaxRetries < 0 {
		return errors.New("config: MAX_RETRIES must be >= 0")
	}
	return nil
}

// SupabaseEnabled reports whether Supabase credentials were provided.
func (c *Config) SupabaseEnabled() bool {
	return c.SupabaseURL != "" && (c.SupabaseAnonKey != "" || c.SupabaseServiceKey != "")
}

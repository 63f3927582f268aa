package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/config"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/estimate"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/handler"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/client"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/observability"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/resilience"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/supabase"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/port"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Bool("supabase", cfg.SupabaseEnabled()),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("product_cache_ttl", cfg.ProductCacheTTL),
		zap.Duration("activity_cache_ttl", cfg.ActivityCacheTTL),
		zap.String("default_origin", cfg.DefaultOrigin),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "travel-pricing-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	limiterCfg := resilience.LimiterConfig{
		MinInterval: cfg.RateLimitMinInterval,
		PerMinute:   cfg.RateLimitPerMinute,
		Cooldown:    cfg.RateLimitCooldown,
		BackoffBase: cfg.InitialBackoff,
		BackoffMax:  cfg.MaxBackoff,
		RetryBudget: cfg.MaxBackoff,
	}
	denyHook := resilience.WithDenyHook(metrics.IncrRateLimitDenial)
	marketplaceLimiter := resilience.NewRateLimiter(client.MercadoLivreSource, limiterCfg, denyHook)
	placesLimiter := resilience.NewRateLimiter("google_places", limiterCfg, denyHook)

	amadeusCB := resilience.NewCircuitBreaker("amadeus")
	placesCB := resilience.NewCircuitBreaker("google_places")
	marketplaceCB := resilience.NewCircuitBreaker(client.MercadoLivreSource)
	serpCB := resilience.NewCircuitBreaker("google_shopping")
	cseCB := resilience.NewCircuitBreaker("google_cse")
	exchangeCB := resilience.NewCircuitBreaker("exchange_rate")
	llmCB := resilience.NewCircuitBreaker("openai")
	supabaseCB := resilience.NewCircuitBreaker("supabase")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	// The LLM call is the slowest hop; it gets its own budget.
	llmHTTPClient := &http.Client{Timeout: 6 * cfg.HTTPTimeout}

	amadeus := client.NewAmadeusClient(httpClient, cfg.AmadeusBaseURL, cfg.AmadeusClientID, cfg.AmadeusClientSecret, amadeusCB, resilienceCfg, logger)
	places := client.NewPlacesClient(httpClient, cfg.PlacesBaseURL, cfg.PlacesAPIKey, placesLimiter, placesCB, resilienceCfg, logger)
	mercadoLivre := client.NewMercadoLivreClient(httpClient, cfg.MercadoLivreBaseURL, marketplaceLimiter, marketplaceCB, resilienceCfg, logger)
	serp := client.NewSerpAPIShoppingClient(httpClient, cfg.SerpAPIBaseURL, cfg.SerpAPIKey, serpCB, resilienceCfg)
	cse := client.NewCustomSearchCatalogClient(httpClient, cfg.CSEBaseURL, cfg.CSEAPIKey, cfg.CSECX, cseCB, resilienceCfg)
	exchange := client.NewExchangeRateClient(httpClient, cfg.ExchangeRateBaseURL, exchangeCB, resilienceCfg)
	llm := client.NewOpenAIClient(llmHTTPClient, cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel,
		resilience.NewBulkhead(cfg.MaxConcurrency), llmCB, resilienceCfg, logger)

	if !amadeus.Configured() {
		logger.Warn("amadeus: credentials missing, flights and hotels will be estimated")
	}
	if !places.Configured() {
		logger.Warn("google places: api key missing, activity prices will be estimated")
	}
	if !llm.Configured() {
		logger.Warn("openai: api key missing, itineraries will use the fallback template")
	}

	// --- Supabase ---
	var supabaseClient *supabase.Client
	if cfg.SupabaseEnabled() {
		logger.Info("using Supabase for persistence", zap.String("supabase_url", cfg.SupabaseURL))
		supabaseClient = supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			supabaseCB,
			resilienceCfg,
			logger,
		)
	} else {
		logger.Warn("supabase not configured, itineraries will not be persisted")
	}

	// --- Cache ---
	productCache, activityCache := priceCaches(cfg, supabaseClient, logger)

	// --- Services ---
	converter := service.NewCurrencyConverter(exchange, metrics, logger)
	costs := service.NewTravelCostService(amadeus, amadeus, estimate.New(estimate.NewRandomNames()), metrics, logger)

	activitySvc := service.NewActivityPriceService(places, activityCache, converter, metrics, logger)
	productSvc := service.NewProductPriceService(
		[]port.ProductPriceSource{mercadoLivre, serp, cse},
		productCache,
		[]string{client.MercadoLivreSource},
		metrics,
		logger,
	)
	destinationSvc := service.NewDestinationService(costs, estimate.New(estimate.NewRandomNames()), cfg.DefaultOrigin, metrics, logger)

	var store port.ItineraryStore
	if supabaseClient != nil {
		store = supabase.NewItineraryStore(supabaseClient)
	}
	itinerarySvc := service.NewItineraryService(
		llm,
		costs,
		activitySvc,
		converter,
		store,
		service.ItineraryOptions{
			DefaultOrigin:   cfg.DefaultOrigin,
			EnrichmentPause: cfg.EnrichmentPause,
		},
		metrics,
		logger,
	)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Itinerary:   itinerarySvc,
		Destination: destinationSvc,
		Products:    productSvc,
		Activities:  activitySvc,
		Currency:    converter,
		Providers: []handler.Provider{
			{Name: "amadeus", Configured: amadeus.Configured(), State: breakerState(amadeusCB.State)},
			{Name: "google_places", Configured: places.Configured(), State: placesLimiter.State},
			{Name: client.MercadoLivreSource, Configured: true, State: marketplaceLimiter.State},
			{Name: "google_shopping", Configured: cfg.SerpAPIKey != "", State: breakerState(serpCB.State)},
			{Name: "google_cse", Configured: cfg.CSEAPIKey != "" && cfg.CSECX != "", State: breakerState(cseCB.State)},
			{Name: "exchange_rate", Configured: cfg.ExchangeRateBaseURL != "", State: breakerState(exchangeCB.State)},
			{Name: "openai", Configured: llm.Configured(), State: breakerState(llmCB.State)},
			{Name: "supabase", Configured: supabaseClient != nil, State: breakerState(supabaseCB.State)},
		},
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

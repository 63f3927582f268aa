package main

import (
	"context"
	"time"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/config"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/cache"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/supabase"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/port"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// priceCaches builds the product and activity caches for CACHE_BACKEND.
// Any backend that cannot be reached falls back to memory.
func priceCaches(cfg *config.Config, sb *supabase.Client, logger *zap.Logger) (product, activity port.PriceCache) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory price cache", zap.Error(err))
			break
		}
		logger.Info("using redis price cache")
		return cache.NewRedisPriceCache(rdb, "prices:product", cfg.ProductCacheTTL, logger),
			cache.NewRedisPriceCache(rdb, "prices:activity", cfg.ActivityCacheTTL, logger)

	case config.CacheSupabase:
		if sb == nil {
			logger.Warn("supabase credentials missing, using in-memory price cache")
			break
		}
		logger.Info("using supabase price cache")
		return supabase.NewPriceCacheStore(sb, supabase.ProductPricesTable, cfg.ProductCacheTTL),
			supabase.NewPriceCacheStore(sb, supabase.ActivityPricesTable, cfg.ActivityCacheTTL)
	}

	return cache.NewMemoryPriceCache(cfg.ProductCacheTTL), cache.NewMemoryPriceCache(cfg.ActivityCacheTTL)
}

func breakerState(state func() gobreaker.State) func() string {
	return func() string { return state().String() }
}

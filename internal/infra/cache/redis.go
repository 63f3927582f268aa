package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
)

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// RedisPriceCache stores CachedPrice entries as JSON under "<prefix>:<key>".
type RedisPriceCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisPriceCache creates a price cache namespace, e.g. prefix "product_prices".
func NewRedisPriceCache(client redis.Cmdable, prefix string, ttl time.Duration, logger *zap.Logger) *RedisPriceCache {
	return &RedisPriceCache{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (r *RedisPriceCache) key(k string) string {
	return r.prefix + ":" + k
}

// GetPrice returns nil, nil on a miss. Undecodable entries are dropped and
// treated as misses.
func (r *RedisPriceCache) GetPrice(ctx context.Context, key string) (*domain.CachedPrice, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key(key), err)
	}

	var cp domain.CachedPrice
	if err := json.Unmarshal(raw, &cp); err != nil {
		r.logger.Warn("redis: dropping undecodable price entry",
			zap.String("key", r.key(key)),
			zap.Error(err),
		)
		_ = r.client.Del(ctx, r.key(key)).Err()
		return nil, nil
	}
	return &cp, nil
}

func (r *RedisPriceCache) SetPrice(ctx context.Context, entry *domain.CachedPrice) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode price entry: %w", err)
	}
	if err := r.client.Set(ctx, r.key(entry.CacheKey), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key(entry.CacheKey), err)
	}
	return nil
}

package cache

import (
	"context"
	"time"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
)

// MemoryPriceCache implements port.PriceCache on top of InMemory.
type MemoryPriceCache struct {
	items *InMemory[domain.CachedPrice]
}

// NewMemoryPriceCache creates a price cache whose entries live for ttl.
func NewMemoryPriceCache(ttl time.Duration) *MemoryPriceCache {
	return &MemoryPriceCache{items: New[domain.CachedPrice](ttl)}
}

func (m *MemoryPriceCache) GetPrice(_ context.Context, key string) (*domain.CachedPrice, error) {
	v, ok := m.items.Get(key)
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *MemoryPriceCache) SetPrice(_ context.Context, entry *domain.CachedPrice) error {
	m.items.Set(entry.CacheKey, *entry)
	return nil
}

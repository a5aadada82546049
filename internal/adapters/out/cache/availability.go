package cache

import (
	"context"
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

type availabilityCache struct {
	mu    sync.RWMutex
	cache *expirable.LRU[out.AvailabilityCacheKey, []domain.AvailabilitySlot]
}

// Кэширование доступности врача на дату

func (c *CacheAdapter) GetAvailability(ctx context.Context, key out.AvailabilityCacheKey) ([]domain.AvailabilitySlot, bool) {
	c.availabilityCache.mu.RLock()
	defer c.availabilityCache.mu.RUnlock()

	slots, exists := c.availabilityCache.cache.Get(key)
	if !exists {
		c.logger.Debug("cache.availability.get.miss", out.LogFields{
			"providerId": key.ProviderID,
			"date":       key.Date,
		})
		return nil, false
	}

	return slots, true
}

func (c *CacheAdapter) StoreAvailability(ctx context.Context, key out.AvailabilityCacheKey, slots []domain.AvailabilitySlot) {
	c.availabilityCache.mu.Lock()
	defer c.availabilityCache.mu.Unlock()

	c.logger.Debug("cache.availability.store", out.LogFields{
		"providerId": key.ProviderID,
		"date":       key.Date,
		"slotsCount": len(slots),
	})

	// Храним собственную копию, чтобы вызывающий не мог изменить кэш
	stored := make([]domain.AvailabilitySlot, len(slots))
	copy(stored, slots)

	c.availabilityCache.cache.Add(key, stored)
}

func (c *CacheAdapter) InvalidateProviderAvailability(ctx context.Context, providerID string) {
	c.availabilityCache.mu.Lock()
	defer c.availabilityCache.mu.Unlock()

	removed := 0
	for _, key := range c.availabilityCache.cache.Keys() {
		if key.ProviderID == providerID {
			c.availabilityCache.cache.Remove(key)
			removed++
		}
	}

	c.logger.Debug("cache.availability.invalidate", out.LogFields{
		"providerId": providerID,
		"removed":    removed,
	})
}

func (c *CacheAdapter) InvalidateAllAvailability(ctx context.Context) {
	c.availabilityCache.mu.Lock()
	defer c.availabilityCache.mu.Unlock()

	c.availabilityCache.cache.Purge()
}

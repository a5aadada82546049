package cache

import (
	"context"
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

type scheduleConfigCache struct {
	mu    sync.RWMutex
	cache *expirable.LRU[string, domain.ScheduleConfig]
}

// Кэширование настроек расписания

func (c *CacheAdapter) GetScheduleConfig(ctx context.Context, providerID string) (*domain.ScheduleConfig, bool) {
	c.scheduleConfigCache.mu.RLock()
	defer c.scheduleConfigCache.mu.RUnlock()

	entry, exists := c.scheduleConfigCache.cache.Get(providerID)
	if !exists {
		c.logger.Debug("cache.schedule_config.get.miss", out.LogFields{
			"providerId": providerID,
		})
		return nil, false
	}

	return &entry, true
}

func (c *CacheAdapter) StoreScheduleConfig(ctx context.Context, scheduleConfig domain.ScheduleConfig) {
	c.scheduleConfigCache.mu.Lock()
	defer c.scheduleConfigCache.mu.Unlock()

	c.scheduleConfigCache.cache.Add(scheduleConfig.ProviderID, scheduleConfig)
}

func (c *CacheAdapter) InvalidateScheduleConfig(ctx context.Context, providerID string) {
	c.scheduleConfigCache.mu.Lock()
	defer c.scheduleConfigCache.mu.Unlock()

	c.scheduleConfigCache.cache.Remove(providerID)
}

func (c *CacheAdapter) InvalidateAllScheduleConfig(ctx context.Context) {
	c.scheduleConfigCache.mu.Lock()
	defer c.scheduleConfigCache.mu.Unlock()

	c.scheduleConfigCache.cache.Purge()
}

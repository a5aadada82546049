package cache

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

type CacheAdapter struct {
	availabilityCache   *availabilityCache
	scheduleConfigCache *scheduleConfigCache
	logger              out.LoggerPort
}

// NewCacheAdapter must only be called when the cache is enabled.
func NewCacheAdapter(cfg *config.Config, logger out.LoggerPort) (*CacheAdapter, error) {
	if cfg.Cache.AvailabilitySize <= 0 || cfg.Cache.ScheduleSize <= 0 {
		logger.Error("cache.init.failed", out.LogFields{
			"availabilitySize": cfg.Cache.AvailabilitySize,
			"scheduleSize":     cfg.Cache.ScheduleSize,
		})
		return nil, fmt.Errorf("cache.init: sizes must be positive")
	}

	availability := &availabilityCache{
		cache: expirable.NewLRU[out.AvailabilityCacheKey, []domain.AvailabilitySlot](
			cfg.Cache.AvailabilitySize, nil, cfg.Cache.AvailabilityTTL,
		),
	}

	scheduleConfig := &scheduleConfigCache{
		cache: expirable.NewLRU[string, domain.ScheduleConfig](
			cfg.Cache.ScheduleSize, nil, cfg.Cache.ScheduleTTL,
		),
	}

	return &CacheAdapter{
		availabilityCache:   availability,
		scheduleConfigCache: scheduleConfig,
		logger:              logger.WithModule("CacheAdapter"),
	}, nil
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/logger"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

func newTestCache(t *testing.T) *CacheAdapter {
	t.Helper()

	cfg := &config.Config{}
	cfg.Cache.Enabled = true
	cfg.Cache.AvailabilitySize = 16
	cfg.Cache.AvailabilityTTL = time.Minute
	cfg.Cache.ScheduleSize = 16
	cfg.Cache.ScheduleTTL = time.Minute

	c, err := NewCacheAdapter(cfg, logger.NewZerologLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	return c
}

func TestAvailabilityInvalidateProvider(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	slots := []domain.AvailabilitySlot{{Time: json_types.NewTimeOfDay(8, 0), Available: true}}
	keys := []out.AvailabilityCacheKey{
		{ProviderID: "p-1", Date: "2024-01-15"},
		{ProviderID: "p-1", Date: "2024-01-16"},
		{ProviderID: "p-2", Date: "2024-01-15"},
	}
	for _, key := range keys {
		c.StoreAvailability(ctx, key, slots)
	}

	c.InvalidateProviderAvailability(ctx, "p-1")

	for _, key := range keys[:2] {
		if _, ok := c.GetAvailability(ctx, key); ok {
			t.Errorf("%+v should be invalidated", key)
		}
	}
	if _, ok := c.GetAvailability(ctx, keys[2]); !ok {
		t.Errorf("%+v should survive", keys[2])
	}

	c.InvalidateAllAvailability(ctx)
	if _, ok := c.GetAvailability(ctx, keys[2]); ok {
		t.Errorf("cache should be empty after purge")
	}
}

func TestAvailabilityStoresCopy(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	key := out.AvailabilityCacheKey{ProviderID: "p-1", Date: "2024-01-15"}

	slots := []domain.AvailabilitySlot{{Time: json_types.NewTimeOfDay(8, 0), Available: true}}
	c.StoreAvailability(ctx, key, slots)
	slots[0].Available = false

	cached, ok := c.GetAvailability(ctx, key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !cached[0].Available {
		t.Fatal("caller mutation leaked into the cache")
	}
}

func TestScheduleConfigCache(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.StoreScheduleConfig(ctx, domain.ScheduleConfig{ProviderID: "p-1", AppointmentDurationMinutes: 30})

	got, ok := c.GetScheduleConfig(ctx, "p-1")
	if !ok || got.AppointmentDurationMinutes != 30 {
		t.Fatalf("unexpected cache entry %+v (hit=%v)", got, ok)
	}

	c.InvalidateScheduleConfig(ctx, "p-1")
	if _, ok := c.GetScheduleConfig(ctx, "p-1"); ok {
		t.Fatal("expected miss after invalidation")
	}
}

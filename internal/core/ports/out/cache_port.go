package out

import (
	"context"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

type AvailabilityCacheKey struct {
	ProviderID string
	Date       string // 2006-01-02
}

type CachePort interface {
	// Кэширование вычисленной доступности (без учета временных резервов)
	GetAvailability(ctx context.Context, key AvailabilityCacheKey) ([]domain.AvailabilitySlot, bool)
	StoreAvailability(ctx context.Context, key AvailabilityCacheKey, slots []domain.AvailabilitySlot)
	InvalidateProviderAvailability(ctx context.Context, providerID string)
	InvalidateAllAvailability(ctx context.Context)

	// Кэширование настроек расписания
	GetScheduleConfig(ctx context.Context, providerID string) (*domain.ScheduleConfig, bool)
	StoreScheduleConfig(ctx context.Context, config domain.ScheduleConfig)
	InvalidateScheduleConfig(ctx context.Context, providerID string)
	InvalidateAllScheduleConfig(ctx context.Context)
}

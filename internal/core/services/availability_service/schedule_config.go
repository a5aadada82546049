package availability_service

import (
	"context"
	"fmt"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

func (s *AvailabilityService) scheduleConfig(ctx context.Context, trace *domain.DebugTrace, providerID string) (*domain.ScheduleConfig, error) {
	// Проверяем, инициализирован ли cachePort
	if s.cachePort != nil {
		if scheduleConfig, exists := s.cachePort.GetScheduleConfig(ctx, providerID); exists {
			return scheduleConfig, nil
		}
	}

	s.logger.Debug("availability.schedule_config.cache.miss", out.LogFields{
		"providerId": providerID,
	})

	fetchDebug := domain.StartDebugInfo("availability.schedule_config.fetch")
	scheduleConfig, err := s.schedulePort.GetScheduleConfig(ctx, providerID)
	if err != nil {
		s.logger.Warn("availability.schedule_config.fetch_failed", out.LogFields{
			"providerId": providerID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("availability.schedule_config.fetch_failed: %w", err)
	}
	fetchDebug.Elapse()
	trace.Add(fetchDebug)

	scheduleConfig.ProviderID = providerID
	// Врач без настроенных часов работает по расписанию по умолчанию
	if len(scheduleConfig.WeeklyHours) == 0 {
		scheduleConfig.WeeklyHours = domain.DefaultWeeklyHours()
	}

	if err := scheduleConfig.Validate(); err != nil {
		s.logger.Warn("availability.schedule_config.invalid", out.LogFields{
			"providerId": providerID,
			"error":      err.Error(),
		})
		return nil, err
	}

	if s.cachePort != nil {
		s.cachePort.StoreScheduleConfig(ctx, *scheduleConfig)
	}

	return scheduleConfig, nil
}

func (s *AvailabilityService) InvalidateProvider(ctx context.Context, providerID string) error {
	if s.cachePort == nil {
		return nil
	}
	s.cachePort.InvalidateProviderAvailability(ctx, providerID)
	return nil
}

func (s *AvailabilityService) InvalidateScheduleConfig(ctx context.Context, providerID string) error {
	if s.cachePort == nil {
		return nil
	}
	s.cachePort.InvalidateScheduleConfig(ctx, providerID)
	s.cachePort.InvalidateProviderAvailability(ctx, providerID)
	return nil
}

func (s *AvailabilityService) InvalidateAll(ctx context.Context) error {
	if s.cachePort == nil {
		return nil
	}
	s.cachePort.InvalidateAllScheduleConfig(ctx)
	s.cachePort.InvalidateAllAvailability(ctx)
	return nil
}

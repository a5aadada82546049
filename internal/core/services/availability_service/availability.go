package availability_service

import (
	"context"
	"fmt"
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
	"github.com/suchimauz/appointment-availability-engine/internal/utils"
)

func (s *AvailabilityService) GetAvailability(scheduleConfig domain.ScheduleConfig, date time.Time, existing []domain.ExistingAppointment) ([]domain.AvailabilitySlot, error) {
	return computeAvailability(scheduleConfig, date, existing)
}

func computeAvailability(scheduleConfig domain.ScheduleConfig, date time.Time, existing []domain.ExistingAppointment) ([]domain.AvailabilitySlot, error) {
	candidates, err := generateSlots(scheduleConfig, date)
	if err != nil {
		return nil, err
	}

	sameDay := appointmentsOnDay(date, existing)
	slots := make([]domain.AvailabilitySlot, 0, len(candidates))
	for _, candidate := range candidates {
		slots = append(slots, domain.AvailabilitySlot{
			Time:      candidate.StartTime,
			Available: !hasConflict(candidate.StartTime.Minutes(), scheduleConfig.AppointmentDurationMinutes, sameDay),
		})
	}

	return slots, nil
}

func (s *AvailabilityService) ProviderAvailability(ctx context.Context, providerID string, date time.Time, sessionID string) ([]domain.AvailabilitySlot, []domain.DebugInfo, error) {
	trace := &domain.DebugTrace{}
	dayStart, dayEnd := utils.DayBounds(date.In(config.TimeZone))

	s.logger.Debug("availability.provider.started", out.LogFields{
		"providerId": providerID,
		"date":       dayStart.Format("2006-01-02"),
	})

	scheduleConfig, err := s.scheduleConfig(ctx, trace, providerID)
	if err != nil {
		return nil, nil, err
	}

	slots, err := s.dayAvailability(ctx, trace, *scheduleConfig, dayStart, dayEnd)
	if err != nil {
		return nil, nil, err
	}

	slots, err = s.overlayHolds(ctx, trace, *scheduleConfig, dayStart, dayEnd, sessionID, slots)
	if err != nil {
		return nil, nil, err
	}

	return slots, trace.Items(), nil
}

// dayAvailability считает доступность по записям без учета временных резервов
func (s *AvailabilityService) dayAvailability(ctx context.Context, trace *domain.DebugTrace, scheduleConfig domain.ScheduleConfig, dayStart, dayEnd time.Time) ([]domain.AvailabilitySlot, error) {
	key := out.AvailabilityCacheKey{
		ProviderID: scheduleConfig.ProviderID,
		Date:       dayStart.Format("2006-01-02"),
	}

	if s.cachePort != nil {
		if slots, exists := s.cachePort.GetAvailability(ctx, key); exists {
			s.logger.Debug("availability.cache.hit", out.LogFields{
				"providerId": key.ProviderID,
				"date":       key.Date,
				"slotsCount": len(slots),
			})
			return slots, nil
		}
		s.logger.Debug("availability.cache.miss", out.LogFields{
			"providerId": key.ProviderID,
			"date":       key.Date,
		})
	}

	fetchDebug := domain.StartDebugInfo("availability.appointments.fetch")
	appointments, err := s.schedulePort.GetAppointments(ctx, scheduleConfig.ProviderID, dayStart, dayEnd)
	if err != nil {
		s.logger.Error("availability.appointments.fetch_failed", out.LogFields{
			"providerId": scheduleConfig.ProviderID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("availability.appointments.fetch_failed: %w", err)
	}
	fetchDebug.Elapse()
	fetchDebug.AddOption("count", fmt.Sprint(len(appointments)))
	trace.Add(fetchDebug)

	computeDebug := domain.StartDebugInfo("availability.compute")
	slots, err := computeAvailability(scheduleConfig, dayStart, appointments)
	if err != nil {
		return nil, err
	}
	computeDebug.Elapse()
	trace.Add(computeDebug)

	if s.cachePort != nil {
		s.cachePort.StoreAvailability(ctx, key, slots)
	}

	return slots, nil
}

// overlayHolds закрывает слоты, пересекающиеся с активными резервами других сессий
func (s *AvailabilityService) overlayHolds(ctx context.Context, trace *domain.DebugTrace, scheduleConfig domain.ScheduleConfig, dayStart, dayEnd time.Time, sessionID string, slots []domain.AvailabilitySlot) ([]domain.AvailabilitySlot, error) {
	// Слайс может принадлежать кэшу, поэтому всегда работаем с копией
	result := make([]domain.AvailabilitySlot, len(slots))
	copy(result, slots)

	if s.reservations == nil {
		return result, nil
	}

	holdsDebug := domain.StartDebugInfo("availability.holds.overlay")
	holds, err := s.reservations.ActiveForProvider(ctx, scheduleConfig.ProviderID, dayStart, dayEnd, s.clock.Now())
	if err != nil {
		s.logger.Error("availability.holds.fetch_failed", out.LogFields{
			"providerId": scheduleConfig.ProviderID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("availability.holds.fetch_failed: %w", err)
	}

	foreign := make([]domain.ExistingAppointment, 0, len(holds))
	for _, hold := range holds {
		if hold.OwnedBy(sessionID) {
			continue
		}
		foreign = append(foreign, domain.ExistingAppointment{
			ID:              hold.ID.String(),
			StartDateTime:   json_types.DateTime{Date: hold.SlotStart},
			DurationMinutes: scheduleConfig.AppointmentDurationMinutes,
		})
	}
	foreign = appointmentsOnDay(dayStart, foreign)

	if len(foreign) > 0 {
		for i := range result {
			if result[i].Available && hasConflict(result[i].Time.Minutes(), scheduleConfig.AppointmentDurationMinutes, foreign) {
				result[i].Available = false
			}
		}
	}

	holdsDebug.Elapse()
	holdsDebug.AddOption("holds", fmt.Sprint(len(foreign)))
	trace.Add(holdsDebug)

	return result, nil
}

func (s *AvailabilityService) IsSlotTaken(ctx context.Context, providerID string, slotStart time.Time) (bool, error) {
	scheduleConfig, err := s.scheduleConfig(ctx, nil, providerID)
	if err != nil {
		return false, err
	}

	local := slotStart.In(config.TimeZone)
	dayStart, dayEnd := utils.DayBounds(local)

	appointments, err := s.schedulePort.GetAppointments(ctx, providerID, dayStart, dayEnd)
	if err != nil {
		return false, fmt.Errorf("availability.appointments.fetch_failed: %w", err)
	}

	return hasConflict(minutesOfDay(local), scheduleConfig.AppointmentDurationMinutes, appointmentsOnDay(dayStart, appointments)), nil
}

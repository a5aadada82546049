package availability_service

import (
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

func (s *AvailabilityService) GenerateSlots(config domain.ScheduleConfig, date time.Time) ([]domain.CandidateSlot, error) {
	return generateSlots(config, date)
}

func generateSlots(config domain.ScheduleConfig, date time.Time) ([]domain.CandidateSlot, error) {
	// Некорректная конфигурация не должна выглядеть как выходной день
	if err := config.Validate(); err != nil {
		return nil, err
	}

	blocks := config.WeeklyHours[domain.DayOfWeekOf(date)]
	slots := make([]domain.CandidateSlot, 0)
	openBlocks := 0

	for _, block := range blocks {
		if !block.IsOpen {
			continue
		}
		openBlocks++
		slots = append(slots, generateBlockSlots(block, config.AppointmentDurationMinutes, config.Step())...)
	}

	// Несколько смен в день могут пересекаться, поэтому сортируем и убираем дубли
	if openBlocks > 1 {
		slots = CandidateSlice(slots).quickSort().dedupe()
	}

	return slots, nil
}

// Шаг сетки не сдвигается обедом: слоты, пересекающие обед, просто пропускаются
func generateBlockSlots(block domain.DaySchedule, duration, step int) []domain.CandidateSlot {
	slots := make([]domain.CandidateSlot, 0)
	length := json_types.TimeOfDay(duration)

	for start := block.OpensAt; start+length <= block.ClosesAt; start += json_types.TimeOfDay(step) {
		if block.OverlapsLunch(start, start+length) {
			continue
		}
		slots = append(slots, domain.CandidateSlot{StartTime: start})
	}

	return slots
}

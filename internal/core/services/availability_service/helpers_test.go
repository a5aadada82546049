package availability_service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/logger"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

// 2024-01-15 is a Monday.
var monday = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func tod(hours, minutes int) json_types.TimeOfDay {
	return json_types.NewTimeOfDay(hours, minutes)
}

func openBlock(opens, closes json_types.TimeOfDay) domain.DaySchedule {
	return domain.DaySchedule{OpensAt: opens, ClosesAt: closes, IsOpen: true}
}

func withLunch(block domain.DaySchedule, start, end json_types.TimeOfDay) domain.DaySchedule {
	block.LunchStart = &start
	block.LunchEnd = &end
	return block
}

func mondayConfig(duration, buffer int, blocks ...domain.DaySchedule) domain.ScheduleConfig {
	return domain.ScheduleConfig{
		ProviderID:                 "p-1",
		AppointmentDurationMinutes: duration,
		BufferMinutes:              buffer,
		WeeklyHours: map[domain.DayOfWeek]domain.DayBlocks{
			domain.DayOfWeekMon: blocks,
		},
	}
}

func appointmentAt(t time.Time, duration int) domain.ExistingAppointment {
	return domain.ExistingAppointment{
		StartDateTime:   json_types.DateTime{Date: t},
		DurationMinutes: duration,
		Status:          domain.AppointmentStatusScheduled,
	}
}

func startTimes(slots []domain.CandidateSlot) []string {
	result := make([]string, 0, len(slots))
	for _, slot := range slots {
		result = append(result, slot.StartTime.String())
	}
	return result
}

func availabilityOf(slots []domain.AvailabilitySlot) map[string]bool {
	result := make(map[string]bool, len(slots))
	for _, slot := range slots {
		result[slot.Time.String()] = slot.Available
	}
	return result
}

var nopLogger = logger.NewZerologLogger(zerolog.Nop())

type fakeSchedulePort struct {
	mu                sync.Mutex
	configs           map[string]domain.ScheduleConfig
	appointments      map[string][]domain.ExistingAppointment
	appointmentsCalls int
	configCalls       int
}

func newFakeSchedulePort() *fakeSchedulePort {
	return &fakeSchedulePort{
		configs:      make(map[string]domain.ScheduleConfig),
		appointments: make(map[string][]domain.ExistingAppointment),
	}
}

func (f *fakeSchedulePort) GetScheduleConfig(ctx context.Context, providerID string) (*domain.ScheduleConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.configCalls++
	cfg, ok := f.configs[providerID]
	if !ok {
		return nil, domain.ErrScheduleNotFound
	}
	return &cfg, nil
}

func (f *fakeSchedulePort) GetAppointments(ctx context.Context, providerID string, from, to time.Time) ([]domain.ExistingAppointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.appointmentsCalls++
	result := make([]domain.ExistingAppointment, 0)
	for _, appointment := range f.appointments[providerID] {
		start := appointment.StartDateTime.Date
		if !start.Before(from) && start.Before(to) {
			result = append(result, appointment)
		}
	}
	return result, nil
}

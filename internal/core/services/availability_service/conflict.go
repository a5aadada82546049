package availability_service

import (
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
	"github.com/suchimauz/appointment-availability-engine/internal/utils"
)

func (s *AvailabilityService) HasConflict(slotStart json_types.TimeOfDay, durationMinutes int, existing []domain.ExistingAppointment) bool {
	return hasConflict(slotStart.Minutes(), durationMinutes, existing)
}

// Полуинтервалы [a, a+da) и [b, b+db): касание границ конфликтом не считается
func hasConflict(start, duration int, existing []domain.ExistingAppointment) bool {
	for _, appointment := range existing {
		appointmentStart := minutesOfDay(appointment.StartDateTime.Date)
		if start < appointmentStart+appointment.Duration() && appointmentStart < start+duration {
			return true
		}
	}
	return false
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// appointmentsOnDay оставляет записи того же календарного дня в таймзоне date
func appointmentsOnDay(date time.Time, existing []domain.ExistingAppointment) []domain.ExistingAppointment {
	result := make([]domain.ExistingAppointment, 0, len(existing))
	for _, appointment := range existing {
		start := appointment.StartDateTime.Date.In(date.Location())
		if !utils.SameDay(start, date) {
			continue
		}
		appointment.StartDateTime = json_types.DateTime{Date: start}
		result = append(result, appointment)
	}
	return result
}

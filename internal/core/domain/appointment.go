package domain

import (
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoshow    AppointmentStatus = "noshow"
)

// ActiveAppointmentStatuses block a slot.
var ActiveAppointmentStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusScheduled,
	AppointmentStatusConfirmed,
}

// DefaultAppointmentDurationMinutes applies to stored appointments without a duration.
const DefaultAppointmentDurationMinutes = 30

// ExistingAppointment is a committed booking owned by the persistence layer.
type ExistingAppointment struct {
	ID              string              `json:"id,omitempty"`
	StartDateTime   json_types.DateTime `json:"startDateTime"`
	DurationMinutes int                 `json:"durationMinutes"`
	Status          AppointmentStatus   `json:"status,omitempty"`
}

func (a ExistingAppointment) Duration() int {
	if a.DurationMinutes <= 0 {
		return DefaultAppointmentDurationMinutes
	}
	return a.DurationMinutes
}

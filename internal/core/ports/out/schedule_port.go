package out

import (
	"context"
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

// SchedulePort is the persistence collaborator that owns provider
// configuration and committed appointments.
type SchedulePort interface {
	// Returns domain.ErrScheduleNotFound for unknown providers.
	GetScheduleConfig(ctx context.Context, providerID string) (*domain.ScheduleConfig, error)

	// Active appointments of the provider starting in [from, to).
	GetAppointments(ctx context.Context, providerID string, from, to time.Time) ([]domain.ExistingAppointment, error)
}

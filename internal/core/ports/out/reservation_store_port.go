package out

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

// ReservationStorePort serializes every mutation per slot identity.
// Implementations treat a hold with now >= ExpiresAt as inactive.
type ReservationStorePort interface {
	// Create stores r unless another session holds an active reservation on
	// r.Key(), in which case it returns domain.ErrSlotHeld. If the same
	// session already holds the slot, the existing reservation is returned.
	Create(ctx context.Context, r domain.Reservation, now time.Time) (*domain.Reservation, error)

	Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)

	// Extend moves ExpiresAt of an active hold owned by sessionID.
	Extend(ctx context.Context, id uuid.UUID, sessionID string, now, expiresAt time.Time) (*domain.Reservation, error)

	// Transition moves an active hold owned by sessionID to a terminal status.
	Transition(ctx context.Context, id uuid.UUID, sessionID string, now time.Time, to domain.ReservationStatus) (*domain.Reservation, error)

	// ActiveForProvider lists active holds with SlotStart in [from, to).
	ActiveForProvider(ctx context.Context, providerID string, from, to, now time.Time) ([]domain.Reservation, error)

	ActiveForSession(ctx context.Context, sessionID string, now time.Time) ([]domain.Reservation, error)
}

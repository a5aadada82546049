package in

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

type ReservationUseCase interface {
	CreateReservation(ctx context.Context, req domain.ReservationRequest) (*domain.Reservation, error)

	// nil when the hold is gone; the caller must re-check availability
	ExtendReservation(ctx context.Context, id uuid.UUID, sessionID string) (*time.Time, error)

	// Idempotent
	ReleaseReservation(ctx context.Context, id uuid.UUID, sessionID string) error

	// false when the hold is gone; domain.ErrSlotTaken when a committed
	// appointment took the slot meanwhile
	CommitReservation(ctx context.Context, id uuid.UUID, sessionID string) (bool, error)

	GetReservation(ctx context.Context, id uuid.UUID, sessionID string) (*domain.Reservation, error)

	ReleaseSession(ctx context.Context, sessionID string) (int, error)
}

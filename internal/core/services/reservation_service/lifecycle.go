package reservation_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

func (s *ReservationService) CreateReservation(ctx context.Context, req domain.ReservationRequest) (*domain.Reservation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	r := domain.Reservation{
		ID:         uuid.New(),
		ProviderID: req.ProviderID,
		SlotStart:  req.SlotStart,
		LocationID: req.LocationID,
		SessionID:  req.SessionID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.holdDuration),
		Status:     domain.ReservationStatusActive,
	}

	if err := s.checkSlotOpen(ctx, r); err != nil {
		if errors.Is(err, domain.ErrSlotTaken) || errors.Is(err, domain.ErrSlotHeld) {
			s.logger.Info("reservation.create.slot_unavailable", out.LogFields{
				"providerId": r.ProviderID,
				"slotStart":  r.SlotStart,
				"reason":     err.Error(),
			})
			return nil, err
		}
		return nil, fmt.Errorf("reservation.create.availability_check: %w", err)
	}

	created, err := s.store.Create(ctx, r, now)
	if errors.Is(err, domain.ErrSlotHeld) {
		s.logger.Info("reservation.create.slot_held", out.LogFields{
			"providerId": r.ProviderID,
			"slotStart":  r.SlotStart,
			"locationId": r.LocationID,
		})
		return nil, err
	}
	if err != nil {
		s.logger.Error("reservation.create.failed", out.LogFields{
			"providerId": r.ProviderID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("reservation.create: %w", err)
	}

	// Повторный запрос той же сессии возвращает уже существующий резерв
	if created.ID == r.ID {
		s.logger.Info("reservation.create.done", out.LogFields{
			"reservationId": created.ID,
			"providerId":    created.ProviderID,
			"slotStart":     created.SlotStart,
			"expiresAt":     created.ExpiresAt,
		})
		s.publish(ctx, domain.ReservationEventCreated, *created)
	}

	return created, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id uuid.UUID, sessionID string) (*domain.Reservation, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.OwnedBy(sessionID) {
		return nil, domain.ErrReservationNotFound
	}

	r.Status = r.StatusAt(s.clock.Now())
	return r, nil
}

func (s *ReservationService) ExtendReservation(ctx context.Context, id uuid.UUID, sessionID string) (*time.Time, error) {
	now := s.clock.Now()

	r, err := s.store.Extend(ctx, id, sessionID, now, now.Add(s.holdDuration))
	if errors.Is(err, domain.ErrReservationNotFound) {
		s.logger.Debug("reservation.extend.gone", out.LogFields{
			"reservationId": id,
		})
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reservation.extend: %w", err)
	}

	s.publish(ctx, domain.ReservationEventExtended, *r)

	expiresAt := r.ExpiresAt
	return &expiresAt, nil
}

func (s *ReservationService) ReleaseReservation(ctx context.Context, id uuid.UUID, sessionID string) error {
	r, err := s.store.Transition(ctx, id, sessionID, s.clock.Now(), domain.ReservationStatusReleased)
	// Повторное освобождение не ошибка
	if errors.Is(err, domain.ErrReservationNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reservation.release: %w", err)
	}

	s.logger.Info("reservation.release.done", out.LogFields{
		"reservationId": r.ID,
	})
	s.publish(ctx, domain.ReservationEventReleased, *r)

	return nil
}

func (s *ReservationService) CommitReservation(ctx context.Context, id uuid.UUID, sessionID string) (bool, error) {
	now := s.clock.Now()

	r, err := s.store.Get(ctx, id)
	if errors.Is(err, domain.ErrReservationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reservation.commit: %w", err)
	}
	if !r.OwnedBy(sessionID) || !r.IsActiveAt(now) {
		return false, nil
	}

	taken, err := s.slotTaken(ctx, *r)
	if err != nil {
		return false, fmt.Errorf("reservation.commit.availability_check: %w", err)
	}
	if taken {
		s.logger.Warn("reservation.commit.slot_taken", out.LogFields{
			"reservationId": r.ID,
			"providerId":    r.ProviderID,
			"slotStart":     r.SlotStart,
		})
		if err := s.ReleaseReservation(ctx, id, sessionID); err != nil {
			return false, err
		}
		return false, domain.ErrSlotTaken
	}

	committed, err := s.store.Transition(ctx, id, sessionID, now, domain.ReservationStatusCommitted)
	if errors.Is(err, domain.ErrReservationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reservation.commit: %w", err)
	}

	// Подтвержденная запись меняет доступность врача
	if s.availability != nil {
		if err := s.availability.InvalidateProvider(ctx, committed.ProviderID); err != nil {
			s.logger.Warn("reservation.commit.invalidate_failed", out.LogFields{
				"providerId": committed.ProviderID,
				"error":      err.Error(),
			})
		}
	}

	s.logger.Info("reservation.commit.done", out.LogFields{
		"reservationId": committed.ID,
		"providerId":    committed.ProviderID,
		"slotStart":     committed.SlotStart,
	})
	s.publish(ctx, domain.ReservationEventCommitted, *committed)

	return true, nil
}

func (s *ReservationService) ReleaseSession(ctx context.Context, sessionID string) (int, error) {
	now := s.clock.Now()

	holds, err := s.store.ActiveForSession(ctx, sessionID, now)
	if err != nil {
		return 0, fmt.Errorf("reservation.release_session: %w", err)
	}

	released := 0
	for _, hold := range holds {
		r, err := s.store.Transition(ctx, hold.ID, sessionID, now, domain.ReservationStatusReleased)
		if errors.Is(err, domain.ErrReservationNotFound) {
			continue
		}
		if err != nil {
			return released, fmt.Errorf("reservation.release_session: %w", err)
		}
		released++
		s.publish(ctx, domain.ReservationEventReleased, *r)
	}

	s.logger.Info("reservation.release_session.done", out.LogFields{
		"sessionId": sessionID,
		"released":  released,
	})

	return released, nil
}

package reservation_service

import (
	"context"
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/in"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
	"github.com/suchimauz/appointment-availability-engine/internal/utils"
)

const defaultHoldDuration = 15 * time.Minute

type ReservationService struct {
	store        out.ReservationStorePort
	availability in.AvailabilityUseCase
	events       out.EventPublisherPort
	clock        out.ClockPort
	logger       out.LoggerPort
	holdDuration time.Duration
}

// availability may be nil: committed appointments are then not re-checked.
func NewReservationService(
	store out.ReservationStorePort,
	availability in.AvailabilityUseCase,
	events out.EventPublisherPort,
	clock out.ClockPort,
	logger out.LoggerPort,
	cfg *config.Config,
) *ReservationService {
	holdDuration := defaultHoldDuration
	if cfg != nil && cfg.Reservation.HoldDuration > 0 {
		holdDuration = cfg.Reservation.HoldDuration
	}

	return &ReservationService{
		store:        store,
		availability: availability,
		events:       events,
		clock:        clock,
		logger:       logger.WithModule("ReservationService"),
		holdDuration: holdDuration,
	}
}

func (s *ReservationService) publish(ctx context.Context, eventType domain.ReservationEventType, r domain.Reservation) {
	if s.events == nil {
		return
	}

	event := domain.ReservationEvent{
		Type:        eventType,
		Reservation: r,
		OccurredAt:  s.clock.Now(),
	}
	// Ошибка публикации не отменяет уже выполненную операцию
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("reservation.event.publish_failed", out.LogFields{
			"reservationId": r.ID,
			"event":         eventType,
			"error":         err.Error(),
		})
	}
}

// checkSlotOpen требует, чтобы начало резерва было слотом сетки врача,
// свободным для этой сессии. Чужие резервы на пересекающееся время дают
// ErrSlotHeld, записи и слоты вне сетки дают ErrSlotTaken.
func (s *ReservationService) checkSlotOpen(ctx context.Context, r domain.Reservation) error {
	if s.availability == nil {
		return nil
	}

	day := utils.StartCurrentDay(r.SlotStart.In(config.TimeZone))
	slots, _, err := s.availability.ProviderAvailability(ctx, r.ProviderID, day, r.SessionID)
	if err != nil {
		return err
	}

	for _, slot := range slots {
		if !utils.AtMinutes(day, slot.Time.Minutes()).Equal(r.SlotStart) {
			continue
		}

		// Кэш доступности мог устареть, записи перечитываем напрямую
		taken, err := s.slotTaken(ctx, r)
		if err != nil {
			return err
		}
		switch {
		case taken:
			return domain.ErrSlotTaken
		case !slot.Available:
			return domain.ErrSlotHeld
		}
		return nil
	}

	// Обед, выходной или время вне сетки
	return domain.ErrSlotTaken
}

func (s *ReservationService) slotTaken(ctx context.Context, r domain.Reservation) (bool, error) {
	if s.availability == nil {
		return false, nil
	}
	return s.availability.IsSlotTaken(ctx, r.ProviderID, r.SlotStart)
}

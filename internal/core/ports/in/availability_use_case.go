package in

import (
	"context"
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

type AvailabilityUseCase interface {
	// Кандидаты слотов на дату по недельному расписанию
	GenerateSlots(config domain.ScheduleConfig, date time.Time) ([]domain.CandidateSlot, error)

	// Пересечение слота с существующими записями
	HasConflict(slotStart json_types.TimeOfDay, durationMinutes int, existing []domain.ExistingAppointment) bool

	// Итоговая доступность по переданным данным
	GetAvailability(config domain.ScheduleConfig, date time.Time, existing []domain.ExistingAppointment) ([]domain.AvailabilitySlot, error)

	// Доступность врача с загрузкой данных и учетом чужих временных резервов
	ProviderAvailability(ctx context.Context, providerID string, date time.Time, sessionID string) ([]domain.AvailabilitySlot, []domain.DebugInfo, error)

	// Ближайший свободный слот начиная с from
	NextAvailable(ctx context.Context, providerID string, from time.Time, horizonDays int) (*time.Time, error)

	// Занят ли слот подтвержденной записью (без кэша)
	IsSlotTaken(ctx context.Context, providerID string, slotStart time.Time) (bool, error)

	InvalidateProvider(ctx context.Context, providerID string) error
	InvalidateScheduleConfig(ctx context.Context, providerID string) error
	InvalidateAll(ctx context.Context) error
}

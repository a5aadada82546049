package availability_service

import (
	"context"
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
	"github.com/suchimauz/appointment-availability-engine/internal/utils"
)

// NextAvailable walks day by day from `from` and returns the first free slot
// starting at or after it, or nil when nothing is free within the horizon.
// Holds of every session count as taken.
func (s *AvailabilityService) NextAvailable(ctx context.Context, providerID string, from time.Time, horizonDays int) (*time.Time, error) {
	if from.IsZero() {
		from = s.clock.Now()
	}
	from = from.In(config.TimeZone)
	firstDay := utils.StartCurrentDay(from)
	days := s.horizonDays(horizonDays)

	for i := 0; i < days; i++ {
		day := firstDay.AddDate(0, 0, i)

		slots, _, err := s.ProviderAvailability(ctx, providerID, day, "")
		if err != nil {
			return nil, err
		}

		for _, slot := range slots {
			if !slot.Available {
				continue
			}
			start := utils.AtMinutes(day, slot.Time.Minutes())
			if start.Before(from) {
				continue
			}
			return &start, nil
		}
	}

	s.logger.Debug("availability.next_available.not_found", out.LogFields{
		"providerId": providerID,
		"days":       days,
	})

	return nil, nil
}

package availability_service

import (
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

const (
	defaultNextAvailableHorizonDays = 30
	maxNextAvailableHorizonDays     = 365
)

type AvailabilityService struct {
	schedulePort out.SchedulePort
	cachePort    out.CachePort
	reservations out.ReservationStorePort
	clock        out.ClockPort
	logger       out.LoggerPort
	cfg          *config.Config
}

// cachePort and reservations may be nil: availability is then computed on
// every call and holds are not overlaid.
func NewAvailabilityService(
	schedulePort out.SchedulePort,
	cachePort out.CachePort,
	reservations out.ReservationStorePort,
	clock out.ClockPort,
	logger out.LoggerPort,
	cfg *config.Config,
) *AvailabilityService {
	return &AvailabilityService{
		schedulePort: schedulePort,
		cachePort:    cachePort,
		reservations: reservations,
		clock:        clock,
		logger:       logger.WithModule("AvailabilityService"),
		cfg:          cfg,
	}
}

func (s *AvailabilityService) horizonDays(requested int) int {
	days := defaultNextAvailableHorizonDays
	switch {
	case requested > 0:
		days = requested
	case s.cfg != nil && s.cfg.Availability.NextAvailableHorizonDays > 0:
		days = s.cfg.Availability.NextAvailableHorizonDays
	}
	return min(days, maxNextAvailableHorizonDays)
}

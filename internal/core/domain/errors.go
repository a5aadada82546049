package domain

import (
	"errors"
	"strings"
)

var (
	ErrReservationNotFound       = errors.New("reservation not found or no longer active")
	ErrSlotHeld                  = errors.New("slot is temporarily held by another session")
	ErrSlotTaken                 = errors.New("slot no longer available")
	ErrScheduleNotFound          = errors.New("schedule config not found")
	ErrInvalidReservationRequest = errors.New("invalid reservation request")
)

// ConfigurationError reports an invalid ScheduleConfig.
type ConfigurationError struct {
	ProviderID string
	Problems   []string
}

func (e *ConfigurationError) Error() string {
	msg := "invalid schedule config"
	if e.ProviderID != "" {
		msg += " for provider " + e.ProviderID
	}
	return msg + ": " + strings.Join(e.Problems, "; ")
}

func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

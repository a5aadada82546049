package domain

import (
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

type CandidateSlot struct {
	StartTime json_types.TimeOfDay `json:"startTime"`
}

type AvailabilitySlot struct {
	Time      json_types.TimeOfDay `json:"time"`
	Available bool                 `json:"available"`
}

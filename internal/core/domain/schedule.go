package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

type DayOfWeek string

const (
	DayOfWeekSun DayOfWeek = "sun"
	DayOfWeekMon DayOfWeek = "mon"
	DayOfWeekTue DayOfWeek = "tue"
	DayOfWeekWed DayOfWeek = "wed"
	DayOfWeekThu DayOfWeek = "thu"
	DayOfWeekFri DayOfWeek = "fri"
	DayOfWeekSat DayOfWeek = "sat"
)

var DaysOfWeekMap = map[time.Weekday]DayOfWeek{
	time.Sunday:    DayOfWeekSun,
	time.Monday:    DayOfWeekMon,
	time.Tuesday:   DayOfWeekTue,
	time.Wednesday: DayOfWeekWed,
	time.Thursday:  DayOfWeekThu,
	time.Friday:    DayOfWeekFri,
	time.Saturday:  DayOfWeekSat,
}

// DayOfWeekOf returns the weekday of date in date's own location.
func DayOfWeekOf(date time.Time) DayOfWeek {
	return DaysOfWeekMap[date.Weekday()]
}

func (d DayOfWeek) Valid() bool {
	for _, known := range DaysOfWeekMap {
		if d == known {
			return true
		}
	}
	return false
}

// DaySchedule is one working block of a weekday.
type DaySchedule struct {
	OpensAt    json_types.TimeOfDay  `json:"opensAt"`
	ClosesAt   json_types.TimeOfDay  `json:"closesAt"`
	IsOpen     bool                  `json:"isOpen"`
	LunchStart *json_types.TimeOfDay `json:"lunchStart,omitempty"`
	LunchEnd   *json_types.TimeOfDay `json:"lunchEnd,omitempty"`
}

func (d DaySchedule) HasLunch() bool {
	return d.LunchStart != nil && d.LunchEnd != nil
}

// OverlapsLunch reports whether [start, end) intersects the lunch window.
func (d DaySchedule) OverlapsLunch(start, end json_types.TimeOfDay) bool {
	if !d.HasLunch() {
		return false
	}
	return start < *d.LunchEnd && *d.LunchStart < end
}

func (d DaySchedule) validate(day DayOfWeek, index int) []string {
	var problems []string
	prefix := fmt.Sprintf("weeklyHours.%s[%d]", day, index)

	if !d.OpensAt.Valid() || !d.ClosesAt.Valid() {
		problems = append(problems, prefix+": opening hours out of range")
	}
	if d.ClosesAt <= d.OpensAt {
		problems = append(problems, fmt.Sprintf("%s: closesAt %s must be after opensAt %s", prefix, d.ClosesAt, d.OpensAt))
	}

	if (d.LunchStart == nil) != (d.LunchEnd == nil) {
		problems = append(problems, prefix+": lunchStart and lunchEnd must be set together")
		return problems
	}
	if d.HasLunch() {
		ls, le := *d.LunchStart, *d.LunchEnd
		if ls >= le {
			problems = append(problems, fmt.Sprintf("%s: lunchEnd %s must be after lunchStart %s", prefix, le, ls))
		}
		if ls < d.OpensAt || le > d.ClosesAt {
			problems = append(problems, fmt.Sprintf("%s: lunch %s-%s outside opening hours %s-%s", prefix, ls, le, d.OpensAt, d.ClosesAt))
		}
	}

	return problems
}

// DayBlocks accepts either a single block object or a list of blocks in JSON.
type DayBlocks []DaySchedule

func (b *DayBlocks) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*b = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single DaySchedule
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*b = DayBlocks{single}
		return nil
	}

	var blocks []DaySchedule
	if err := json.Unmarshal(trimmed, &blocks); err != nil {
		return err
	}
	*b = blocks
	return nil
}

type ScheduleConfig struct {
	ProviderID                 string                  `json:"providerId,omitempty"`
	AppointmentDurationMinutes int                     `json:"appointmentDurationMinutes"`
	BufferMinutes              int                     `json:"bufferMinutes"`
	WeeklyHours                map[DayOfWeek]DayBlocks `json:"weeklyHours"`
}

// Step is the distance between consecutive slot starts.
func (c ScheduleConfig) Step() int {
	return c.AppointmentDurationMinutes + c.BufferMinutes
}

// Validate collects every problem of the config into a single ConfigurationError.
func (c ScheduleConfig) Validate() error {
	var problems []string

	if c.AppointmentDurationMinutes <= 0 {
		problems = append(problems, fmt.Sprintf("appointmentDurationMinutes must be positive, got %d", c.AppointmentDurationMinutes))
	}
	if c.BufferMinutes < 0 {
		problems = append(problems, fmt.Sprintf("bufferMinutes must not be negative, got %d", c.BufferMinutes))
	}

	days := make([]string, 0, len(c.WeeklyHours))
	for day := range c.WeeklyHours {
		days = append(days, string(day))
	}
	sort.Strings(days)

	for _, name := range days {
		day := DayOfWeek(name)
		if !day.Valid() {
			problems = append(problems, fmt.Sprintf("weeklyHours: unknown weekday %q", name))
			continue
		}
		for i, block := range c.WeeklyHours[day] {
			if !block.IsOpen {
				continue
			}
			problems = append(problems, block.validate(day, i)...)
		}
	}

	if len(problems) > 0 {
		return &ConfigurationError{ProviderID: c.ProviderID, Problems: problems}
	}
	return nil
}

// DefaultWeeklyHours is used for providers that never configured their hours.
func DefaultWeeklyHours() map[DayOfWeek]DayBlocks {
	lunchStart := json_types.NewTimeOfDay(12, 0)
	lunchEnd := json_types.NewTimeOfDay(13, 0)

	weekday := func() DayBlocks {
		ls, le := lunchStart, lunchEnd
		return DayBlocks{{
			OpensAt:    json_types.NewTimeOfDay(8, 0),
			ClosesAt:   json_types.NewTimeOfDay(18, 0),
			IsOpen:     true,
			LunchStart: &ls,
			LunchEnd:   &le,
		}}
	}
	weekend := func() DayBlocks {
		return DayBlocks{{
			OpensAt:  json_types.NewTimeOfDay(8, 0),
			ClosesAt: json_types.NewTimeOfDay(12, 0),
			IsOpen:   false,
		}}
	}

	return map[DayOfWeek]DayBlocks{
		DayOfWeekMon: weekday(),
		DayOfWeekTue: weekday(),
		DayOfWeekWed: weekday(),
		DayOfWeekThu: weekday(),
		DayOfWeekFri: weekday(),
		DayOfWeekSat: weekend(),
		DayOfWeekSun: weekend(),
	}
}

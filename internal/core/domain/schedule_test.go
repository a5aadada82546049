package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

func tod(h, m int) *json_types.TimeOfDay {
	t := json_types.NewTimeOfDay(h, m)
	return &t
}

func TestScheduleConfigValidate(t *testing.T) {
	valid := ScheduleConfig{
		AppointmentDurationMinutes: 30,
		WeeklyHours:                DefaultWeeklyHours(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("default hours should be valid: %v", err)
	}

	tests := []struct {
		name    string
		config  ScheduleConfig
		problem string
	}{
		{
			name:    "zero duration",
			config:  ScheduleConfig{AppointmentDurationMinutes: 0},
			problem: "appointmentDurationMinutes",
		},
		{
			name:    "negative buffer",
			config:  ScheduleConfig{AppointmentDurationMinutes: 30, BufferMinutes: -5},
			problem: "bufferMinutes",
		},
		{
			name: "closes before opens",
			config: ScheduleConfig{
				AppointmentDurationMinutes: 30,
				WeeklyHours: map[DayOfWeek]DayBlocks{
					DayOfWeekMon: {{OpensAt: 600, ClosesAt: 480, IsOpen: true}},
				},
			},
			problem: "closesAt",
		},
		{
			name: "lunch outside hours",
			config: ScheduleConfig{
				AppointmentDurationMinutes: 30,
				WeeklyHours: map[DayOfWeek]DayBlocks{
					DayOfWeekTue: {{OpensAt: 480, ClosesAt: 720, IsOpen: true, LunchStart: tod(12, 0), LunchEnd: tod(13, 0)}},
				},
			},
			problem: "outside opening hours",
		},
		{
			name: "lunch half configured",
			config: ScheduleConfig{
				AppointmentDurationMinutes: 30,
				WeeklyHours: map[DayOfWeek]DayBlocks{
					DayOfWeekWed: {{OpensAt: 480, ClosesAt: 1080, IsOpen: true, LunchStart: tod(12, 0)}},
				},
			},
			problem: "set together",
		},
		{
			name: "unknown weekday",
			config: ScheduleConfig{
				AppointmentDurationMinutes: 30,
				WeeklyHours: map[DayOfWeek]DayBlocks{
					"segunda": {{OpensAt: 480, ClosesAt: 1080, IsOpen: true}},
				},
			},
			problem: "unknown weekday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if err == nil {
				t.Fatal("expected configuration error")
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigurationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.problem) {
				t.Errorf("error %q does not mention %q", err, tt.problem)
			}
		})
	}
}

func TestClosedBlockIsNotValidated(t *testing.T) {
	config := ScheduleConfig{
		AppointmentDurationMinutes: 30,
		WeeklyHours: map[DayOfWeek]DayBlocks{
			DayOfWeekSun: {{OpensAt: 600, ClosesAt: 480, IsOpen: false}},
		},
	}
	if err := config.Validate(); err != nil {
		t.Errorf("closed block should be ignored: %v", err)
	}
}

func TestDayBlocksAcceptsObjectOrList(t *testing.T) {
	raw := `{
		"appointmentDurationMinutes": 30,
		"weeklyHours": {
			"mon": {"opensAt": "08:00", "closesAt": "12:00", "isOpen": true},
			"tue": [
				{"opensAt": "08:00", "closesAt": "12:00", "isOpen": true},
				{"opensAt": "14:00", "closesAt": "18:00", "isOpen": true, "lunchStart": "15:00", "lunchEnd": "15:30"}
			],
			"sun": null
		}
	}`

	var config ScheduleConfig
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(config.WeeklyHours[DayOfWeekMon]) != 1 {
		t.Errorf("expected single block for mon, got %d", len(config.WeeklyHours[DayOfWeekMon]))
	}
	if len(config.WeeklyHours[DayOfWeekTue]) != 2 {
		t.Errorf("expected two blocks for tue, got %d", len(config.WeeklyHours[DayOfWeekTue]))
	}
	if !config.WeeklyHours[DayOfWeekTue][1].HasLunch() {
		t.Error("expected lunch on second tue block")
	}
	if len(config.WeeklyHours[DayOfWeekSun]) != 0 {
		t.Error("expected sun to be closed")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestDayOfWeekOf(t *testing.T) {
	// 2024-01-15 is a Monday.
	if got := DayOfWeekOf(time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)); got != DayOfWeekMon {
		t.Errorf("got %s, want mon", got)
	}
}

func TestReservationStatusAt(t *testing.T) {
	t0 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	r := Reservation{Status: ReservationStatusActive, CreatedAt: t0, ExpiresAt: t0.Add(15 * time.Minute)}

	if !r.IsActiveAt(t0.Add(14 * time.Minute)) {
		t.Error("expected active before deadline")
	}
	if r.StatusAt(t0.Add(15*time.Minute)) != ReservationStatusExpired {
		t.Error("expected expired exactly at deadline")
	}

	r.Status = ReservationStatusCommitted
	if r.StatusAt(t0.Add(time.Hour)) != ReservationStatusCommitted {
		t.Error("terminal status must not change on read")
	}
}

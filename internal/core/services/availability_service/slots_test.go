package availability_service

import (
	"reflect"
	"testing"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

func TestGenerateSlotsClosedDay(t *testing.T) {
	closed := openBlock(tod(8, 0), tod(18, 0))
	closed.IsOpen = false
	cfg := mondayConfig(30, 0, closed)

	for week := 0; week < 4; week++ {
		date := monday.AddDate(0, 0, 7*week)
		slots, err := generateSlots(cfg, date)
		if err != nil {
			t.Fatalf("%s: %v", date, err)
		}
		if len(slots) != 0 {
			t.Fatalf("%s: expected no slots on a closed day, got %v", date, startTimes(slots))
		}
	}

	// День недели без расписания тоже выходной
	slots, err := generateSlots(mondayConfig(30, 0, openBlock(tod(8, 0), tod(18, 0))), monday.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots on an unconfigured weekday, got %d", len(slots))
	}
}

func TestGenerateSlotsCount(t *testing.T) {
	tests := []struct {
		opens, closes    json_types.TimeOfDay
		duration, buffer int
	}{
		{tod(8, 0), tod(18, 0), 30, 0},
		{tod(8, 0), tod(18, 0), 30, 10},
		{tod(8, 0), tod(18, 0), 45, 15},
		{tod(9, 15), tod(12, 40), 20, 5},
		{tod(8, 0), tod(8, 20), 30, 0},
		{tod(8, 0), tod(8, 30), 30, 0},
		{tod(0, 0), tod(24, 0), 60, 0},
		{tod(10, 0), tod(11, 0), 25, 35},
	}

	for _, tt := range tests {
		cfg := mondayConfig(tt.duration, tt.buffer, openBlock(tt.opens, tt.closes))
		slots, err := generateSlots(cfg, monday)
		if err != nil {
			t.Fatalf("%v: %v", tt, err)
		}

		span := tt.closes.Minutes() - tt.opens.Minutes() - tt.duration
		want := 0
		if span >= 0 {
			want = span/(tt.duration+tt.buffer) + 1
		}

		if len(slots) != want {
			t.Errorf("%s-%s dur=%d buf=%d: got %d slots, want %d", tt.opens, tt.closes, tt.duration, tt.buffer, len(slots), want)
		}
	}
}

func TestGenerateSlotsSkipsLunch(t *testing.T) {
	tests := []struct {
		name             string
		block            domain.DaySchedule
		duration, buffer int
	}{
		{"aligned lunch", withLunch(openBlock(tod(8, 0), tod(18, 0)), tod(12, 0), tod(13, 0)), 30, 0},
		{"unaligned lunch", withLunch(openBlock(tod(8, 0), tod(18, 0)), tod(12, 10), tod(13, 5)), 30, 0},
		{"buffer", withLunch(openBlock(tod(8, 0), tod(18, 0)), tod(12, 0), tod(13, 0)), 40, 5},
		{"whole day lunch", withLunch(openBlock(tod(8, 0), tod(18, 0)), tod(8, 0), tod(18, 0)), 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mondayConfig(tt.duration, tt.buffer, tt.block)
			slots, err := generateSlots(cfg, monday)
			if err != nil {
				t.Fatal(err)
			}

			lunchStart, lunchEnd := tt.block.LunchStart.Minutes(), tt.block.LunchEnd.Minutes()
			for _, slot := range slots {
				start := slot.StartTime.Minutes()
				end := start + tt.duration
				if start < lunchEnd && lunchStart < end {
					t.Errorf("slot %s overlaps lunch %s-%s", slot.StartTime, tt.block.LunchStart, tt.block.LunchEnd)
				}
				// Обед не сдвигает сетку
				if (start-tt.block.OpensAt.Minutes())%cfg.Step() != 0 {
					t.Errorf("slot %s is off the grid", slot.StartTime)
				}
			}
		})
	}
}

func TestGenerateSlotsLunchGap(t *testing.T) {
	cfg := mondayConfig(30, 0, withLunch(openBlock(tod(8, 0), tod(18, 0)), tod(12, 0), tod(14, 0)))

	slots, err := generateSlots(cfg, monday)
	if err != nil {
		t.Fatal(err)
	}

	times := startTimes(slots)
	index := make(map[string]int, len(times))
	for i, s := range times {
		index[s] = i
	}

	for _, missing := range []string{"12:00", "12:30", "13:00", "13:30"} {
		if _, ok := index[missing]; ok {
			t.Errorf("slot %s must not be generated", missing)
		}
	}

	before, ok := index["11:30"]
	if !ok {
		t.Fatal("11:30 must be the last slot before lunch")
	}
	if before+1 >= len(times) || times[before+1] != "14:00" {
		t.Fatalf("expected 14:00 right after 11:30, got %v", times)
	}
	if times[0] != "08:00" || times[len(times)-1] != "17:30" {
		t.Fatalf("unexpected bounds %s..%s", times[0], times[len(times)-1])
	}
}

func TestGenerateSlotsMultipleBlocks(t *testing.T) {
	cfg := mondayConfig(30, 0,
		openBlock(tod(9, 30), tod(12, 0)),
		openBlock(tod(8, 0), tod(10, 0)),
	)

	slots, err := generateSlots(cfg, monday)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"08:00", "08:30", "09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}
	if got := startTimes(slots); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGenerateSlotsInvalidConfig(t *testing.T) {
	tests := []domain.ScheduleConfig{
		mondayConfig(0, 0, openBlock(tod(8, 0), tod(18, 0))),
		mondayConfig(30, -5, openBlock(tod(8, 0), tod(18, 0))),
		mondayConfig(30, 0, openBlock(tod(18, 0), tod(8, 0))),
		mondayConfig(30, 0, withLunch(openBlock(tod(8, 0), tod(12, 0)), tod(12, 0), tod(13, 0))),
	}

	for i, cfg := range tests {
		slots, err := generateSlots(cfg, monday)
		if !domain.IsConfigurationError(err) {
			t.Errorf("case %d: expected ConfigurationError, got %v", i, err)
		}
		if slots != nil {
			t.Errorf("case %d: expected no slots alongside an error", i)
		}
	}
}

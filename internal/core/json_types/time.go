package json_types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

// TimeOfDay - время суток в минутах от полуночи.
// 24:00 допускается как конец рабочего дня.
type TimeOfDay int

func NewTimeOfDay(hours, minutes int) TimeOfDay {
	return TimeOfDay(hours*60 + minutes)
}

// ParseTimeOfDay принимает "HH:MM" и "HH:MM:SS", секунды отбрасываются.
func ParseTimeOfDay(str string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(str), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("failed to parse time of day %q: expected HH:MM", str)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("failed to parse time of day %q: %v", str, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("failed to parse time of day %q: %v", str, err)
	}
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return 0, fmt.Errorf("failed to parse time of day %q: %v", str, err)
		}
	}

	if hours < 0 || minutes < 0 || minutes > 59 || hours > 24 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("failed to parse time of day %q: out of range", str)
	}

	return NewTimeOfDay(hours, minutes), nil
}

func (t TimeOfDay) Minutes() int {
	return int(t)
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= MinutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("failed to parse time of day: %v", err)
	}
	parsed, err := ParseTimeOfDay(str)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

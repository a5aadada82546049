package utils

import (
	"fmt"
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/config"
)

// StartNextDay возвращает начало следующего дня в той же таймзоне.
func StartNextDay(t time.Time) time.Time {
	newDate := t.AddDate(0, 0, 1)
	return time.Date(newDate.Year(), newDate.Month(), newDate.Day(), 0, 0, 0, 0, newDate.Location())
}

func StartCurrentDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayBounds возвращает полуинтервал [начало дня, начало следующего дня).
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := StartCurrentDay(t)
	return start, StartNextDay(start)
}

// SameDay сравнивает календарные даты без учета времени.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// AtMinutes возвращает момент дня date, когда настенные часы показывают
// minutes минут от полуночи. В день перевода часов это не то же самое,
// что полночь плюс minutes.
func AtMinutes(date time.Time, minutes int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, date.Location())
}

// ParseDate парсит дату из строки в формате RFC3339, если не удается, то пробует парсить дату со временем, но без таймзоны
func ParseDate(str string) (time.Time, error) {
	parsedDate, err := time.Parse(time.RFC3339, str)
	// Даты без таймзоны считаем датами в таймзоне из конфига
	if err != nil {
		location := config.TimeZone
		parsedDate, err = time.ParseInLocation("2006-01-02T15:04:05", str, location)
		if err != nil {
			parsedDate, err = time.ParseInLocation("2006-01-02T15:04", str, location)
			if err != nil {
				// Если не удалось, пробуем как дату без времени
				parsedDate, err = time.ParseInLocation("2006-01-02", str, location)
				if err != nil {
					return time.Time{}, fmt.Errorf("failed to parse time: %v", err)
				}
			}
		}
	}

	return parsedDate, nil
}

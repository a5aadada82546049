package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/logger"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *ScheduleAdapter {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.ScheduleSource.URL = server.URL + "/"
	cfg.ScheduleSource.Username = "engine"
	cfg.ScheduleSource.Password = "secret"

	return NewScheduleAdapter(cfg, logger.NewZerologLogger(zerolog.Nop()))
}

func TestGetScheduleConfig(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "engine" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/ScheduleConfig/p-1":
			w.Write([]byte(`{
				"appointmentDurationMinutes": 30,
				"bufferMinutes": 5,
				"weeklyHours": {
					"mon": {"opensAt": "08:00", "closesAt": "18:00", "isOpen": true, "lunchStart": "12:00", "lunchEnd": "13:00"},
					"tue": [{"opensAt": "08:00", "closesAt": "12:00", "isOpen": true}, {"opensAt": "14:00", "closesAt": "18:00", "isOpen": true}]
				}
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	cfg, err := adapter.GetScheduleConfig(context.Background(), "p-1")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ProviderID != "p-1" || cfg.AppointmentDurationMinutes != 30 || cfg.BufferMinutes != 5 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.WeeklyHours[domain.DayOfWeekMon]) != 1 || len(cfg.WeeklyHours[domain.DayOfWeekTue]) != 2 {
		t.Fatalf("unexpected weekly hours %+v", cfg.WeeklyHours)
	}
	if !cfg.WeeklyHours[domain.DayOfWeekMon][0].HasLunch() {
		t.Fatal("monday lunch lost")
	}

	if _, err := adapter.GetScheduleConfig(context.Background(), "missing"); !errors.Is(err, domain.ErrScheduleNotFound) {
		t.Fatalf("expected ErrScheduleNotFound, got %v", err)
	}
}

func TestGetAppointments(t *testing.T) {
	from := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if r.URL.Path != "/Appointment" || query.Get("provider") != "p-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		starts := query["start"]
		if len(starts) != 2 || starts[0] != "ge2024-01-15T00:00:00Z" || starts[1] != "lt2024-01-16T00:00:00Z" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"entry": [
			{"resource": {"id": "a-1", "startDateTime": "2024-01-15T10:00:00Z", "durationMinutes": 30, "status": "scheduled"}},
			{"resource": {"id": "a-2", "startDateTime": "2024-01-15T11:00:00Z", "durationMinutes": 30, "status": "cancelled"}},
			{"resource": {"id": "a-3", "startDateTime": "2024-01-15T12:00:00", "status": "pending"}}
		]}`))
	})

	appointments, err := adapter.GetAppointments(context.Background(), "p-1", from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(appointments) != 2 {
		t.Fatalf("expected cancelled appointment to be dropped, got %+v", appointments)
	}
	if appointments[0].ID != "a-1" || !appointments[0].StartDateTime.Date.Equal(from.Add(10*time.Hour)) {
		t.Fatalf("unexpected first appointment %+v", appointments[0])
	}
	if appointments[1].Duration() != domain.DefaultAppointmentDurationMinutes {
		t.Fatalf("missing duration should fall back to default, got %d", appointments[1].Duration())
	}
}

func TestGetAppointmentsUnexpectedStatus(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := adapter.GetAppointments(context.Background(), "p-1", time.Now(), time.Now()); err == nil {
		t.Fatal("expected an error for 502")
	}
}

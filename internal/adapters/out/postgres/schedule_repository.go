package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

// ScheduleRepository reads provider hours and committed appointments.
type ScheduleRepository struct {
	pool *pgxpool.Pool
}

func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func (r *ScheduleRepository) GetScheduleConfig(ctx context.Context, providerID string) (*domain.ScheduleConfig, error) {
	var (
		scheduleConfig domain.ScheduleConfig
		weeklyHours    []byte
	)

	err := r.pool.QueryRow(ctx, `
		SELECT appointment_duration_minutes, buffer_minutes, weekly_hours
		FROM provider_schedules
		WHERE provider_id = $1`, providerID,
	).Scan(&scheduleConfig.AppointmentDurationMinutes, &scheduleConfig.BufferMinutes, &weeklyHours)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres.schedule_config.get: %w", err)
	}

	if len(weeklyHours) > 0 {
		if err := json.Unmarshal(weeklyHours, &scheduleConfig.WeeklyHours); err != nil {
			return nil, fmt.Errorf("postgres.schedule_config.weekly_hours: %w", err)
		}
	}
	scheduleConfig.ProviderID = providerID

	return &scheduleConfig, nil
}

func (r *ScheduleRepository) GetAppointments(ctx context.Context, providerID string, from, to time.Time) ([]domain.ExistingAppointment, error) {
	statuses := make([]string, 0, len(domain.ActiveAppointmentStatuses))
	for _, status := range domain.ActiveAppointmentStatuses {
		statuses = append(statuses, string(status))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, start_date_time, duration_minutes, status
		FROM appointments
		WHERE provider_id = $1
		  AND start_date_time >= $2
		  AND start_date_time < $3
		  AND status = ANY($4)
		ORDER BY start_date_time`, providerID, from, to, statuses)
	if err != nil {
		return nil, fmt.Errorf("postgres.appointments.query: %w", err)
	}
	defer rows.Close()

	appointments := make([]domain.ExistingAppointment, 0)
	for rows.Next() {
		var (
			appointment domain.ExistingAppointment
			start       time.Time
			status      string
		)
		if err := rows.Scan(&appointment.ID, &start, &appointment.DurationMinutes, &status); err != nil {
			return nil, fmt.Errorf("postgres.appointments.scan: %w", err)
		}
		appointment.StartDateTime = json_types.DateTime{Date: start}
		appointment.Status = domain.AppointmentStatus(status)
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.appointments.rows: %w", err)
	}

	return appointments, nil
}

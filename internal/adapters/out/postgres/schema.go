package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the tables used by ScheduleRepository and the Postgres
// reservation store. Only one active hold may exist per provider and slot
// start, whatever the location.
const Schema = `
CREATE TABLE IF NOT EXISTS provider_schedules (
    provider_id                  TEXT PRIMARY KEY,
    appointment_duration_minutes INTEGER NOT NULL,
    buffer_minutes               INTEGER NOT NULL DEFAULT 0,
    weekly_hours                 JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at                   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS appointments (
    id               TEXT PRIMARY KEY,
    provider_id      TEXT NOT NULL,
    start_date_time  TIMESTAMPTZ NOT NULL,
    duration_minutes INTEGER NOT NULL DEFAULT 30,
    status           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS appointments_provider_start_idx
    ON appointments (provider_id, start_date_time);

CREATE TABLE IF NOT EXISTS slot_reservations (
    id          UUID PRIMARY KEY,
    provider_id TEXT NOT NULL,
    slot_start  TIMESTAMPTZ NOT NULL,
    location_id TEXT NOT NULL DEFAULT '',
    session_id  TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    expires_at  TIMESTAMPTZ NOT NULL,
    status      TEXT NOT NULL
);

DROP INDEX IF EXISTS slot_reservations_active_slot_uidx;

CREATE UNIQUE INDEX IF NOT EXISTS slot_reservations_active_provider_slot_uidx
    ON slot_reservations (provider_id, slot_start)
    WHERE status = 'active';

CREATE INDEX IF NOT EXISTS slot_reservations_session_idx
    ON slot_reservations (session_id)
    WHERE status = 'active';
`

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres.schema: %w", err)
	}
	return nil
}

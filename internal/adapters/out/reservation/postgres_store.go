package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

const uniqueViolation = "23505"

const reservationCols = `id, provider_id, slot_start, location_id, session_id, created_at, expires_at, status`

// PostgresStore relies on the partial unique index
// slot_reservations_active_provider_slot_uidx to serialize creates per slot.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, r domain.Reservation, now time.Time) (*domain.Reservation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("reservation.postgres.begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Истекшие резервы на этот слот больше не занимают уникальный индекс
	_, err = tx.Exec(ctx, `
		UPDATE slot_reservations SET status = 'expired'
		WHERE provider_id = $1 AND slot_start = $2
		  AND status = 'active' AND expires_at <= $3`,
		r.ProviderID, r.SlotStart, now)
	if err != nil {
		return nil, fmt.Errorf("reservation.postgres.expire: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO slot_reservations (`+reservationCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.ProviderID, r.SlotStart, r.LocationID, r.SessionID, r.CreatedAt, r.ExpiresAt, string(r.Status))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			_ = tx.Rollback(ctx)
			return s.existingHold(ctx, r, now)
		}
		return nil, fmt.Errorf("reservation.postgres.insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("reservation.postgres.commit: %w", err)
	}
	return &r, nil
}

// existingHold returns the same session's hold or ErrSlotHeld.
func (s *PostgresStore) existingHold(ctx context.Context, r domain.Reservation, now time.Time) (*domain.Reservation, error) {
	holder, err := scanReservation(s.pool.QueryRow(ctx, `
		SELECT `+reservationCols+` FROM slot_reservations
		WHERE provider_id = $1 AND slot_start = $2
		  AND status = 'active' AND expires_at > $3`,
		r.ProviderID, r.SlotStart, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSlotHeld
	}
	if err != nil {
		return nil, fmt.Errorf("reservation.postgres.holder: %w", err)
	}
	if holder.SessionID == r.SessionID {
		return holder, nil
	}
	return nil, domain.ErrSlotHeld
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	r, err := scanReservation(s.pool.QueryRow(ctx, `SELECT `+reservationCols+` FROM slot_reservations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reservation.postgres.get: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Extend(ctx context.Context, id uuid.UUID, sessionID string, now, expiresAt time.Time) (*domain.Reservation, error) {
	return s.updateActive(ctx, `expires_at = $4`, id, sessionID, now, expiresAt)
}

func (s *PostgresStore) Transition(ctx context.Context, id uuid.UUID, sessionID string, now time.Time, to domain.ReservationStatus) (*domain.Reservation, error) {
	return s.updateActive(ctx, `status = $4`, id, sessionID, now, string(to))
}

// updateActive меняет только активный и не истекший резерв своей сессии
func (s *PostgresStore) updateActive(ctx context.Context, set string, id uuid.UUID, sessionID string, now time.Time, value interface{}) (*domain.Reservation, error) {
	r, err := scanReservation(s.pool.QueryRow(ctx, `
		UPDATE slot_reservations SET `+set+`
		WHERE id = $1 AND session_id = $2 AND status = 'active' AND expires_at > $3
		RETURNING `+reservationCols,
		id, sessionID, now, value))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reservation.postgres.update: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ActiveForProvider(ctx context.Context, providerID string, from, to, now time.Time) ([]domain.Reservation, error) {
	return s.list(ctx, `
		SELECT `+reservationCols+` FROM slot_reservations
		WHERE provider_id = $1 AND slot_start >= $2 AND slot_start < $3
		  AND status = 'active' AND expires_at > $4
		ORDER BY slot_start`, providerID, from, to, now)
}

func (s *PostgresStore) ActiveForSession(ctx context.Context, sessionID string, now time.Time) ([]domain.Reservation, error) {
	return s.list(ctx, `
		SELECT `+reservationCols+` FROM slot_reservations
		WHERE session_id = $1 AND status = 'active' AND expires_at > $2
		ORDER BY slot_start`, sessionID, now)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...interface{}) ([]domain.Reservation, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reservation.postgres.query: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Reservation, 0)
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("reservation.postgres.scan: %w", err)
		}
		result = append(result, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reservation.postgres.rows: %w", err)
	}
	return result, nil
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var (
		r      domain.Reservation
		status string
	)
	if err := row.Scan(&r.ID, &r.ProviderID, &r.SlotStart, &r.LocationID, &r.SessionID, &r.CreatedAt, &r.ExpiresAt, &status); err != nil {
		return nil, err
	}
	r.Status = domain.ReservationStatus(status)
	return &r, nil
}

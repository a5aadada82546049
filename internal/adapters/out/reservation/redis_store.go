package reservation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

const maxTxRetries = 16

var ErrTooMuchContention = errors.New("reservation.redis: transaction retries exhausted")

// RedisStore shares holds between instances. Every mutation runs in a
// WATCH/MULTI transaction on the slot or record key, so two concurrent
// creates for one slot cannot both commit.
//
// Keys:
//
//	{prefix}:reservation:{id}              JSON record
//	{prefix}:reservation:slot:{slotKey}    id of the latest holder
//	{prefix}:reservation:session:{session} SET of ids
//	{prefix}:reservation:provider:{id}     ZSET of ids scored by slot start
//
// Every key lives for the retention period. Create also trims provider
// index members whose slot started before the retention window.
type RedisStore struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, retention time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		prefix:    prefix,
		retention: retention,
	}
}

func (s *RedisStore) recordKey(id string) string {
	return s.prefix + ":reservation:" + id
}

func (s *RedisStore) slotKey(key domain.SlotKey) string {
	return s.prefix + ":reservation:slot:" + key.String()
}

func (s *RedisStore) sessionKey(sessionID string) string {
	return s.prefix + ":reservation:session:" + sessionID
}

func (s *RedisStore) providerKey(providerID string) string {
	return s.prefix + ":reservation:provider:" + providerID
}

func (s *RedisStore) Create(ctx context.Context, r domain.Reservation, now time.Time) (*domain.Reservation, error) {
	slotKey := s.slotKey(r.Key())
	var result *domain.Reservation

	txf := func(tx *redis.Tx) error {
		result = nil

		var settled *domain.Reservation
		holderID, err := tx.Get(ctx, slotKey).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			holder, err := s.load(ctx, tx, holderID)
			if err != nil && !errors.Is(err, domain.ErrReservationNotFound) {
				return err
			}
			if holder != nil {
				if holder.IsActiveAt(now) {
					if holder.SessionID == r.SessionID {
						result = holder
						return nil
					}
					return domain.ErrSlotHeld
				}
				// Фиксируем ленивое истечение предыдущего резерва
				holder.Status = holder.StatusAt(now)
				settled = holder
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if settled != nil {
				if err := s.writeRecord(ctx, pipe, *settled); err != nil {
					return err
				}
				s.unindex(ctx, pipe, *settled)
			}
			if err := s.writeRecord(ctx, pipe, r); err != nil {
				return err
			}
			pipe.Set(ctx, slotKey, r.ID.String(), s.retention)
			pipe.SAdd(ctx, s.sessionKey(r.SessionID), r.ID.String())
			pipe.Expire(ctx, s.sessionKey(r.SessionID), s.retention)
			providerKey := s.providerKey(r.ProviderID)
			pipe.ZAdd(ctx, providerKey, redis.Z{
				Score:  float64(r.SlotStart.Unix()),
				Member: r.ID.String(),
			})
			// Записи старше срока хранения уже удалены по TTL, их id в индексе не нужны
			pipe.ZRemRangeByScore(ctx, providerKey, "-inf", "("+strconv.FormatInt(now.Add(-s.retention).Unix(), 10))
			pipe.Expire(ctx, providerKey, s.retention)
			return nil
		})
		if err == nil {
			created := r
			result = &created
		}
		return err
	}

	if err := s.watch(ctx, txf, slotKey); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return s.load(ctx, s.client, id.String())
}

func (s *RedisStore) Extend(ctx context.Context, id uuid.UUID, sessionID string, now, expiresAt time.Time) (*domain.Reservation, error) {
	return s.mutate(ctx, id, sessionID, now, func(ctx context.Context, pipe redis.Pipeliner, r *domain.Reservation) error {
		r.ExpiresAt = expiresAt
		if err := s.writeRecord(ctx, pipe, *r); err != nil {
			return err
		}
		// Перезапись ключа слота срывает конкурентный Create, смотрящий на этот слот
		pipe.Set(ctx, s.slotKey(r.Key()), r.ID.String(), s.retention)
		return nil
	})
}

func (s *RedisStore) Transition(ctx context.Context, id uuid.UUID, sessionID string, now time.Time, to domain.ReservationStatus) (*domain.Reservation, error) {
	return s.mutate(ctx, id, sessionID, now, func(ctx context.Context, pipe redis.Pipeliner, r *domain.Reservation) error {
		r.Status = to
		if err := s.writeRecord(ctx, pipe, *r); err != nil {
			return err
		}
		pipe.Del(ctx, s.slotKey(r.Key()))
		s.unindex(ctx, pipe, *r)
		return nil
	})
}

func (s *RedisStore) ActiveForProvider(ctx context.Context, providerID string, from, to, now time.Time) ([]domain.Reservation, error) {
	ids, err := s.client.ZRangeByScore(ctx, s.providerKey(providerID), &redis.ZRangeBy{
		Min: strconv.FormatInt(from.Unix(), 10),
		Max: "(" + strconv.FormatInt(to.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("reservation.redis.provider_index: %w", err)
	}

	reservations, err := s.loadMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if !r.IsActiveAt(now) || r.SlotStart.Before(from) || !r.SlotStart.Before(to) {
			continue
		}
		result = append(result, r)
	}
	sortBySlotStart(result)
	return result, nil
}

func (s *RedisStore) ActiveForSession(ctx context.Context, sessionID string, now time.Time) ([]domain.Reservation, error) {
	ids, err := s.client.SMembers(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("reservation.redis.session_index: %w", err)
	}

	reservations, err := s.loadMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r.SessionID == sessionID && r.IsActiveAt(now) {
			result = append(result, r)
		}
	}
	sortBySlotStart(result)
	return result, nil
}

type mutation func(ctx context.Context, pipe redis.Pipeliner, r *domain.Reservation) error

// mutate применяет изменение к активному резерву, принадлежащему сессии
func (s *RedisStore) mutate(ctx context.Context, id uuid.UUID, sessionID string, now time.Time, apply mutation) (*domain.Reservation, error) {
	recordKey := s.recordKey(id.String())
	var result *domain.Reservation

	txf := func(tx *redis.Tx) error {
		result = nil

		r, err := s.load(ctx, tx, id.String())
		if err != nil {
			return err
		}
		if !r.OwnedBy(sessionID) || !r.IsActiveAt(now) {
			return domain.ErrReservationNotFound
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return apply(ctx, pipe, r)
		})
		if err == nil {
			result = r
		}
		return err
	}

	if err := s.watch(ctx, txf, recordKey); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RedisStore) watch(ctx context.Context, txf func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrTooMuchContention
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) load(ctx context.Context, client stringGetter, id string) (*domain.Reservation, error) {
	data, err := client.Get(ctx, s.recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reservation.redis.get: %w", err)
	}

	var r domain.Reservation
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("reservation.redis.decode: %w", err)
	}
	return &r, nil
}

func (s *RedisStore) loadMany(ctx context.Context, ids []string) ([]domain.Reservation, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.recordKey(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("reservation.redis.mget: %w", err)
	}

	result := make([]domain.Reservation, 0, len(values))
	for _, value := range values {
		// Запись могла истечь по TTL хранения
		str, ok := value.(string)
		if !ok {
			continue
		}
		var r domain.Reservation
		if err := json.Unmarshal([]byte(str), &r); err != nil {
			return nil, fmt.Errorf("reservation.redis.decode: %w", err)
		}
		result = append(result, r)
	}
	return result, nil
}

func (s *RedisStore) writeRecord(ctx context.Context, pipe redis.Pipeliner, r domain.Reservation) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("reservation.redis.encode: %w", err)
	}
	pipe.Set(ctx, s.recordKey(r.ID.String()), data, s.retention)
	return nil
}

func (s *RedisStore) unindex(ctx context.Context, pipe redis.Pipeliner, r domain.Reservation) {
	pipe.SRem(ctx, s.sessionKey(r.SessionID), r.ID.String())
	pipe.ZRem(ctx, s.providerKey(r.ProviderID), r.ID.String())
}

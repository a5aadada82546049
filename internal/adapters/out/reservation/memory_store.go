package reservation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

// MemoryStore keeps reservations in process. A single mutex serializes all
// mutations, which covers the per-slot requirement.
type MemoryStore struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]domain.Reservation
	bySlot map[string]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[uuid.UUID]domain.Reservation),
		bySlot: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Create(ctx context.Context, r domain.Reservation, now time.Time) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := r.Key().String()
	if holderID, exists := s.bySlot[key]; exists {
		holder := s.byID[holderID]
		if holder.IsActiveAt(now) {
			if holder.SessionID == r.SessionID {
				return &holder, nil
			}
			return nil, domain.ErrSlotHeld
		}
		// Истекший резерв освобождает слот
		s.settle(holder, now)
	}

	s.byID[r.ID] = r
	s.bySlot[key] = r.ID
	return &r, nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.byID[id]
	if !exists {
		return nil, domain.ErrReservationNotFound
	}
	return &r, nil
}

func (s *MemoryStore) Extend(ctx context.Context, id uuid.UUID, sessionID string, now, expiresAt time.Time) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.activeOwned(id, sessionID, now)
	if err != nil {
		return nil, err
	}
	r.ExpiresAt = expiresAt
	s.byID[id] = r
	return &r, nil
}

func (s *MemoryStore) Transition(ctx context.Context, id uuid.UUID, sessionID string, now time.Time, to domain.ReservationStatus) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.activeOwned(id, sessionID, now)
	if err != nil {
		return nil, err
	}
	r.Status = to
	s.byID[id] = r
	if s.bySlot[r.Key().String()] == id {
		delete(s.bySlot, r.Key().String())
	}
	return &r, nil
}

func (s *MemoryStore) ActiveForProvider(ctx context.Context, providerID string, from, to, now time.Time) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.Reservation, 0)
	for _, id := range s.bySlot {
		r := s.byID[id]
		if r.ProviderID != providerID || !r.IsActiveAt(now) {
			continue
		}
		if r.SlotStart.Before(from) || !r.SlotStart.Before(to) {
			continue
		}
		result = append(result, r)
	}
	sortBySlotStart(result)
	return result, nil
}

func (s *MemoryStore) ActiveForSession(ctx context.Context, sessionID string, now time.Time) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.Reservation, 0)
	for _, id := range s.bySlot {
		r := s.byID[id]
		if r.SessionID == sessionID && r.IsActiveAt(now) {
			result = append(result, r)
		}
	}
	sortBySlotStart(result)
	return result, nil
}

func (s *MemoryStore) activeOwned(id uuid.UUID, sessionID string, now time.Time) (domain.Reservation, error) {
	r, exists := s.byID[id]
	if !exists || !r.OwnedBy(sessionID) {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	if !r.IsActiveAt(now) {
		s.settle(r, now)
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return r, nil
}

// settle фиксирует ленивое истечение и освобождает слот
func (s *MemoryStore) settle(r domain.Reservation, now time.Time) {
	r.Status = r.StatusAt(now)
	s.byID[r.ID] = r
	if r.Status.Terminal() && s.bySlot[r.Key().String()] == r.ID {
		delete(s.bySlot, r.Key().String())
	}
}

func sortBySlotStart(reservations []domain.Reservation) {
	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].SlotStart.Before(reservations[j].SlotStart)
	})
}

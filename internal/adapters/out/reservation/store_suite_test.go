package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

const testHold = 15 * time.Minute

var (
	suiteNow  = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	suiteSlot = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
)

func newHold(providerID, sessionID string, slotStart, now time.Time) domain.Reservation {
	return domain.Reservation{
		ID:         uuid.New(),
		ProviderID: providerID,
		SlotStart:  slotStart,
		LocationID: "loc-1",
		SessionID:  sessionID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(testHold),
		Status:     domain.ReservationStatusActive,
	}
}

// runStoreSuite checks the behaviour every ReservationStorePort must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) out.ReservationStorePort) {
	t.Run("second session is rejected while hold is active", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		first, err := store.Create(ctx, newHold("p-1", "s-1", suiteSlot, suiteNow), suiteNow)
		if err != nil {
			t.Fatalf("first create: %v", err)
		}

		_, err = store.Create(ctx, newHold("p-1", "s-2", suiteSlot, suiteNow), suiteNow.Add(time.Minute))
		if !errors.Is(err, domain.ErrSlotHeld) {
			t.Fatalf("expected ErrSlotHeld, got %v", err)
		}

		again, err := store.Create(ctx, newHold("p-1", "s-1", suiteSlot, suiteNow), suiteNow.Add(time.Minute))
		if err != nil {
			t.Fatalf("same session create: %v", err)
		}
		if again.ID != first.ID {
			t.Fatalf("same session should get its hold back, got %s want %s", again.ID, first.ID)
		}
	})

	t.Run("location does not split a provider slot", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		if _, err := store.Create(ctx, newHold("p-1", "s-1", suiteSlot, suiteNow), suiteNow); err != nil {
			t.Fatalf("first create: %v", err)
		}

		elsewhere := newHold("p-1", "s-2", suiteSlot, suiteNow)
		elsewhere.LocationID = "loc-2"
		if _, err := store.Create(ctx, elsewhere, suiteNow); !errors.Is(err, domain.ErrSlotHeld) {
			t.Fatalf("expected ErrSlotHeld for another location, got %v", err)
		}

		otherProvider := newHold("p-2", "s-2", suiteSlot, suiteNow)
		otherProvider.LocationID = "loc-2"
		if _, err := store.Create(ctx, otherProvider, suiteNow); err != nil {
			t.Fatalf("another provider at the same time: %v", err)
		}
	})

	t.Run("expired hold frees the slot", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		first, err := store.Create(ctx, newHold("p-1", "s-1", suiteSlot, suiteNow), suiteNow)
		if err != nil {
			t.Fatalf("first create: %v", err)
		}

		later := suiteNow.Add(testHold)
		second, err := store.Create(ctx, newHold("p-1", "s-2", suiteSlot, later), later)
		if err != nil {
			t.Fatalf("create after expiry: %v", err)
		}
		if second.SessionID != "s-2" {
			t.Fatalf("expected new holder s-2, got %s", second.SessionID)
		}

		old, err := store.Get(ctx, first.ID)
		if err != nil {
			t.Fatalf("get old: %v", err)
		}
		if old.StatusAt(later) != domain.ReservationStatusExpired {
			t.Fatalf("old hold should read as expired, got %s", old.StatusAt(later))
		}
	})

	t.Run("extend requires owner and active hold", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		r, err := store.Create(ctx, newHold("p-1", "s-1", suiteSlot, suiteNow), suiteNow)
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		at := suiteNow.Add(5 * time.Minute)
		if _, err := store.Extend(ctx, r.ID, "s-2", at, at.Add(testHold)); !errors.Is(err, domain.ErrReservationNotFound) {
			t.Fatalf("foreign session extend: expected ErrReservationNotFound, got %v", err)
		}

		extended, err := store.Extend(ctx, r.ID, "s-1", at, at.Add(testHold))
		if err != nil {
			t.Fatalf("extend: %v", err)
		}
		if !extended.ExpiresAt.Equal(at.Add(testHold)) {
			t.Fatalf("expiresAt = %s, want %s", extended.ExpiresAt, at.Add(testHold))
		}

		tooLate := at.Add(testHold)
		if _, err := store.Extend(ctx, r.ID, "s-1", tooLate, tooLate.Add(testHold)); !errors.Is(err, domain.ErrReservationNotFound) {
			t.Fatalf("extend after expiry: expected ErrReservationNotFound, got %v", err)
		}
	})

	t.Run("transition is terminal and frees the slot", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		r, err := store.Create(ctx, newHold("p-1", "s-1", suiteSlot, suiteNow), suiteNow)
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		released, err := store.Transition(ctx, r.ID, "s-1", suiteNow, domain.ReservationStatusReleased)
		if err != nil {
			t.Fatalf("release: %v", err)
		}
		if released.Status != domain.ReservationStatusReleased {
			t.Fatalf("status = %s", released.Status)
		}

		if _, err := store.Transition(ctx, r.ID, "s-1", suiteNow, domain.ReservationStatusCommitted); !errors.Is(err, domain.ErrReservationNotFound) {
			t.Fatalf("commit after release: expected ErrReservationNotFound, got %v", err)
		}

		if _, err := store.Create(ctx, newHold("p-1", "s-2", suiteSlot, suiteNow), suiteNow); err != nil {
			t.Fatalf("create after release: %v", err)
		}
	})

	t.Run("active listings", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		dayStart := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.Add(24 * time.Hour)

		holds := []domain.Reservation{
			newHold("p-1", "s-1", dayStart.Add(11*time.Hour), suiteNow),
			newHold("p-1", "s-1", dayStart.Add(10*time.Hour), suiteNow),
			newHold("p-1", "s-2", dayStart.Add(26*time.Hour), suiteNow),
			newHold("p-2", "s-1", dayStart.Add(10*time.Hour), suiteNow),
		}
		for _, h := range holds {
			if _, err := store.Create(ctx, h, suiteNow); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		if _, err := store.Transition(ctx, holds[0].ID, "s-1", suiteNow, domain.ReservationStatusReleased); err != nil {
			t.Fatalf("release: %v", err)
		}

		provider, err := store.ActiveForProvider(ctx, "p-1", dayStart, dayEnd, suiteNow)
		if err != nil {
			t.Fatalf("active for provider: %v", err)
		}
		if len(provider) != 1 || provider[0].ID != holds[1].ID {
			t.Fatalf("unexpected provider holds: %+v", provider)
		}

		session, err := store.ActiveForSession(ctx, "s-1", suiteNow)
		if err != nil {
			t.Fatalf("active for session: %v", err)
		}
		if len(session) != 2 {
			t.Fatalf("expected 2 session holds, got %d", len(session))
		}

		expired, err := store.ActiveForSession(ctx, "s-1", suiteNow.Add(testHold))
		if err != nil {
			t.Fatalf("active for session after expiry: %v", err)
		}
		if len(expired) != 0 {
			t.Fatalf("expected no active holds after expiry, got %d", len(expired))
		}
	})

	t.Run("concurrent creates on one slot", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		const contenders = 16
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners int
			held    int
			other   []error
		)

		for i := 0; i < contenders; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := store.Create(ctx, newHold("p-1", fmt.Sprintf("s-%d", i), suiteSlot, suiteNow), suiteNow)

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					winners++
				case errors.Is(err, domain.ErrSlotHeld):
					held++
				default:
					other = append(other, err)
				}
			}(i)
		}
		wg.Wait()

		if len(other) > 0 {
			t.Fatalf("unexpected errors: %v", other)
		}
		if winners != 1 || held != contenders-1 {
			t.Fatalf("winners = %d, held = %d", winners, held)
		}
	})
}

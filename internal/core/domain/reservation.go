package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusExpired   ReservationStatus = "expired"
	ReservationStatusReleased  ReservationStatus = "released"
	ReservationStatusCommitted ReservationStatus = "committed"
)

func (s ReservationStatus) Terminal() bool {
	return s != ReservationStatusActive
}

// SlotKey identifies the slot a hold is placed on. A provider cannot be in
// two places at once, so the location is not part of it.
type SlotKey struct {
	ProviderID string
	SlotStart  time.Time
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s|%s", k.ProviderID, k.SlotStart.UTC().Format(time.RFC3339))
}

type Reservation struct {
	ID         uuid.UUID         `json:"id"`
	ProviderID string            `json:"providerId"`
	SlotStart  time.Time         `json:"slotStart"`
	LocationID string            `json:"locationId,omitempty"`
	SessionID  string            `json:"sessionId"`
	CreatedAt  time.Time         `json:"createdAt"`
	ExpiresAt  time.Time         `json:"expiresAt"`
	Status     ReservationStatus `json:"status"`
}

func (r Reservation) Key() SlotKey {
	return SlotKey{ProviderID: r.ProviderID, SlotStart: r.SlotStart}
}

// StatusAt resolves lazy expiry: an active hold past its deadline is expired.
func (r Reservation) StatusAt(now time.Time) ReservationStatus {
	if r.Status == ReservationStatusActive && !now.Before(r.ExpiresAt) {
		return ReservationStatusExpired
	}
	return r.Status
}

func (r Reservation) IsActiveAt(now time.Time) bool {
	return r.StatusAt(now) == ReservationStatusActive
}

func (r Reservation) OwnedBy(sessionID string) bool {
	return sessionID != "" && r.SessionID == sessionID
}

type ReservationRequest struct {
	ProviderID string
	SlotStart  time.Time
	LocationID string
	SessionID  string
}

func (r ReservationRequest) Validate() error {
	switch {
	case r.ProviderID == "":
		return fmt.Errorf("%w: providerId is required", ErrInvalidReservationRequest)
	case r.SessionID == "":
		return fmt.Errorf("%w: sessionId is required", ErrInvalidReservationRequest)
	case r.SlotStart.IsZero():
		return fmt.Errorf("%w: slotStart is required", ErrInvalidReservationRequest)
	}
	return nil
}

type ReservationEventType string

const (
	ReservationEventCreated   ReservationEventType = "created"
	ReservationEventExtended  ReservationEventType = "extended"
	ReservationEventReleased  ReservationEventType = "released"
	ReservationEventCommitted ReservationEventType = "committed"
)

type ReservationEvent struct {
	Type        ReservationEventType `json:"type"`
	Reservation Reservation          `json:"reservation"`
	OccurredAt  time.Time            `json:"occurredAt"`
}

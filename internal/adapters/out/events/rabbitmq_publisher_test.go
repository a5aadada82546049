package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

func TestBuildPublishing(t *testing.T) {
	id := uuid.New()
	occurredAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	event := domain.ReservationEvent{
		Type: domain.ReservationEventCommitted,
		Reservation: domain.Reservation{
			ID:         id,
			ProviderID: "doc-1",
			SlotStart:  occurredAt.Add(time.Hour),
			SessionID:  "s1",
			Status:     domain.ReservationStatusCommitted,
		},
		OccurredAt: occurredAt,
	}

	routingKey, msg, err := buildPublishing(event)
	if err != nil {
		t.Fatalf("buildPublishing: %v", err)
	}

	if routingKey != "reservation.committed" {
		t.Errorf("routing key = %q", routingKey)
	}
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent {
		t.Errorf("unexpected headers: %+v", msg)
	}
	if !msg.Timestamp.Equal(occurredAt) {
		t.Errorf("timestamp = %v, want %v", msg.Timestamp, occurredAt)
	}
	if msg.MessageId != id.String()+".committed" {
		t.Errorf("message id = %q", msg.MessageId)
	}

	var decoded domain.ReservationEvent
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("body is not json: %v", err)
	}
	if decoded.Reservation.ID != id || decoded.Type != domain.ReservationEventCommitted {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestRoutingKeyPerEventType(t *testing.T) {
	cases := map[domain.ReservationEventType]string{
		domain.ReservationEventCreated:   "reservation.created",
		domain.ReservationEventExtended:  "reservation.extended",
		domain.ReservationEventReleased:  "reservation.released",
		domain.ReservationEventCommitted: "reservation.committed",
	}
	for eventType, want := range cases {
		if got := routingKeyFor(eventType); got != want {
			t.Errorf("routingKeyFor(%s) = %q, want %q", eventType, got, want)
		}
	}
}

func TestNoopPublisher(t *testing.T) {
	if err := NewNoopPublisher().Publish(context.Background(), domain.ReservationEvent{}); err != nil {
		t.Fatalf("noop publish: %v", err)
	}
}

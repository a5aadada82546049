package events

import (
	"context"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

// NoopPublisher используется, когда RabbitMQ выключен.
type NoopPublisher struct{}

func NewNoopPublisher() NoopPublisher {
	return NoopPublisher{}
}

func (NoopPublisher) Publish(context.Context, domain.ReservationEvent) error {
	return nil
}

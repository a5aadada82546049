package out

import (
	"context"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

type EventPublisherPort interface {
	Publish(ctx context.Context, event domain.ReservationEvent) error
}

package rabbitmq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

func (l *InvalidationListener) processAllMessage(ctx context.Context, msg amqp.Delivery) error {
	routingKey, err := ParseRoutingKey(msg.RoutingKey)
	if err != nil {
		return err
	}

	if routingKey.ResourceType != ResourceTypeAll || routingKey.Action != ActionInvalidate {
		return nil
	}

	invalidateCtx, cancel := context.WithTimeout(ctx, invalidateLimit)
	defer cancel()

	if err := l.useCase.InvalidateAll(invalidateCtx); err != nil {
		l.logger.Error("_all_.invalidate.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil
	}

	l.logger.Info("_all_.message.invalidated", out.LogFields{
		"availability_cache":    true,
		"schedule_config_cache": true,
	})
	return nil
}

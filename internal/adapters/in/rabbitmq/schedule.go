package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

type ScheduleMessage struct {
	ProviderID string `json:"providerId"`
}

func (l *InvalidationListener) processScheduleMessage(ctx context.Context, msg amqp.Delivery) error {
	routingKey, err := ParseRoutingKey(msg.RoutingKey)
	if err != nil {
		return fmt.Errorf("failed to parse routing key: %w", err)
	}

	if routingKey.ResourceType != ResourceTypeSchedule {
		l.logger.Debug("rabbitmq.message.skipped", out.LogFields{
			"expected": string(ResourceTypeSchedule),
			"actual":   string(routingKey.ResourceType),
		})
		return nil
	}

	var body ScheduleMessage
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if body.ProviderID == "" {
		return fmt.Errorf("schedule message has no providerId")
	}

	if routingKey.Action != ActionInvalidate && routingKey.Action != ActionStore {
		return nil
	}

	invalidateCtx, cancel := context.WithTimeout(ctx, invalidateLimit)
	defer cancel()

	// Сбрасываем и само расписание, и посчитанную по нему доступность
	if err := l.useCase.InvalidateScheduleConfig(invalidateCtx, body.ProviderID); err != nil {
		l.logger.Error("schedule.invalidate_schedule_config.failed", out.LogFields{
			"provider_id": body.ProviderID,
			"error":       err.Error(),
		})
		return nil
	}

	l.logger.Info("schedule.message.invalidated", out.LogFields{
		"provider_id": body.ProviderID,
	})
	return nil
}

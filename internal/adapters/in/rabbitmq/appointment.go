package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

type AppointmentMessage struct {
	ID         string `json:"id"`
	ProviderID string `json:"providerId"`
}

func (l *InvalidationListener) processAppointmentMessage(ctx context.Context, msg amqp.Delivery) error {
	routingKey, err := ParseRoutingKey(msg.RoutingKey)
	if err != nil {
		return err
	}

	if routingKey.ResourceType != ResourceTypeAppointment {
		return nil
	}

	var body AppointmentMessage
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if body.ProviderID == "" {
		return fmt.Errorf("appointment message %q has no providerId", body.ID)
	}

	// Новая, измененная или отмененная запись одинаково меняет доступность врача
	switch routingKey.Action {
	case ActionStore, ActionInvalidate:
	default:
		l.logger.Debug("appointment.message.skipped", out.LogFields{
			"action": string(routingKey.Action),
		})
		return nil
	}

	invalidateCtx, cancel := context.WithTimeout(ctx, invalidateLimit)
	defer cancel()

	if err := l.useCase.InvalidateProvider(invalidateCtx, body.ProviderID); err != nil {
		l.logger.Error("appointment.invalidate_availability.failed", out.LogFields{
			"provider_id": body.ProviderID,
			"error":       err.Error(),
		})
		return nil
	}

	l.logger.Info("appointment.message.invalidated", out.LogFields{
		"appointment_id": body.ID,
		"provider_id":    body.ProviderID,
	})
	return nil
}

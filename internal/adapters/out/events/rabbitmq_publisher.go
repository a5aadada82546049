package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

const routingKeyPrefix = "reservation"

// RabbitMQPublisher публикует события жизненного цикла брони в topic exchange.
type RabbitMQPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   out.LoggerPort
}

func NewRabbitMQPublisher(cfg *config.Config, logger out.LoggerPort) (*RabbitMQPublisher, error) {
	logger = logger.WithModule("RabbitMQPublisher")

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Error("events.rabbitmq.connect_failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		logger.Error("events.rabbitmq.channel_failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	exchange := cfg.RabbitMQ.EventsExchange
	err = channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	logger.Info("events.rabbitmq.ready", out.LogFields{
		"exchange": exchange,
	})

	return &RabbitMQPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event domain.ReservationEvent) error {
	routingKey, msg, err := buildPublishing(event)
	if err != nil {
		return err
	}

	// amqp.Channel нельзя использовать из нескольких горутин одновременно
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("events.publish %s: %w", routingKey, err)
	}

	p.logger.Debug("events.rabbitmq.published", out.LogFields{
		"routingKey":    routingKey,
		"reservationId": event.Reservation.ID.String(),
	})
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p == nil || p.channel == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}

func routingKeyFor(eventType domain.ReservationEventType) string {
	return routingKeyPrefix + "." + string(eventType)
}

func buildPublishing(event domain.ReservationEvent) (string, amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return "", amqp.Publishing{}, fmt.Errorf("events.marshal: %w", err)
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return routingKeyFor(event.Type), amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    fmt.Sprintf("%s.%s", event.Reservation.ID, event.Type),
		Timestamp:    occurredAt,
		Type:         string(event.Type),
		Body:         body,
	}, nil
}

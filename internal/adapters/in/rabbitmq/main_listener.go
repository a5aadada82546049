package rabbitmq

import (
	"context"
	"fmt"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/in"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

// InvalidationListener слушает изменения записей и расписаний во внешней системе
// и сбрасывает соответствующий кэш доступности.
type InvalidationListener struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	useCase in.AvailabilityUseCase
	cfg     *config.Config
	logger  out.LoggerPort

	closeOnce  sync.Once
	consumerWg sync.WaitGroup
}

type (
	Action       string
	ResourceType string
)

type RoutingKey struct {
	Source       string
	Receiver     string
	ResourceType ResourceType
	Action       Action
}

const (
	ResourceTypeAll         ResourceType = "_all_"
	ResourceTypeSchedule    ResourceType = "schedule"
	ResourceTypeAppointment ResourceType = "appointment"
)

const (
	ActionStore      Action = "store"
	ActionInvalidate Action = "invalidate"
)

func NewInvalidationListener(useCase in.AvailabilityUseCase, cfg *config.Config, logger out.LoggerPort) (*InvalidationListener, error) {
	logger = logger.WithModule("InvalidationListener")

	if !cfg.RabbitMQ.Enabled {
		logger.Info("rabbitmq.disabled", out.LogFields{
			"message": "RabbitMQ is disabled, listener will not be started",
		})
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Error("rabbitmq.connect.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		logger.Error("rabbitmq.channel.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	return &InvalidationListener{
		conn:    conn,
		channel: channel,
		useCase: useCase,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

func (l *InvalidationListener) Start(ctx context.Context) error {
	queues := []queueRoute{
		{
			name:    l.cfg.RabbitMQ.AppointmentQueue,
			binding: l.cfg.RabbitMQ.AppointmentBind,
			handle:  l.processAppointmentMessage,
		},
		{
			name:    l.cfg.RabbitMQ.ScheduleQueue,
			binding: l.cfg.RabbitMQ.ScheduleBind,
			handle:  l.processScheduleMessage,
		},
		{
			name:    l.cfg.RabbitMQ.AllQueue,
			binding: l.cfg.RabbitMQ.AllBind,
			handle:  l.processAllMessage,
		},
	}

	for _, route := range queues {
		if err := l.startQueue(ctx, route); err != nil {
			return err
		}
	}

	return nil
}

func (l *InvalidationListener) Stop() error {
	if l == nil || l.channel == nil {
		return nil
	}

	var err error
	l.closeOnce.Do(func() {
		if err = l.channel.Close(); err != nil {
			return
		}
		err = l.conn.Close()
	})
	l.consumerWg.Wait()
	return err
}

func (l *InvalidationListener) closeConnection(reason string) {
	l.logger.Warn("rabbitmq.connection.closing", out.LogFields{
		"reason": reason,
	})
	l.closeOnce.Do(func() {
		l.channel.Close()
		l.conn.Close()
	})
}

// Пример routingKey:
// ehr.availability-engine.appointment.store
// ehr.availability-engine.schedule.invalidate
// ehr.availability-engine._all_.invalidate
func ParseRoutingKey(routingKey string) (RoutingKey, error) {
	parts := strings.Split(routingKey, ".")

	if len(parts) < 4 {
		return RoutingKey{}, fmt.Errorf("invalid routing key: %s", routingKey)
	}

	return RoutingKey{
		Source:       parts[0],
		Receiver:     parts[1],
		ResourceType: ResourceType(parts[2]),
		Action:       Action(parts[len(parts)-1]),
	}, nil
}

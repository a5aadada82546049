package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

const (
	setupAttempts   = 3
	setupRetryDelay = 500 * time.Millisecond
	invalidateLimit = 10 * time.Second
)

type queueRoute struct {
	name    string
	binding string
	handle  func(ctx context.Context, msg amqp.Delivery) error
}

// retry повторяет шаг настройки, при исчерпании попыток закрывает соединение
func (l *InvalidationListener) retry(step string, fields out.LogFields, fn func() error) error {
	var err error
	for attempt := 1; attempt <= setupAttempts; attempt++ {
		if err = fn(); err == nil {
			l.logger.Info("rabbitmq."+step+".success", fields)
			return nil
		}

		retryFields := out.LogFields{"attempt": attempt, "error": err.Error()}
		for k, v := range fields {
			retryFields[k] = v
		}
		l.logger.Warn("rabbitmq."+step+".retry", retryFields)

		if attempt < setupAttempts {
			time.Sleep(setupRetryDelay)
		}
	}

	l.closeConnection(fmt.Sprintf("%s failed: %s", step, err.Error()))
	return fmt.Errorf("rabbitmq.%s: %w", step, err)
}

func (l *InvalidationListener) startQueue(ctx context.Context, route queueRoute) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	exchangeName := l.cfg.RabbitMQ.Exchange

	err := l.retry("exchange_declare", out.LogFields{"exchange": exchangeName}, func() error {
		return l.channel.ExchangeDeclare(
			exchangeName,
			"topic",
			true,  // durable
			false, // auto-delete
			false, // internal
			false, // no-wait
			nil,
		)
	})
	if err != nil {
		return err
	}

	var queue amqp.Queue
	err = l.retry("queue_declare", out.LogFields{"queue": route.name}, func() error {
		var declareErr error
		queue, declareErr = l.channel.QueueDeclare(
			route.name,
			true,  // durable
			true,  // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		return declareErr
	})
	if err != nil {
		return err
	}

	err = l.retry("queue_bind", out.LogFields{"queue": queue.Name, "binding": route.binding, "exchange": exchangeName}, func() error {
		return l.channel.QueueBind(queue.Name, route.binding, exchangeName, false, nil)
	})
	if err != nil {
		return err
	}

	var msgs <-chan amqp.Delivery
	consumerID := fmt.Sprintf("consumer-%s-%d", queue.Name, time.Now().UnixNano())
	err = l.retry("consume", out.LogFields{"queue": queue.Name, "consumerID": consumerID}, func() error {
		var consumeErr error
		msgs, consumeErr = l.channel.Consume(
			queue.Name,
			consumerID,
			false, // auto-ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		return consumeErr
	})
	if err != nil {
		return err
	}

	l.logger.Info("rabbitmq.queue.started", out.LogFields{
		"queue":    queue.Name,
		"binding":  route.binding,
		"exchange": exchangeName,
	})

	l.consumerWg.Add(1)
	go func() {
		defer l.consumerWg.Done()
		l.consume(ctx, queue.Name, msgs, route.handle)
	}()

	return nil
}

func (l *InvalidationListener) consume(ctx context.Context, queueName string, msgs <-chan amqp.Delivery, handle func(context.Context, amqp.Delivery) error) {
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("rabbitmq.consumer.stopping_by_context", out.LogFields{
				"queue": queueName,
			})
			return
		case msg, ok := <-msgs:
			if !ok {
				l.logger.Warn("rabbitmq.consumer.channel_closed", out.LogFields{
					"queue": queueName,
				})
				return
			}

			l.logger.Debug("rabbitmq.message.received", out.LogFields{
				"queue":      queueName,
				"routingKey": msg.RoutingKey,
				"messageId":  msg.MessageId,
			})

			if err := handle(ctx, msg); err != nil {
				l.logger.Error("rabbitmq.process_message.failed", out.LogFields{
					"queue":      queueName,
					"routingKey": msg.RoutingKey,
					"error":      err.Error(),
				})

				// Битое сообщение в очередь не возвращаем
				if err := msg.Nack(false, false); err != nil {
					l.logger.Error("rabbitmq.message.nack_failed", out.LogFields{
						"error": err.Error(),
					})
				}
				continue
			}

			if err := msg.Ack(false); err != nil {
				l.logger.Error("rabbitmq.message.ack_failed", out.LogFields{
					"error": err.Error(),
				})
			}
		}
	}
}

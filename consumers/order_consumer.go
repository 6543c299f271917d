package consumers

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"mach-lagbe/config"
	"mach-lagbe/middlewares"
	"mach-lagbe/models"
	"mach-lagbe/services"
)

// OrderConsumer drains the order queue into a sink, normally the websocket
// feed, and logs whatever lands in the dead letter queue.
type OrderConsumer struct {
	ch   *amqp.Channel
	cfg  *config.Config
	sink services.IEventPublisher
	log  logrus.FieldLogger
}

func NewOrderConsumer(ch *amqp.Channel, cfg *config.Config, sink services.IEventPublisher, log logrus.FieldLogger) *OrderConsumer {
	return &OrderConsumer{ch: ch, cfg: cfg, sink: sink, log: log}
}

// Start registers both consumers and returns once they are running. They stop
// when ctx is cancelled or the channel closes.
func (oc *OrderConsumer) Start(ctx context.Context) error {
	msgs, err := oc.ch.Consume(
		oc.cfg.OrderQueue,
		"mach-lagbe", // consumer tag
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register order consumer: %w", err)
	}

	dlqMsgs, err := oc.ch.Consume(
		oc.cfg.DeadLetterQueue,
		"mach-lagbe-dlq", // consumer tag
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register dead letter consumer: %w", err)
	}

	go oc.loop(ctx, msgs, oc.processOrderMessage)
	go oc.loop(ctx, dlqMsgs, oc.processDeadLetterMessage)
	return nil
}

func (oc *OrderConsumer) loop(ctx context.Context, msgs <-chan amqp.Delivery, handle func(context.Context, amqp.Delivery)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			handle(ctx, msg)
		}
	}
}

func (oc *OrderConsumer) reject(msg amqp.Delivery, eventType string) {
	middlewares.RecordConsumedEvent(eventType, false)
	if err := msg.Nack(false, false); err != nil {
		oc.log.WithError(err).Warn("Failed to nack order event")
	}
}

// processOrderMessage acks handled events. Anything it cannot decode or
// deliver is nacked without requeue so it moves to the dead letter queue.
func (oc *OrderConsumer) processOrderMessage(ctx context.Context, msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			oc.log.WithField("panic", r).Error("Recovered from panic in order event processing")
			oc.reject(msg, "panic")
		}
	}()

	var event models.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.Type == "" {
		oc.log.WithField("body", string(msg.Body)).Warn("Invalid order event")
		oc.reject(msg, "invalid")
		return
	}

	entry := oc.log.WithFields(logrus.Fields{
		"event":    event.Type,
		"order_id": event.OrderID,
		"user_id":  event.UserID,
	})

	switch event.Type {
	case models.OrderEventCreated, models.OrderEventStatusUpdated,
		models.OrderEventDeleted, models.OrderEventBulkDeleted:
	default:
		entry.Warn("Unknown order event type")
		middlewares.RecordConsumedEvent(string(event.Type), false)
		_ = msg.Ack(false)
		return
	}

	if event.Type == models.OrderEventStatusUpdated && event.Status == models.OrderStatusCancelled {
		entry.Info("Order cancelled")
	}

	if err := oc.sink.PublishOrderEvent(ctx, event); err != nil {
		entry.WithError(err).Error("Failed to forward order event")
		oc.reject(msg, string(event.Type))
		return
	}

	entry.Debug("Order event processed")
	middlewares.RecordConsumedEvent(string(event.Type), true)
	if err := msg.Ack(false); err != nil {
		entry.WithError(err).Warn("Failed to ack order event")
	}
}

func (oc *OrderConsumer) processDeadLetterMessage(_ context.Context, msg amqp.Delivery) {
	fields := logrus.Fields{
		"message_id": msg.MessageId,
		"type":       msg.Type,
		"body":       string(msg.Body),
	}
	if deaths, ok := msg.Headers["x-death"]; ok {
		fields["x_death"] = deaths
	}
	oc.log.WithFields(fields).Warn("Received dead letter")
	if err := msg.Ack(false); err != nil {
		oc.log.WithError(err).Warn("Failed to ack dead letter")
	}
}

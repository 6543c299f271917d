package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"mach-lagbe/config"
	"mach-lagbe/models"
)

const (
	ContentType      = "application/json"
	routingKeyPrefix = "order."
	bindingKey       = "order.#"
)

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Cfg     *config.Config
	log     logrus.FieldLogger
}

func NewRabbitMQ(cfg *config.Config, log logrus.FieldLogger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQ{
		Conn:    conn,
		Channel: ch,
		Cfg:     cfg,
		log:     log,
	}, nil
}

// DeadLetterExchange names the exchange rejected order events are routed to.
func DeadLetterExchange(cfg *config.Config) string {
	return cfg.DeadLetterQueue + "_exchange"
}

// OrderQueueArgs configures the order queue with priorities and dead-lettering.
func OrderQueueArgs(cfg *config.Config) amqp.Table {
	return amqp.Table{
		"x-max-priority":            cfg.MaxPriority,
		"x-dead-letter-exchange":    DeadLetterExchange(cfg),
		"x-dead-letter-routing-key": cfg.DeadLetterQueue,
	}
}

func (r *RabbitMQ) SetupQueues() error {
	if err := r.Channel.ExchangeDeclare(
		DeadLetterExchange(r.Cfg),
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-type": "classic"},
	); err != nil {
		return err
	}

	if err := r.Channel.QueueBind(
		r.Cfg.DeadLetterQueue,
		r.Cfg.DeadLetterQueue,
		DeadLetterExchange(r.Cfg),
		false,
		nil,
	); err != nil {
		return err
	}

	if err := r.Channel.ExchangeDeclare(
		r.Cfg.OrderExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.OrderQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		OrderQueueArgs(r.Cfg),
	); err != nil {
		return err
	}

	return r.Channel.QueueBind(
		r.Cfg.OrderQueue,
		bindingKey,
		r.Cfg.OrderExchange,
		false,
		nil,
	)
}

// RoutingKey is order.<event type>, e.g. order.status_updated.
func RoutingKey(eventType models.OrderEventType) string {
	return routingKeyPrefix + string(eventType)
}

// Priority ranks events for the dashboard. Cancellations jump the queue.
func Priority(event models.OrderEvent, maxPriority int) uint8 {
	var p int
	switch {
	case event.Type == models.OrderEventStatusUpdated && event.Status == models.OrderStatusCancelled:
		p = maxPriority
	case event.Type == models.OrderEventStatusUpdated:
		p = 7
	case event.Type == models.OrderEventCreated:
		p = 5
	default:
		p = 3
	}
	if p > maxPriority {
		p = maxPriority
	}
	if p < 0 {
		p = 0
	}
	return uint8(p)
}

// NewPublishing encodes the event as a persistent JSON message.
func NewPublishing(event models.OrderEvent, maxPriority int) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	ts := event.Occurred
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    ts,
		ContentType:  ContentType,
		MessageId:    uuid.NewString(),
		Type:         string(event.Type),
		Priority:     Priority(event, maxPriority),
		Body:         body,
	}, nil
}

// PublishOrderEvent sends the event to the order exchange.
func (r *RabbitMQ) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	msg, err := NewPublishing(event, r.Cfg.MaxPriority)
	if err != nil {
		return err
	}
	if err := r.Channel.PublishWithContext(
		ctx,
		r.Cfg.OrderExchange,
		RoutingKey(event.Type),
		false, // mandatory
		false, // immediate
		msg,
	); err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{
		"event":      event.Type,
		"order_id":   event.OrderID,
		"message_id": msg.MessageId,
		"priority":   msg.Priority,
	}).Debug("Order event published")
	return nil
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			r.log.WithError(err).Warn("Failed to close RabbitMQ channel")
		}
	}
	if r.Conn != nil {
		if err := r.Conn.Close(); err != nil {
			r.log.WithError(err).Warn("Failed to close RabbitMQ connection")
		}
	}
}

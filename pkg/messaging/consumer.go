package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/medflow/pos-allocation/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// maxDeliveries is how often a failing message is delivered before it is dead-lettered
const maxDeliveries = 3

// HeaderRetryCount counts the redeliveries the consumer scheduled for a message
const HeaderRetryCount = "x-retry-count"

// MessageHandler is a function that handles a message
type MessageHandler func(ctx context.Context, event *Event) error

// Consumer handles consuming events from RabbitMQ
type Consumer struct {
	rmq       *RabbitMQ
	queueName string
	handlers  map[string]MessageHandler
	retry     channelPublisher
	logger    *logger.Logger
}

// NewConsumer creates a new consumer for the given queue
func NewConsumer(rmq *RabbitMQ, queueName string, log *logger.Logger) (*Consumer, error) {
	if _, err := rmq.DeclareQueue(queueName); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	c := newConsumer(rmq, queueName, log)
	c.retry = rmq.Channel()
	return c, nil
}

func newConsumer(rmq *RabbitMQ, queueName string, log *logger.Logger) *Consumer {
	return &Consumer{
		rmq:       rmq,
		queueName: queueName,
		handlers:  make(map[string]MessageHandler),
		logger:    log,
	}
}

// Subscribe subscribes to an exchange with a routing key pattern
func (c *Consumer) Subscribe(exchange, routingKeyPattern string) error {
	if err := c.rmq.DeclareExchange(exchange); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := c.rmq.BindQueue(c.queueName, exchange, routingKeyPattern); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	c.logger.Info().
		Str("queue", c.queueName).
		Str("exchange", exchange).
		Str("routing_key", routingKeyPattern).
		Msg("subscribed to exchange")

	return nil
}

// RegisterHandler registers a handler for a specific event type
func (c *Consumer) RegisterHandler(eventType string, handler MessageHandler) {
	c.handlers[eventType] = handler
}

// Start starts consuming messages from the queue
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.rmq.Channel().Consume(
		c.queueName, // queue
		"",          // consumer tag (auto-generated)
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info().Str("queue", c.queueName).Msg("consumer started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info().Str("queue", c.queueName).Msg("consumer stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn().Msg("message channel closed")
					return
				}
				c.handleMessage(ctx, &msg)
			}
		}
	}()

	return nil
}

// acknowledger is the part of amqp.Delivery handleMessage settles messages with
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
	Reject(requeue bool) error
}

type delivery interface {
	acknowledger
	body() []byte
	headers() amqp.Table
}

func (c *Consumer) handleMessage(ctx context.Context, d *amqp.Delivery) {
	c.dispatch(ctx, amqpDelivery{d})
}

func (c *Consumer) dispatch(ctx context.Context, msg delivery) {
	var event Event
	if err := json.Unmarshal(msg.body(), &event); err != nil {
		c.logger.Error().Err(err).Msg("failed to unmarshal event")
		// Reject without requeue for malformed messages
		msg.Reject(false)
		return
	}

	ctx = WithCorrelationID(ctx, event.CorrelationID)

	handler, ok := c.handlers[event.Type]
	if !ok {
		c.logger.Debug().
			Str("event_type", event.Type).
			Msg("no handler registered for event type")
		msg.Ack(false)
		return
	}

	c.logger.Debug().
		Str("event_type", event.Type).
		Str("event_id", event.ID).
		Str("correlation_id", event.CorrelationID).
		Msg("processing event")

	if err := handler(ctx, &event); err != nil {
		c.logger.Error().
			Err(err).
			Str("event_type", event.Type).
			Str("event_id", event.ID).
			Msg("failed to process event")

		if IsPermanent(err) {
			msg.Reject(false)
			return
		}

		attempt := getRetryCount(msg.headers()) + 1
		if attempt >= maxDeliveries {
			c.logger.Warn().
				Str("event_id", event.ID).
				Int("deliveries", attempt).
				Msg("max retries exceeded, sending to DLQ")
			msg.Reject(false)
			return
		}

		if err := c.republish(ctx, msg, attempt); err != nil {
			c.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to schedule retry")
			msg.Nack(false, true)
			return
		}

		msg.Ack(false)
		return
	}

	msg.Ack(false)
}

// republish puts a copy of the message back on the queue with its retry count
// incremented. The broker does not count plain requeues.
func (c *Consumer) republish(ctx context.Context, msg delivery, attempt int) error {
	if c.retry == nil {
		return fmt.Errorf("no channel to republish on")
	}

	headers := amqp.Table{}
	for k, v := range msg.headers() {
		headers[k] = v
	}
	headers[HeaderRetryCount] = int64(attempt)

	return c.retry.PublishWithContext(ctx, "", c.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      headers,
		Body:         msg.body(),
	})
}

type amqpDelivery struct {
	*amqp.Delivery
}

func (d amqpDelivery) body() []byte        { return d.Body }
func (d amqpDelivery) headers() amqp.Table { return d.Headers }

func getRetryCount(headers amqp.Table) int {
	switch n := headers[HeaderRetryCount].(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/medflow/pos-allocation/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// channelPublisher is the part of *amqp.Channel the publisher needs
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher handles publishing events to RabbitMQ
type Publisher struct {
	channel  channelPublisher
	exchange string
	source   string
	logger   *logger.Logger
}

// NewPublisher creates a new publisher for the given exchange
func NewPublisher(rmq *RabbitMQ, exchange, source string, log *logger.Logger) (*Publisher, error) {
	if err := rmq.DeclareExchange(exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &Publisher{
		channel:  rmq.Channel(),
		exchange: exchange,
		source:   source,
		logger:   log,
	}, nil
}

// Publish publishes an event to the exchange and returns the event ID
func (p *Publisher) Publish(ctx context.Context, eventType string, data interface{}) (string, error) {
	correlationID := getCorrelationID(ctx)

	event, err := NewEvent(eventType, p.source, correlationID, data)
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		eventType,  // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     event.ID,
			CorrelationId: correlationID,
			Body:          body,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("event_id", event.ID).
		Str("correlation_id", correlationID).
		Msg("event published")

	return event.ID, nil
}

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// WithCorrelationID adds a correlation ID to the context
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// getCorrelationID retrieves the correlation ID from context
func getCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

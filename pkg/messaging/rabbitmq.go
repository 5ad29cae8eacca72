package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/medflow/pos-allocation/pkg/config"
	"github.com/medflow/pos-allocation/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeDeadLetter receives messages rejected by a consumer
const ExchangeDeadLetter = "dlx.events"

// RabbitMQ manages the connection to RabbitMQ
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	logger  *logger.Logger
	mu      sync.RWMutex
}

// New dials RabbitMQ, retrying up to MaxRetries times
func New(cfg *config.RabbitMQConfig, log *logger.Logger) (*RabbitMQ, error) {
	rmq := &RabbitMQ{
		config: cfg,
		logger: log,
	}

	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = rmq.connect(); err == nil {
			return rmq, nil
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("RabbitMQ connection attempt failed")
		if i < attempts-1 {
			time.Sleep(cfg.ReconnectDelay)
		}
	}

	return nil, err
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.config.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.Qos(r.config.PrefetchCount, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	r.mu.Lock()
	r.conn, r.channel = conn, ch
	r.mu.Unlock()

	r.logger.Info().Msg("connected to RabbitMQ")
	return nil
}

// Channel returns the current channel
func (r *RabbitMQ) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// Close closes the RabbitMQ connection
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to close channel")
		}
	}

	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}

	r.logger.Info().Msg("RabbitMQ connection closed")
	return nil
}

// Health reports whether the broker connection is open
func (r *RabbitMQ) Health() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.conn == nil || r.conn.IsClosed() {
		return map[string]string{"status": "down", "error": "connection closed"}
	}
	return map[string]string{"status": "up"}
}

// DeclareExchange declares a durable topic exchange
func (r *RabbitMQ) DeclareExchange(name string) error {
	return r.Channel().ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,     // arguments
	)
}

// DeclareQueue declares a durable queue that dead-letters into ExchangeDeadLetter
func (r *RabbitMQ) DeclareQueue(name string) (amqp.Queue, error) {
	return r.Channel().QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange": ExchangeDeadLetter,
		},
	)
}

// DeclareDeadLetterQueue declares the dead letter exchange and the service's DLQ
func (r *RabbitMQ) DeclareDeadLetterQueue(serviceName string) error {
	if err := r.DeclareExchange(ExchangeDeadLetter); err != nil {
		return fmt.Errorf("failed to declare DLX exchange: %w", err)
	}

	queueName := DeadLetterQueueName(serviceName)
	if _, err := r.Channel().QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ queue: %w", err)
	}

	// Catch all routing keys
	if err := r.BindQueue(queueName, ExchangeDeadLetter, "#"); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	return nil
}

// BindQueue binds a queue to an exchange with a routing key pattern
func (r *RabbitMQ) BindQueue(queueName, exchange, routingKey string) error {
	return r.Channel().QueueBind(queueName, routingKey, exchange, false, nil)
}

// DeadLetterQueueName returns the name of the DLQ owned by a service
func DeadLetterQueueName(serviceName string) string {
	return "dlq." + serviceName
}

package consumers

import (
	"context"
	"time"

	"github.com/medflow/pos-allocation/internal/allocation/domain"
	"github.com/medflow/pos-allocation/pkg/logger"
	"github.com/medflow/pos-allocation/pkg/messaging"
)

// QueueSessionEvents is the queue the allocation service reads session events from
const QueueSessionEvents = "allocation-service.session-events"

// SessionStore keeps the local mirror of POS sessions
type SessionStore interface {
	Upsert(ctx context.Context, s *domain.Session) error
	Close(ctx context.Context, sessionID int64, closedAt time.Time) (bool, error)
}

// SessionEventConsumer mirrors POS session lifecycle events into the session cache
type SessionEventConsumer struct {
	consumer *messaging.Consumer
	store    SessionStore
	logger   *logger.Logger
}

// NewSessionEventConsumer creates a new session event consumer
func NewSessionEventConsumer(rmq *messaging.RabbitMQ, store SessionStore, log *logger.Logger) (*SessionEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, QueueSessionEvents, log)
	if err != nil {
		return nil, err
	}

	// Subscribe to session events
	if err := consumer.Subscribe(messaging.ExchangePOSEvents, "pos.session.#"); err != nil {
		return nil, err
	}

	c := newSessionEventConsumer(store, log)
	c.consumer = consumer
	c.register(consumer)

	return c, nil
}

func newSessionEventConsumer(store SessionStore, log *logger.Logger) *SessionEventConsumer {
	return &SessionEventConsumer{
		store:  store,
		logger: log.WithComponent("session-consumer"),
	}
}

func (c *SessionEventConsumer) register(consumer *messaging.Consumer) {
	consumer.RegisterHandler(messaging.EventSessionOpened, c.handleSessionOpened)
	consumer.RegisterHandler(messaging.EventSessionClosed, c.handleSessionClosed)
}

// Start starts consuming messages
func (c *SessionEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *SessionEventConsumer) handleSessionOpened(ctx context.Context, event *messaging.Event) error {
	var data messaging.SessionOpenedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Int64("session_id", data.SessionID).
		Int64("user_id", data.UserID).
		Int64("config_id", data.ConfigID).
		Msg("received session opened event")

	return c.store.Upsert(ctx, &domain.Session{
		ID:        data.SessionID,
		UserID:    data.UserID,
		ConfigID:  data.ConfigID,
		CompanyID: data.CompanyID,
		State:     domain.SessionOpened,
		OpenedAt:  data.OpenedAt,
	})
}

func (c *SessionEventConsumer) handleSessionClosed(ctx context.Context, event *messaging.Event) error {
	var data messaging.SessionClosedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	found, err := c.store.Close(ctx, data.SessionID, data.ClosedAt)
	if err != nil {
		return err
	}

	if !found {
		c.logger.Debug().Int64("session_id", data.SessionID).Msg("closed session was not cached, recorded as closed")
		return nil
	}

	c.logger.Info().Int64("session_id", data.SessionID).Msg("session closed")
	return nil
}

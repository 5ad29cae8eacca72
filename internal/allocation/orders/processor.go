package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/medflow/pos-allocation/pkg/errors"
	"github.com/medflow/pos-allocation/pkg/logger"
	"github.com/medflow/pos-allocation/pkg/messaging"
)

// Result is the pipeline's acknowledgement of an order
type Result struct {
	OrderRef string `json:"order_ref"`
	EventID  string `json:"event_id"`
	Draft    bool   `json:"draft"`
}

// Processor hands a finished order to the order pipeline
type Processor interface {
	ProcessOrder(ctx context.Context, order *Order, isDraft bool, existingOrderID *int64) (*Result, error)
}

// Publisher publishes events to the message bus
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) (string, error)
}

// Forwarder is a Processor that publishes orders unchanged to the pipeline.
// Validation, stock moves and lot consumption happen downstream.
type Forwarder struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewForwarder creates a new order forwarder
func NewForwarder(publisher Publisher, log *logger.Logger) *Forwarder {
	return &Forwarder{
		publisher: publisher,
		logger:    log.WithComponent("order-forwarder"),
	}
}

// ProcessOrder publishes the order as a pos.order.submitted event
func (f *Forwarder) ProcessOrder(ctx context.Context, order *Order, isDraft bool, existingOrderID *int64) (*Result, error) {
	if len(order.Lines) == 0 {
		return nil, errors.BadRequest("order has no lines")
	}

	event := messaging.OrderSubmittedEvent{
		OrderRef:        uuid.New().String(),
		Draft:           isDraft,
		ExistingOrderID: existingOrderID,
		SessionID:       order.SessionID,
		UserID:          order.UserID,
		CompanyID:       order.CompanyID,
		Lines:           make([]messaging.OrderLinePayload, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		event.Lines = append(event.Lines, messaging.OrderLinePayload{
			ProductID: line.ProductID,
			LotName:   line.LotName,
			Quantity:  line.Quantity,
		})
	}

	eventID, err := f.publisher.Publish(ctx, messaging.EventOrderSubmitted, event)
	if err != nil {
		f.logger.Error().Err(err).Str("order_ref", event.OrderRef).Msg("failed to forward order")
		return nil, errors.Internal("failed to forward order")
	}

	f.logger.Info().
		Str("order_ref", event.OrderRef).
		Str("event_id", eventID).
		Bool("draft", isDraft).
		Int("lines", len(event.Lines)).
		Msg("order forwarded")

	return &Result{OrderRef: event.OrderRef, EventID: eventID, Draft: isDraft}, nil
}

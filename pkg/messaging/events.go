package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	// Point-of-sale session lifecycle, published by the POS backend
	EventSessionOpened = "pos.session.opened"
	EventSessionClosed = "pos.session.closed"

	// Orders handed over to the order-processing pipeline
	EventOrderSubmitted = "pos.order.submitted"
)

// Exchange names
const (
	ExchangePOSEvents = "pos.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct.
// A payload that does not decode is a permanent failure.
func (e *Event) UnmarshalData(v interface{}) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return Permanent(err)
	}
	return nil
}

// SessionOpenedEvent is published when a cashier opens a POS session
type SessionOpenedEvent struct {
	SessionID int64     `json:"session_id"`
	UserID    int64     `json:"user_id"`
	ConfigID  int64     `json:"config_id"`
	CompanyID *int64    `json:"company_id,omitempty"`
	OpenedAt  time.Time `json:"opened_at"`
}

// SessionClosedEvent is published when a POS session is closed
type SessionClosedEvent struct {
	SessionID int64     `json:"session_id"`
	ClosedAt  time.Time `json:"closed_at"`
}

// OrderSubmittedEvent hands a POS order to the order-processing pipeline
type OrderSubmittedEvent struct {
	OrderRef        string             `json:"order_ref"`
	Draft           bool               `json:"draft"`
	ExistingOrderID *int64             `json:"existing_order_id,omitempty"`
	SessionID       *int64             `json:"session_id,omitempty"`
	UserID          int64              `json:"user_id"`
	CompanyID       int64              `json:"company_id"`
	Lines           []OrderLinePayload `json:"lines"`
}

// OrderLinePayload is one order line of an OrderSubmittedEvent
type OrderLinePayload struct {
	ProductID int64           `json:"product_id"`
	LotName   string          `json:"lot_name,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
}

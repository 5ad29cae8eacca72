package handler

import (
	"encoding/json"
	"time"

	"github.com/medflow/pos-allocation/internal/allocation/domain"
	"github.com/medflow/pos-allocation/internal/allocation/orders"
	"github.com/shopspring/decimal"
)

// expirationLayout is the timestamp format POS clients parse
const expirationLayout = "2006-01-02 15:04:05"

// ExpirationDate renders a lot's expiration as "YYYY-MM-DD HH:MM:SS" in UTC, or false when unset
type ExpirationDate struct {
	Time *time.Time
}

// MarshalJSON implements json.Marshaler
func (e ExpirationDate) MarshalJSON() ([]byte, error) {
	if e.Time == nil {
		return []byte("false"), nil
	}
	return json.Marshal(e.Time.UTC().Format(expirationLayout))
}

// PresenceResponse is the body of GET /stock/presence
type PresenceResponse struct {
	HasPositiveStock bool    `json:"has_positive_stock"`
	TotalQuantity    float64 `json:"total_quantity"`
}

// LotResponse is one lot of a plan
type LotResponse struct {
	LotName        string         `json:"lot_name"`
	LotID          int64          `json:"lot_id"`
	AvailableQty   float64        `json:"available_qty"`
	ExpirationDate ExpirationDate `json:"expiration_date"`
}

// PlanResponse is the body of GET /stock/lots
type PlanResponse struct {
	HasPositiveStock bool          `json:"has_positive_stock"`
	TotalQuantity    float64       `json:"total_quantity"`
	Lots             []LotResponse `json:"lots"`
}

func toPresenceResponse(p domain.Presence) PresenceResponse {
	return PresenceResponse{
		HasPositiveStock: p.HasPositiveStock,
		TotalQuantity:    p.Total.InexactFloat64(),
	}
}

func toPlanResponse(p *domain.Plan) PlanResponse {
	lots := make([]LotResponse, 0, len(p.Lots))
	for _, l := range p.Lots {
		lots = append(lots, LotResponse{
			LotName:        l.LotName,
			LotID:          l.LotID,
			AvailableQty:   l.AvailableQuantity.InexactFloat64(),
			ExpirationDate: ExpirationDate{Time: l.ExpirationDate},
		})
	}

	return PlanResponse{
		HasPositiveStock: p.HasPositiveStock,
		TotalQuantity:    p.TotalQuantity.InexactFloat64(),
		Lots:             lots,
	}
}

// OrderLineRequest is one line of POST /orders
type OrderLineRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	LotName   string          `json:"lot_name"`
	Tracked   bool            `json:"tracked"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// SubmitOrderRequest is the body of POST /orders
type SubmitOrderRequest struct {
	SessionID       *int64             `json:"session_id" validate:"omitempty,gt=0"`
	LocationID      *int64             `json:"location_id" validate:"omitempty,gt=0,excluded_with=ConfigID"`
	ConfigID        *int64             `json:"config_id" validate:"omitempty,gt=0"`
	Draft           bool               `json:"draft"`
	ExistingOrderID *int64             `json:"existing_order_id" validate:"omitempty,gt=0"`
	Lines           []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// OrderLineResponse is one line of a forwarded order
type OrderLineResponse struct {
	ProductID int64   `json:"product_id"`
	LotName   string  `json:"lot_name,omitempty"`
	Quantity  float64 `json:"quantity"`
}

// SubmitOrderResponse acknowledges a forwarded order
type SubmitOrderResponse struct {
	OrderRef string              `json:"order_ref"`
	EventID  string              `json:"event_id"`
	Draft    bool                `json:"draft"`
	Lines    []OrderLineResponse `json:"lines"`
}

func toSubmitOrderResponse(order *orders.Order, result *orders.Result) SubmitOrderResponse {
	lines := make([]OrderLineResponse, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, OrderLineResponse{
			ProductID: l.ProductID,
			LotName:   l.LotName,
			Quantity:  l.Quantity.InexactFloat64(),
		})
	}

	return SubmitOrderResponse{
		OrderRef: result.OrderRef,
		EventID:  result.EventID,
		Draft:    result.Draft,
		Lines:    lines,
	}
}

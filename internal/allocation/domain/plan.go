package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Caller identifies who asks for an allocation plan
type Caller struct {
	ActorID int64
	ScopeID int64
}

// PlanRequest asks for the lots of a product to offer at a location.
// LocationID wins over ConfigID; with neither set the caller's open session decides.
type PlanRequest struct {
	ProductID  int64
	LocationID *int64
	ConfigID   *int64
	Caller     Caller
}

// LotAllocation is one lot offered for consumption
type LotAllocation struct {
	LotName           string
	LotID             int64
	AvailableQuantity decimal.Decimal
	ExpirationDate    *time.Time
}

// Plan is the ordered list of lots with stock at the resolved location
type Plan struct {
	HasPositiveStock bool
	TotalQuantity    decimal.Decimal
	Lots             []LotAllocation
}

// EmptyPlan is the negative result carrying the ledger total
func EmptyPlan(total decimal.Decimal) *Plan {
	return &Plan{
		TotalQuantity: total,
		Lots:          []LotAllocation{},
	}
}

// Session is an open point-of-sale session
type Session struct {
	ID        int64      `db:"session_id"`
	UserID    int64      `db:"user_id"`
	ConfigID  int64      `db:"config_id"`
	CompanyID *int64     `db:"company_id"`
	State     string     `db:"state"`
	OpenedAt  time.Time  `db:"opened_at"`
	ClosedAt  *time.Time `db:"closed_at"`
}

// Session states mirrored from the POS backend
const (
	SessionOpened = "opened"
	SessionClosed = "closed"
)

// Package domain holds the types shared by the lot allocation advisor.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quant is one on-hand quantity record of the stock ledger.
// Quantities are signed; negative records occur after overselling.
type Quant struct {
	ID         int64           `db:"id" json:"id"`
	ProductID  int64           `db:"product_id" json:"product_id"`
	LotID      *int64          `db:"lot_id" json:"lot_id,omitempty"`
	LocationID int64           `db:"location_id" json:"location_id"`
	Quantity   decimal.Decimal `db:"quantity" json:"quantity"`
}

// QuantFilter selects ledger records. A nil LotID leaves the lot unconstrained.
type QuantFilter struct {
	ProductID  int64
	LotID      *int64
	LocationID int64
}

// Lot is a traceable batch of a product
type Lot struct {
	ID             int64      `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	ProductID      int64      `db:"product_id" json:"product_id"`
	CompanyID      *int64     `db:"company_id" json:"company_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	ExpirationDate *time.Time `db:"expiration_date" json:"expiration_date,omitempty"`
	IsTaken        bool       `db:"is_taken" json:"is_taken"`
}

// LotFilter selects the lots of a product visible to a company.
// Lots without an owning company are visible to every scope.
type LotFilter struct {
	ProductID int64
	ScopeID   int64
}

// Presence is the result of a stock presence check
type Presence struct {
	HasPositiveStock bool
	Total            decimal.Decimal
}

// PresenceOf derives a presence result from a ledger sum
func PresenceOf(total decimal.Decimal) Presence {
	return Presence{HasPositiveStock: total.IsPositive(), Total: total}
}

// Package orders assembles point-of-sale orders and hands them to the order pipeline.
// Stock is never moved here; lots are only chosen from allocation plans.
package orders

import (
	"net/http"

	"github.com/medflow/pos-allocation/internal/allocation/domain"
	"github.com/medflow/pos-allocation/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrLotsExhausted is returned when every planned lot is already used up by the order
var ErrLotsExhausted = errors.New("LOTS_EXHAUSTED", "all available lots have been added to the order", http.StatusConflict)

// Line is one product line of an order
type Line struct {
	ProductID int64
	LotName   string
	Quantity  decimal.Decimal
}

// Order is a point-of-sale order being assembled
type Order struct {
	SessionID *int64
	UserID    int64
	CompanyID int64
	Lines     []*Line
}

// AddProduct adds qty of a product. A tracked product added with a lot that
// already has a line is merged into that line instead of opening a new one.
// A non-positive qty counts as one unit.
func (o *Order) AddProduct(productID int64, lotName string, tracked bool, qty decimal.Decimal) *Line {
	if !qty.IsPositive() {
		qty = decimal.NewFromInt(1)
	}

	if tracked && lotName != "" {
		for _, line := range o.Lines {
			if line.ProductID == productID && line.LotName == lotName {
				line.Quantity = line.Quantity.Add(qty)
				return line
			}
		}
	}

	line := &Line{ProductID: productID, LotName: lotName, Quantity: qty}
	o.Lines = append(o.Lines, line)
	return line
}

// UsedQuantity is how much of a lot the order already consumes
func (o *Order) UsedQuantity(productID int64, lotName string) decimal.Decimal {
	used := decimal.Zero
	for _, line := range o.Lines {
		if line.ProductID == productID && line.LotName == lotName {
			used = used.Add(line.Quantity)
		}
	}
	return used
}

// SelectLot picks the first planned lot that still has stock once the
// order's own lines are subtracted. An empty name means the product is added
// without a lot: either there is no positive stock or no lot carries it.
func (o *Order) SelectLot(productID int64, plan *domain.Plan) (string, error) {
	if plan == nil || !plan.HasPositiveStock || len(plan.Lots) == 0 {
		return "", nil
	}

	for _, lot := range plan.Lots {
		remaining := lot.AvailableQuantity.Sub(o.UsedQuantity(productID, lot.LotName))
		if remaining.IsPositive() {
			return lot.LotName, nil
		}
	}

	return "", ErrLotsExhausted
}

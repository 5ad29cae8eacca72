package service

import (
	"context"

	"github.com/medflow/pos-allocation/internal/allocation/domain"
)

// PresenceChecker answers whether a product has usable stock at a location
type PresenceChecker struct {
	ledger QuantityLedger
}

// NewPresenceChecker creates a new presence checker
func NewPresenceChecker(ledger QuantityLedger) *PresenceChecker {
	return &PresenceChecker{ledger: ledger}
}

// CheckPresence sums every quant of the product at the location, whatever its lot
func (c *PresenceChecker) CheckPresence(ctx context.Context, productID, locationID int64) (domain.Presence, error) {
	total, err := c.ledger.SumQuantity(ctx, domain.QuantFilter{
		ProductID:  productID,
		LocationID: locationID,
	})
	if err != nil {
		return domain.Presence{}, err
	}

	return domain.PresenceOf(total), nil
}

package repository

import (
	"context"

	"github.com/medflow/pos-allocation/internal/allocation/domain"
	"github.com/medflow/pos-allocation/pkg/database"
	"github.com/shopspring/decimal"
)

// QuantRepository reads on-hand quantities from the stock ledger
type QuantRepository struct {
	db *database.DB
}

// NewQuantRepository creates a new quant repository
func NewQuantRepository(db *database.DB) *QuantRepository {
	return &QuantRepository{db: db}
}

// SumQuantity adds up every quant matching the filter.
// No matching records is a zero total, not an error.
func (r *QuantRepository) SumQuantity(ctx context.Context, f domain.QuantFilter) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM stock_quants
		WHERE product_id = $1 AND location_id = $2
	`
	args := []interface{}{f.ProductID, f.LocationID}

	if f.LotID != nil {
		query += ` AND lot_id = $3`
		args = append(args, *f.LotID)
	}

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return decimal.Zero, database.LookupError("stock quantity", err)
	}

	return total, nil
}

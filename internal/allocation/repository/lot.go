package repository

import (
	"context"

	"github.com/medflow/pos-allocation/internal/allocation/domain"
	"github.com/medflow/pos-allocation/pkg/database"
)

// LotRepository reads lot metadata
type LotRepository struct {
	db *database.DB
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *database.DB) *LotRepository {
	return &LotRepository{db: db}
}

// ListLots returns the lots of a product owned by the scope or by no company.
// Expired and taken lots are included; ordering is left to the caller's policy.
func (r *LotRepository) ListLots(ctx context.Context, f domain.LotFilter) ([]domain.Lot, error) {
	query := `
		SELECT id, name, product_id, company_id, created_at, expiration_date, is_taken
		FROM stock_lots
		WHERE product_id = $1 AND (company_id = $2 OR company_id IS NULL)
		ORDER BY id
	`

	lots := []domain.Lot{}
	if err := r.db.SelectContext(ctx, &lots, query, f.ProductID, f.ScopeID); err != nil {
		return nil, database.LookupError("lot", err)
	}

	return lots, nil
}

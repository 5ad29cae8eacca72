package repository

import (
	"context"
	"database/sql"

	"github.com/medflow/pos-allocation/pkg/database"
	"github.com/medflow/pos-allocation/pkg/errors"
)

// CatalogRepository resolves removal strategies from the product catalog
type CatalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// RemovalStrategy returns the removal method of the product's category.
// An uncategorised product or a category without a method yields "".
func (r *CatalogRepository) RemovalStrategy(ctx context.Context, productID int64) (string, error) {
	query := `
		SELECT COALESCE(c.removal_strategy, '')
		FROM products p
		LEFT JOIN product_categories c ON c.id = p.category_id
		WHERE p.id = $1
	`

	var method string
	if err := r.db.GetContext(ctx, &method, query, productID); err != nil {
		if err == sql.ErrNoRows {
			return "", errors.InvalidReference("product", productID)
		}
		return "", database.LookupError("removal strategy", err)
	}

	return method, nil
}

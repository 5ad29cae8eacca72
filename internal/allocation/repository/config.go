package repository

import (
	"context"
	"database/sql"

	"github.com/medflow/pos-allocation/pkg/database"
	"github.com/medflow/pos-allocation/pkg/errors"
)

// ConfigRepository reads point-of-sale configurations
type ConfigRepository struct {
	db *database.DB
}

// NewConfigRepository creates a new POS config repository
func NewConfigRepository(db *database.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// DefaultSourceLocation returns the location a POS config picks stock from,
// or nil when the config has none
func (r *ConfigRepository) DefaultSourceLocation(ctx context.Context, configID int64) (*int64, error) {
	query := `SELECT default_source_location_id FROM pos_configs WHERE id = $1`

	var locationID sql.NullInt64
	if err := r.db.GetContext(ctx, &locationID, query, configID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.InvalidReference("pos config", configID)
		}
		return nil, database.LookupError("pos config", err)
	}

	if !locationID.Valid {
		return nil, nil
	}
	return &locationID.Int64, nil
}

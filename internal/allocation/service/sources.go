package service

import (
	"context"

	"github.com/medflow/pos-allocation/internal/allocation/domain"
	"github.com/shopspring/decimal"
)

// QuantityLedger sums on-hand quantities
type QuantityLedger interface {
	SumQuantity(ctx context.Context, f domain.QuantFilter) (decimal.Decimal, error)
}

// CatalogSource resolves a product's removal method ("fefo", "fifo" or "")
type CatalogSource interface {
	RemovalStrategy(ctx context.Context, productID int64) (string, error)
}

// LotSource lists the lots visible to a scope
type LotSource interface {
	ListLots(ctx context.Context, f domain.LotFilter) ([]domain.Lot, error)
}

// SessionSource finds the caller's open POS session. No session is (nil, nil).
type SessionSource interface {
	FindActiveSession(ctx context.Context, actorID int64) (*domain.Session, error)
}

// ConfigSource resolves the stock location a POS config picks from.
// A config without a source location is (nil, nil).
type ConfigSource interface {
	DefaultSourceLocation(ctx context.Context, configID int64) (*int64, error)
}

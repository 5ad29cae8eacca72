package service_test

import (
	"context"
	"time"

	"github.com/medflow/pos-allocation/internal/allocation/domain"
	"github.com/shopspring/decimal"
)

// memLedger sums quants held in memory
type memLedger struct {
	quants  []domain.Quant
	calls   []domain.QuantFilter
	failOn  func(domain.QuantFilter) bool
	failErr error
}

func (l *memLedger) add(productID int64, lotID *int64, locationID int64, qty string) {
	l.quants = append(l.quants, domain.Quant{
		ProductID:  productID,
		LotID:      lotID,
		LocationID: locationID,
		Quantity:   decimal.RequireFromString(qty),
	})
}

func (l *memLedger) SumQuantity(_ context.Context, f domain.QuantFilter) (decimal.Decimal, error) {
	l.calls = append(l.calls, f)
	if l.failOn != nil && l.failOn(f) {
		return decimal.Zero, l.failErr
	}

	total := decimal.Zero
	for _, q := range l.quants {
		if q.ProductID != f.ProductID || q.LocationID != f.LocationID {
			continue
		}
		if f.LotID != nil && (q.LotID == nil || *q.LotID != *f.LotID) {
			continue
		}
		total = total.Add(q.Quantity)
	}
	return total, nil
}

// lotCalls counts per-lot ledger queries
func (l *memLedger) lotCalls() int {
	n := 0
	for _, c := range l.calls {
		if c.LotID != nil {
			n++
		}
	}
	return n
}

type memCatalog struct {
	methods map[int64]string
	err     error
	calls   int
}

func (c *memCatalog) RemovalStrategy(_ context.Context, productID int64) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.methods[productID], nil
}

type memLots struct {
	lots    []domain.Lot
	err     error
	calls   int
	filters []domain.LotFilter
}

func (s *memLots) ListLots(_ context.Context, f domain.LotFilter) ([]domain.Lot, error) {
	s.calls++
	s.filters = append(s.filters, f)
	if s.err != nil {
		return nil, s.err
	}

	var out []domain.Lot
	for _, l := range s.lots {
		if l.ProductID != f.ProductID {
			continue
		}
		if l.CompanyID != nil && *l.CompanyID != f.ScopeID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

type memSessions struct {
	byActor map[int64]*domain.Session
	err     error
	calls   int
}

func (s *memSessions) FindActiveSession(_ context.Context, actorID int64) (*domain.Session, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.byActor[actorID], nil
}

type memConfigs struct {
	locations map[int64]int64
	err       error
	calls     int
}

func (c *memConfigs) DefaultSourceLocation(_ context.Context, configID int64) (*int64, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if loc, ok := c.locations[configID]; ok {
		return &loc, nil
	}
	return nil, nil
}

func ptr(i int64) *int64 {
	return &i
}

func day(n int) *time.Time {
	d := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return &d
}

func lotNames(plan *domain.Plan) []string {
	names := make([]string, len(plan.Lots))
	for i, l := range plan.Lots {
		names[i] = l.LotName
	}
	return names
}

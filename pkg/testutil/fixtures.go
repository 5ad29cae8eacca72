package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ProductFixture represents a catalog product with its category
type ProductFixture struct {
	ID              int64
	Name            string
	RemovalStrategy *string
	Categorised     bool
	Tracking        string
}

// LotFixture represents test lot data
type LotFixture struct {
	ID             int64
	Name           string
	ProductID      int64
	CompanyID      *int64
	CreatedAt      time.Time
	ExpirationDate *time.Time
}

// Fixtures inserts test rows into the stock schema with sensible defaults
type Fixtures struct {
	db       *sqlx.DB
	sequence int
}

// NewFixtures creates a new fixture factory bound to db
func NewFixtures(db *sqlx.DB) *Fixtures {
	return &Fixtures{db: db}
}

// nextSeq returns the next sequence number for unique values
func (f *Fixtures) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Product inserts a product. By default it sits in a category without removal strategy.
func (f *Fixtures) Product(t *testing.T, opts ...func(*ProductFixture)) ProductFixture {
	t.Helper()
	ctx := context.Background()
	seq := f.nextSeq()

	p := ProductFixture{
		Name:        fmt.Sprintf("Test Product %d", seq),
		Categorised: true,
		Tracking:    "lot",
	}
	for _, opt := range opts {
		opt(&p)
	}

	var categoryID *int64
	if p.Categorised {
		var id int64
		err := f.db.QueryRowxContext(ctx,
			`INSERT INTO product_categories (name, removal_strategy) VALUES ($1, $2) RETURNING id`,
			fmt.Sprintf("Category %d", seq), p.RemovalStrategy,
		).Scan(&id)
		if err != nil {
			t.Fatalf("failed to insert category: %v", err)
		}
		categoryID = &id
	}

	err := f.db.QueryRowxContext(ctx,
		`INSERT INTO products (name, category_id, tracking) VALUES ($1, $2, $3) RETURNING id`,
		p.Name, categoryID, p.Tracking,
	).Scan(&p.ID)
	if err != nil {
		t.Fatalf("failed to insert product: %v", err)
	}

	return p
}

// WithRemovalStrategy sets the category's removal method
func WithRemovalStrategy(method string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.RemovalStrategy = &method
	}
}

// Uncategorised inserts the product without a category
func Uncategorised() func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.Categorised = false
	}
}

// Lot inserts a lot for productID created now
func (f *Fixtures) Lot(t *testing.T, productID int64, opts ...func(*LotFixture)) LotFixture {
	t.Helper()
	seq := f.nextSeq()

	l := LotFixture{
		Name:      fmt.Sprintf("LOT-%04d", seq),
		ProductID: productID,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(&l)
	}

	err := f.db.QueryRowxContext(context.Background(),
		`INSERT INTO stock_lots (name, product_id, company_id, created_at, expiration_date)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		l.Name, l.ProductID, l.CompanyID, l.CreatedAt, l.ExpirationDate,
	).Scan(&l.ID)
	if err != nil {
		t.Fatalf("failed to insert lot: %v", err)
	}

	return l
}

// OwnedBy sets the lot's company
func OwnedBy(companyID int64) func(*LotFixture) {
	return func(l *LotFixture) {
		l.CompanyID = &companyID
	}
}

// CreatedAt sets the lot's creation time
func CreatedAt(at time.Time) func(*LotFixture) {
	return func(l *LotFixture) {
		l.CreatedAt = at
	}
}

// ExpiresAt sets the lot's expiration date
func ExpiresAt(at time.Time) func(*LotFixture) {
	return func(l *LotFixture) {
		l.ExpirationDate = &at
	}
}

// Quant inserts a ledger record. lotID may be nil for untracked stock.
func (f *Fixtures) Quant(t *testing.T, productID int64, lotID *int64, locationID int64, qty string) {
	t.Helper()

	_, err := f.db.ExecContext(context.Background(),
		`INSERT INTO stock_quants (product_id, lot_id, location_id, quantity) VALUES ($1, $2, $3, $4)`,
		productID, lotID, locationID, decimal.RequireFromString(qty),
	)
	if err != nil {
		t.Fatalf("failed to insert quant: %v", err)
	}
}

// POSConfig inserts a POS configuration picking from locationID; nil leaves it unset
func (f *Fixtures) POSConfig(t *testing.T, locationID *int64) int64 {
	t.Helper()
	seq := f.nextSeq()

	var id int64
	err := f.db.QueryRowxContext(context.Background(),
		`INSERT INTO pos_configs (name, default_source_location_id) VALUES ($1, $2) RETURNING id`,
		fmt.Sprintf("Shop %d", seq), locationID,
	).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert pos config: %v", err)
	}

	return id
}

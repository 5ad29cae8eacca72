package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/medflow/pos-allocation/pkg/database"
	"github.com/medflow/pos-allocation/pkg/logger"
)

var (
	// Global test container (shared across all integration tests)
	globalContainer *PostgresContainer
	globalDB        *sqlx.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite provides a base for integration tests with real PostgreSQL
type IntegrationSuite struct {
	Container *PostgresContainer
	RawDB     *sqlx.DB
	DB        *database.DB
	Fixtures  *Fixtures
	Logger    *logger.Logger
}

// NewIntegrationSuite starts (or reuses) the shared container and creates the stock schema.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    flag.Parse()
//	    ctx := context.Background()
//	    if !testing.Short() {
//	        suite, suiteErr = testutil.NewIntegrationSuite(ctx)
//	    }
//	    code := m.Run()
//	    testutil.TerminateContainer(ctx)
//	    os.Exit(code)
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	container, db, err := getOrCreateContainer(ctx)
	if err != nil {
		return nil, err
	}

	if err := CreateStockSchema(ctx, db); err != nil {
		return nil, err
	}

	log := logger.New("test", "test")

	return &IntegrationSuite{
		Container: container,
		RawDB:     db,
		DB:        database.Wrap(db, log),
		Fixtures:  NewFixtures(db),
		Logger:    log,
	}, nil
}

// getOrCreateContainer returns the shared test container
func getOrCreateContainer(ctx context.Context) (*PostgresContainer, *sqlx.DB, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}
		globalDB, containerErr = globalContainer.Connect(ctx)
	})

	return globalContainer, globalDB, containerErr
}

// Require skips the test when the suite is unavailable and truncates all tables otherwise.
// Docker is not available everywhere the unit tests run.
func Require(t *testing.T, s *IntegrationSuite, setupErr error) *IntegrationSuite {
	t.Helper()
	SkipIfShort(t)

	if s == nil {
		t.Skipf("integration database unavailable: %v", setupErr)
	}

	s.Reset(t)
	return s
}

// Reset empties every table of the stock schema
func (s *IntegrationSuite) Reset(t *testing.T) {
	t.Helper()

	_, err := s.RawDB.Exec(`
		TRUNCATE stock_quants, stock_lots, products, product_categories,
			pos_configs, pos_session_cache RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to reset stock schema: %v", err)
	}
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalDB != nil {
		globalDB.Close()
	}
	if globalContainer != nil {
		globalContainer.Terminate(ctx)
	}
}

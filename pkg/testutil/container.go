// Package testutil provides testing utilities for the allocation service.
// It includes a PostgreSQL testcontainer with the stock schema, sqlmock
// helpers, fixtures and HTTP helpers.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/medflow/pos-allocation/pkg/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to MEDFLOW_TEST_POSTGRES_IMAGE or postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "medflow_stock_test",
		Username: "test",
		Password: "test",
		Image:    config.GetEnv("MEDFLOW_TEST_POSTGRES_IMAGE", "postgres:15-alpine"),
	}
}

// NewPostgresContainer starts a PostgreSQL test container
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "medflow_stock_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// CreateStockSchema creates the ledger, catalog and POS tables the service reads.
// It mirrors the tables owned by the inventory and POS backends.
func CreateStockSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS product_categories (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			removal_strategy VARCHAR(32)
		);

		CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			category_id BIGINT REFERENCES product_categories(id),
			tracking VARCHAR(16) NOT NULL DEFAULT 'none'
		);

		CREATE TABLE IF NOT EXISTS stock_lots (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			product_id BIGINT NOT NULL REFERENCES products(id),
			company_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expiration_date TIMESTAMPTZ,
			is_taken BOOLEAN NOT NULL DEFAULT FALSE
		);

		CREATE TABLE IF NOT EXISTS stock_quants (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products(id),
			lot_id BIGINT REFERENCES stock_lots(id),
			location_id BIGINT NOT NULL,
			quantity NUMERIC(20, 6) NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_stock_quants_product_location
			ON stock_quants (product_id, location_id);

		CREATE TABLE IF NOT EXISTS pos_configs (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			company_id BIGINT,
			default_source_location_id BIGINT
		);

		CREATE TABLE IF NOT EXISTS pos_session_cache (
			session_id BIGINT PRIMARY KEY,
			-- NULL on rows written by a close event for a session never seen open
			user_id BIGINT,
			config_id BIGINT,
			company_id BIGINT,
			state VARCHAR(16) NOT NULL,
			opened_at TIMESTAMPTZ,
			closed_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_pos_session_cache_user_state
			ON pos_session_cache (user_id, state);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create stock schema: %w", err)
	}

	return nil
}

package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/medflow/pos-allocation/pkg/config"
	"github.com/medflow/pos-allocation/pkg/logger"
)

// healthTimeout bounds the ping issued by Health
const healthTimeout = time.Second

// DB is the handle the repositories query the stock ledger and the session cache through
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// New connects to PostgreSQL and applies the pool settings
func New(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("connected to database")

	return Wrap(db, log), nil
}

// Wrap adopts an existing sqlx handle, e.g. one backed by sqlmock
func Wrap(db *sqlx.DB, log *logger.Logger) *DB {
	return &DB{DB: db, logger: log}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Health pings the database and reports the pool usage
func (db *DB) Health(ctx context.Context) map[string]string {
	stats := db.Stats()
	status := map[string]string{
		"status":           "up",
		"open_connections": strconv.Itoa(stats.OpenConnections),
		"in_use":           strconv.Itoa(stats.InUse),
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.logger.Warn().Err(err).Msg("database health check failed")
		status["status"] = "down"
		status["error"] = err.Error()
	}

	return status
}

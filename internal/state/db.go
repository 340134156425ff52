// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// ErrDBNotInitialized is returned by every store function before InitDB succeeds.
var ErrDBNotInitialized = errors.New("database not initialized")

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// DSN renders the lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	var err error
	DB, err = sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err = DB.Ping(); err != nil {
		DB.Close()
		DB = nil
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
		DB = nil
	}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS pool_events (
		event_id BIGSERIAL PRIMARY KEY,
		operation_id UUID NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		event_timestamp TIMESTAMPTZ NOT NULL,
		account TEXT,
		amounts TEXT[], -- Per-asset amounts as decimal strings
		payload JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pool_events_timestamp ON pool_events(event_timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_pool_events_type ON pool_events(event_type);
	CREATE INDEX IF NOT EXISTS idx_pool_events_account ON pool_events(account);

	CREATE TABLE IF NOT EXISTS pool_snapshots (
		snapshot_id BIGSERIAL PRIMARY KEY,
		operation_id UUID NOT NULL,
		snapshot_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		total_shares NUMERIC(78, 0) NOT NULL,
		impermanent_loss_fund NUMERIC(78, 0) NOT NULL,
		reserves TEXT[] NOT NULL,
		weights TEXT[] NOT NULL,
		paused BOOLEAN NOT NULL,
		state JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pool_snapshots_timestamp ON pool_snapshots(snapshot_timestamp DESC);

	CREATE TABLE IF NOT EXISTS fee_parameters_history (
		params_id BIGSERIAL PRIMARY KEY,
		operation_id UUID NOT NULL,
		base_fee_bps INTEGER NOT NULL,
		dynamic_fee_range_bps INTEGER NOT NULL,
		activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_fee_parameters_history_activated ON fee_parameters_history(activated_at DESC);

	-- Operation counter for persistent global operation numbering
	CREATE TABLE IF NOT EXISTS operation_counter (
		id INTEGER PRIMARY KEY DEFAULT 1,
		current_operation BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT single_row_check CHECK (id = 1)
	);

	INSERT INTO operation_counter (id, current_operation)
	VALUES (1, 0)
	ON CONFLICT (id) DO NOTHING;
`

const dropSQL = `
	DROP TABLE IF EXISTS pool_events CASCADE;
	DROP TABLE IF EXISTS pool_snapshots CASCADE;
	DROP TABLE IF EXISTS fee_parameters_history CASCADE;
	DROP TABLE IF EXISTS operation_counter CASCADE;
`

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return ErrDBNotInitialized
	}
	if _, err := DB.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// ResetSchema drops every pool table and recreates them empty.
func ResetSchema() error {
	if DB == nil {
		return ErrDBNotInitialized
	}
	if _, err := DB.Exec(dropSQL); err != nil {
		return fmt.Errorf("failed to drop pool tables: %w", err)
	}
	log.Warn().Msg("All pool tables dropped.")
	return EnsureSchema()
}

// CheckDBConnection tests if the database connection is healthy.
func CheckDBConnection(ctx context.Context) error {
	if DB == nil {
		return ErrDBNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

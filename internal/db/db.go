// Package db provides PostgreSQL access for the boxscore backend: the
// resource cache backing the resolver, the static team directory, cron run
// history, and admin accounts.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Init creates the schema if it does not exist. Idempotent; safe to run on
// every startup.
func (db *DB) Init(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS teams (
			id SERIAL PRIMARY KEY,
			nba_team_id INTEGER UNIQUE NOT NULL,
			name VARCHAR(100) NOT NULL,
			abbreviation VARCHAR(10) NOT NULL,
			conference VARCHAR(10) NOT NULL,
			division VARCHAR(50) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS resource_cache (
			key TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			last_fetched_at TIMESTAMPTZ NOT NULL,
			is_manual_override BOOLEAN NOT NULL DEFAULT FALSE,
			override_reason TEXT,
			source VARCHAR(10) NOT NULL DEFAULT 'api',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS cron_runs (
			id UUID PRIMARY KEY,
			job_name VARCHAR(100) NOT NULL,
			triggered_by VARCHAR(20) NOT NULL DEFAULT 'cron',
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			status VARCHAR(20) NOT NULL,
			duration_seconds INTEGER,
			items_updated INTEGER NOT NULL DEFAULT 0,
			error_message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cron_runs_started_at ON cron_runs (started_at DESC)`,
		`CREATE TABLE IF NOT EXISTS admin_users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range ddl {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

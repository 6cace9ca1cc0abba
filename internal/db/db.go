// Package db provides PostgreSQL persistence for pipeline runs and
// per-profile records.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
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

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	config_version TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'running',
	total_profiles INT NOT NULL DEFAULT 0,
	success_count INT NOT NULL DEFAULT 0,
	error_count INT NOT NULL DEFAULT 0,
	started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS profiles (
	run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	slug TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	error_message TEXT,
	http_status INT,
	raw_html TEXT,
	record JSONB,
	confidence JSONB,
	availability JSONB,
	assessment JSONB,
	score DOUBLE PRECISION,
	tier TEXT,
	flags JSONB,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (run_id, slug)
);

CREATE INDEX IF NOT EXISTS idx_profiles_status ON profiles (run_id, status);
`

// EnsureSchema creates the tables if they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

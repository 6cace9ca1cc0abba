package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateRun creates a new pipeline run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, configVersion string, totalProfiles int) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO runs (config_version, total_profiles, status)
		 VALUES ($1, $2, 'running')
		 RETURNING id`,
		configVersion, totalProfiles,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// FinalizeRun records the run's terminal status and aggregate counts.
// A run is finalized exactly once, at the end of the profile loop.
func (db *DB) FinalizeRun(ctx context.Context, runID uuid.UUID, status string, successCount, errorCount int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE runs SET status = $1, success_count = $2, error_count = $3, completed_at = NOW()
		 WHERE id = $4`,
		status, successCount, errorCount, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, config_version, status, total_profiles, success_count, error_count, started_at, completed_at
		 FROM runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.ConfigVersion, &run.Status, &run.TotalProfiles, &run.SuccessCount, &run.ErrorCount, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent runs, newest first
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, config_version, status, total_profiles, success_count, error_count, started_at, completed_at
		 FROM runs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.ConfigVersion, &run.Status, &run.TotalProfiles, &run.SuccessCount, &run.ErrorCount, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// LatestRun returns the most recently started run, or nil when none exist.
// Resume mode picks up from here.
func (db *DB) LatestRun(ctx context.Context) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, config_version, status, total_profiles, success_count, error_count, started_at, completed_at
		 FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&run.ID, &run.ConfigVersion, &run.Status, &run.TotalProfiles, &run.SuccessCount, &run.ErrorCount, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return &run, nil
}

package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InitProfile registers a slug under a run in the pending state. Re-running
// against an existing (run_id, slug) leaves the stored row untouched so
// resume can pick up where the previous attempt stopped.
func (db *DB) InitProfile(ctx context.Context, runID uuid.UUID, slug string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO profiles (run_id, slug, status)
		 VALUES ($1, $2, 'pending')
		 ON CONFLICT (run_id, slug) DO NOTHING`,
		runID, slug,
	)
	if err != nil {
		return fmt.Errorf("failed to init profile %s: %w", slug, err)
	}
	return nil
}

// SaveCrawl stores the rendered page and advances the profile to the given
// status (crawl_done, or complete for a deleted page).
func (db *DB) SaveCrawl(ctx context.Context, runID uuid.UUID, slug, rawHTML string, httpStatus int, status ScrapeStatus) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE profiles SET raw_html = $1, http_status = $2, status = $3, updated_at = NOW()
		 WHERE run_id = $4 AND slug = $5`,
		rawHTML, httpStatus, string(status), runID, slug,
	)
	if err != nil {
		return fmt.Errorf("failed to save crawl for %s: %w", slug, err)
	}
	return nil
}

// SaveParse stores the extracted record and confidence as JSONB.
func (db *DB) SaveParse(ctx context.Context, runID uuid.UUID, slug string, record, confidence any) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record for %s: %w", slug, err)
	}
	confidenceJSON, err := json.Marshal(confidence)
	if err != nil {
		return fmt.Errorf("failed to marshal confidence for %s: %w", slug, err)
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE profiles SET record = $1, confidence = $2, status = 'parse_done', updated_at = NOW()
		 WHERE run_id = $3 AND slug = $4`,
		recordJSON, confidenceJSON, runID, slug,
	)
	if err != nil {
		return fmt.Errorf("failed to save parse for %s: %w", slug, err)
	}
	return nil
}

// SaveBooking stores the aggregated availability.
func (db *DB) SaveBooking(ctx context.Context, runID uuid.UUID, slug string, availability any) error {
	availJSON, err := json.Marshal(availability)
	if err != nil {
		return fmt.Errorf("failed to marshal availability for %s: %w", slug, err)
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE profiles SET availability = $1, status = 'booking_done', updated_at = NOW()
		 WHERE run_id = $2 AND slug = $3`,
		availJSON, runID, slug,
	)
	if err != nil {
		return fmt.Errorf("failed to save booking for %s: %w", slug, err)
	}
	return nil
}

// SaveAssessment stores the (possibly null) assessment.
func (db *DB) SaveAssessment(ctx context.Context, runID uuid.UUID, slug string, assessment any) error {
	assessJSON, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment for %s: %w", slug, err)
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE profiles SET assessment = $1, status = 'assess_done', updated_at = NOW()
		 WHERE run_id = $2 AND slug = $3`,
		assessJSON, runID, slug,
	)
	if err != nil {
		return fmt.Errorf("failed to save assessment for %s: %w", slug, err)
	}
	return nil
}

// SaveScore stores the scoring verdict and completes the profile.
func (db *DB) SaveScore(ctx context.Context, runID uuid.UUID, slug string, score float64, tier string, flags any) error {
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("failed to marshal flags for %s: %w", slug, err)
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE profiles SET score = $1, tier = $2, flags = $3, status = 'complete', updated_at = NOW()
		 WHERE run_id = $4 AND slug = $5`,
		score, tier, flagsJSON, runID, slug,
	)
	if err != nil {
		return fmt.Errorf("failed to save score for %s: %w", slug, err)
	}
	return nil
}

// MarkError downgrades a profile to the terminal error state with a
// stage-tagged message.
func (db *DB) MarkError(ctx context.Context, runID uuid.UUID, slug, message string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE profiles SET status = 'error', error_message = $1, updated_at = NOW()
		 WHERE run_id = $2 AND slug = $3`,
		message, runID, slug,
	)
	if err != nil {
		return fmt.Errorf("failed to mark error for %s: %w", slug, err)
	}
	return nil
}

const profileColumns = `run_id, slug, status, error_message, http_status, COALESCE(raw_html, ''),
	record, confidence, availability, assessment, score, tier, flags, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	var status string
	err := row.Scan(&p.RunID, &p.Slug, &status, &p.ErrorMessage, &p.HTTPStatus, &p.RawHTML,
		&p.Record, &p.Confidence, &p.Availability, &p.Assessment, &p.Score, &p.Tier, &p.Flags, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = ScrapeStatus(status)
	return &p, nil
}

// GetProfile retrieves one profile row, or nil when absent.
func (db *DB) GetProfile(ctx context.Context, runID uuid.UUID, slug string) (*Profile, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE run_id = $1 AND slug = $2`,
		runID, slug,
	)
	p, err := scanProfile(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", slug, err)
	}
	return p, nil
}

// ListProfiles retrieves all profile rows for a run, ordered by slug for
// deterministic iteration.
func (db *DB) ListProfiles(ctx context.Context, runID uuid.UUID) ([]Profile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE run_id = $1 ORDER BY slug ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, nil
}

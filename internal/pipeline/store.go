package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/callumw/profile-auditor/internal/db"
)

// Store is the persistence surface the orchestrator needs. *db.DB
// satisfies it; tests substitute an in-memory implementation.
type Store interface {
	CreateRun(ctx context.Context, configVersion string, totalProfiles int) (uuid.UUID, error)
	FinalizeRun(ctx context.Context, runID uuid.UUID, status string, successCount, errorCount int) error

	InitProfile(ctx context.Context, runID uuid.UUID, slug string) error
	GetProfile(ctx context.Context, runID uuid.UUID, slug string) (*db.Profile, error)
	ListProfiles(ctx context.Context, runID uuid.UUID) ([]db.Profile, error)
	SaveCrawl(ctx context.Context, runID uuid.UUID, slug, rawHTML string, httpStatus int, status db.ScrapeStatus) error
	SaveParse(ctx context.Context, runID uuid.UUID, slug string, record, confidence any) error
	SaveBooking(ctx context.Context, runID uuid.UUID, slug string, availability any) error
	SaveAssessment(ctx context.Context, runID uuid.UUID, slug string, assessment any) error
	SaveScore(ctx context.Context, runID uuid.UUID, slug string, score float64, tier string, flags any) error
	MarkError(ctx context.Context, runID uuid.UUID, slug, message string) error
}

var _ Store = (*db.DB)(nil)

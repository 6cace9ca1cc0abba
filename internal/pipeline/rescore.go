package pipeline

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/callumw/profile-auditor/internal/assessment"
	"github.com/callumw/profile-auditor/internal/booking"
	"github.com/callumw/profile-auditor/internal/db"
	"github.com/callumw/profile-auditor/internal/parsing"
	"github.com/callumw/profile-auditor/internal/scoring"
)

// Rescore recomputes score, tier, and flags for a run's completed profiles
// from their persisted stage results, with no network calls. It exists so a
// changed scoring config can be applied to an existing run without
// re-crawling. Profiles that never produced a parsed record (deleted pages,
// early errors) are left untouched. Returns the number of profiles
// re-scored.
func Rescore(ctx context.Context, store Store, runID uuid.UUID, cfg *scoring.Config) (int, error) {
	if cfg == nil {
		cfg = scoring.DefaultConfig()
	}

	profiles, err := store.ListProfiles(ctx, runID)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range profiles {
		p := &profiles[i]
		if p.Status != db.StatusComplete || len(p.Record) == 0 {
			continue
		}

		var record parsing.Record
		if err := json.Unmarshal(p.Record, &record); err != nil {
			return count, &StageError{Stage: StageScore, Slug: p.Slug, Cause: err}
		}

		var confidence *parsing.Confidence
		if len(p.Confidence) > 0 {
			confidence = &parsing.Confidence{}
			if err := json.Unmarshal(p.Confidence, confidence); err != nil {
				return count, &StageError{Stage: StageScore, Slug: p.Slug, Cause: err}
			}
		}

		var avail *booking.Availability
		if len(p.Availability) > 0 {
			avail = &booking.Availability{}
			if err := json.Unmarshal(p.Availability, avail); err != nil {
				return count, &StageError{Stage: StageScore, Slug: p.Slug, Cause: err}
			}
		}

		// A record without a stored assessment scores through the null
		// assessment's heuristic path, same as a live run would.
		assessed := assessment.NullAssessment()
		if len(p.Assessment) > 0 {
			assessed = &assessment.Assessment{}
			if err := json.Unmarshal(p.Assessment, assessed); err != nil {
				return count, &StageError{Stage: StageScore, Slug: p.Slug, Cause: err}
			}
		}

		result := scoring.Score(buildFeatures(&record, confidence, avail, assessed), cfg)
		if err := store.SaveScore(ctx, runID, p.Slug, result.Score, string(result.Tier), result.Flags); err != nil {
			return count, &StageError{Stage: StageScore, Slug: p.Slug, Cause: err}
		}
		count++
	}
	return count, nil
}

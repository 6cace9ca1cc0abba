package pipeline

import (
	"context"
	"testing"

	"github.com/callumw/profile-auditor/internal/assessment"
	"github.com/callumw/profile-auditor/internal/booking"
	"github.com/callumw/profile-auditor/internal/scoring"
)

func TestRescoreAppliesNewConfigWithoutRefetching(t *testing.T) {
	store := newMemStore()
	crawler := &fakeCrawler{
		pages:   map[string]string{"carter-john": testProfileHTML},
		missing: map[string]bool{"gone-profile": true},
	}
	booker := &fakeBooker{avail: &booking.Availability{State: booking.StateBookableSlots, SlotCount28d: 12}}
	assessor := &fakeAssessor{result: goodAssessment()}

	summary, err := Run(context.Background(), baseOptions(store, crawler, booker, assessor, "carter-john", "gone-profile"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	before := store.profile(t, summary.RunID, "carter-john")
	if before.Tier == nil || *before.Tier != "gold" {
		t.Fatalf("tier before re-score = %v, want gold", before.Tier)
	}

	crawlsBefore := len(crawler.calls)
	assessmentsBefore := assessor.calls

	// A stricter ruleset that puts gold out of reach of a perfect score.
	cfg := scoring.DefaultConfig()
	cfg.Version = "v2"
	cfg.Thresholds = scoring.Thresholds{Gold: 101, Silver: 65, Bronze: 40}

	count, err := Rescore(context.Background(), store, summary.RunID, cfg)
	if err != nil {
		t.Fatalf("Rescore: %v", err)
	}
	if count != 1 {
		t.Errorf("re-scored %d profiles, want 1", count)
	}

	after := store.profile(t, summary.RunID, "carter-john")
	if after.Score == nil || *after.Score != 100 {
		t.Errorf("score = %v, want unchanged 100", after.Score)
	}
	if after.Tier == nil || *after.Tier != "silver" {
		t.Errorf("tier = %v, want silver under the raised threshold", after.Tier)
	}

	// The deleted page has no record to score and must stay untouched.
	gone := store.profile(t, summary.RunID, "gone-profile")
	if gone.Score != nil || gone.Tier != nil {
		t.Errorf("deleted page re-scored: score=%v tier=%v", gone.Score, gone.Tier)
	}

	if len(crawler.calls) != crawlsBefore || assessor.calls != assessmentsBefore {
		t.Error("re-scoring touched the crawler or assessor")
	}
}

func TestRescoreUsesStoredStageResults(t *testing.T) {
	store := newMemStore()
	crawler := &fakeCrawler{pages: map[string]string{"carter-john": testProfileHTML}}
	booker := &fakeBooker{avail: &booking.Availability{State: booking.StateBookableNoSlots}}
	assessor := &fakeAssessor{result: assessment.NullAssessment()}

	summary, err := Run(context.Background(), baseOptions(store, crawler, booker, assessor, "carter-john"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	before := store.profile(t, summary.RunID, "carter-john")

	if _, err := Rescore(context.Background(), store, summary.RunID, nil); err != nil {
		t.Fatalf("Rescore: %v", err)
	}

	// Default config, unchanged inputs: the verdict must reproduce exactly
	// from the persisted record, availability, and assessment.
	after := store.profile(t, summary.RunID, "carter-john")
	if before.Score == nil || after.Score == nil || *before.Score != *after.Score {
		t.Errorf("score = %v, want reproduced %v", after.Score, before.Score)
	}
	if before.Tier == nil || after.Tier == nil || *before.Tier != *after.Tier {
		t.Errorf("tier = %v, want reproduced %v", after.Tier, before.Tier)
	}
}

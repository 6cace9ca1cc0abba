// Package pipeline drives each consultant profile through the crawl,
// parse, booking, assessment, and scoring stages, persisting state after
// every stage so an interrupted run can resume.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/callumw/profile-auditor/internal/assessment"
	"github.com/callumw/profile-auditor/internal/booking"
	"github.com/callumw/profile-auditor/internal/db"
	"github.com/callumw/profile-auditor/internal/fetch"
	"github.com/callumw/profile-auditor/internal/parsing"
	"github.com/callumw/profile-auditor/internal/scoring"
)

// Crawler fetches one profile page's rendered DOM.
type Crawler interface {
	Fetch(ctx context.Context, slug string) (*fetch.Result, error)
}

// Booker aggregates availability for a provider code.
type Booker interface {
	Availability(ctx context.Context, code string) (*booking.Availability, error)
}

// Assessor runs the AI assessment. It never fails; the worst outcome is
// the null assessment.
type Assessor interface {
	Assess(ctx context.Context, slug, content string) *assessment.Assessment
}

// RunOptions holds everything one pipeline run needs.
type RunOptions struct {
	Store    Store
	Crawler  Crawler
	Booker   Booker
	Assessor Assessor

	ScoringConfig *scoring.Config
	ParseOptions  *parsing.Options

	Slugs []string

	// ResumeRunID continues an earlier run instead of creating a new one.
	ResumeRunID uuid.UUID

	// ProfileDelay paces the sequential profile loop; BookingDelay
	// separates a profile's booking calls from the next crawl.
	ProfileDelay time.Duration
	BookingDelay time.Duration

	Verbose bool
}

// Summary is the finalized outcome of one run.
type Summary struct {
	RunID   uuid.UUID
	Status  string
	Total   int
	Success int
	Errors  int
}

// Run processes every slug sequentially, strictly in order. A profile
// failure is recorded and the loop continues; the run itself only fails
// when persistence of the run record is impossible.
func Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	cfg := opts.ScoringConfig
	if cfg == nil {
		cfg = scoring.DefaultConfig()
	}

	runID := opts.ResumeRunID
	if runID == uuid.Nil {
		var err error
		runID, err = opts.Store.CreateRun(ctx, cfg.Version, len(opts.Slugs))
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
	}

	// The profile loop is deliberately sequential: a politeness throttle
	// against the source site, and ordering determinism for resume.
	var pacer *rate.Limiter
	if opts.ProfileDelay > 0 {
		pacer = rate.NewLimiter(rate.Every(opts.ProfileDelay), 1)
	}

	summary := &Summary{RunID: runID, Total: len(opts.Slugs)}

	for _, slug := range opts.Slugs {
		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				log.Printf("[pipeline] run %s interrupted: %v (%d of %d profiles processed)",
					runID, err, summary.Success+summary.Errors, summary.Total)
				break
			}
		}

		if err := opts.Store.InitProfile(ctx, runID, slug); err != nil {
			summary.Errors++
			log.Printf("[pipeline] %s: %v", slug, err)
			continue
		}

		if err := processProfile(ctx, runID, slug, cfg, opts); err != nil {
			summary.Errors++
			log.Printf("[pipeline] %v", err)
			if markErr := opts.Store.MarkError(ctx, runID, slug, err.Error()); markErr != nil {
				log.Printf("[pipeline] failed to record error for %s: %v", slug, markErr)
			}
			continue
		}
		summary.Success++
	}

	summary.Status = db.RunStatusCompleted
	if summary.Total > 0 && summary.Errors == summary.Total {
		summary.Status = db.RunStatusFailed
	}
	if err := opts.Store.FinalizeRun(ctx, runID, summary.Status, summary.Success, summary.Errors); err != nil {
		return summary, fmt.Errorf("failed to finalize run: %w", err)
	}
	return summary, nil
}

// processProfile advances one slug through the remaining stages of its
// lifecycle. Already-persisted stages are skipped; the parse stage always
// re-derives its result in memory from the cached HTML rather than
// re-fetching.
func processProfile(ctx context.Context, runID uuid.UUID, slug string, cfg *scoring.Config, opts RunOptions) error {
	profile, err := opts.Store.GetProfile(ctx, runID, slug)
	if err != nil {
		return &StageError{Stage: StageCrawl, Slug: slug, Cause: err}
	}
	if profile == nil {
		return &StageError{Stage: StageCrawl, Slug: slug, Cause: fmt.Errorf("profile row missing after init")}
	}

	if profile.Status == db.StatusComplete {
		if opts.Verbose {
			log.Printf("[VERBOSE] %s already complete, skipping", slug)
		}
		return nil
	}
	// An errored profile restarts from the top on resume.
	if profile.Status == db.StatusError {
		profile.Status = db.StatusPending
	}

	// Crawl.
	html := profile.RawHTML
	if profile.Status.AtLeast(db.StatusCrawlDone) {
		if opts.Verbose {
			log.Printf("[VERBOSE] %s: using cached HTML (%d bytes)", slug, len(html))
		}
	} else {
		result, err := opts.Crawler.Fetch(ctx, slug)
		var notFound *fetch.NotFoundError
		if errors.As(err, &notFound) {
			// The page is gone. Mark the profile deleted-complete and
			// skip every remaining stage.
			if saveErr := opts.Store.SaveCrawl(ctx, runID, slug, "", 404, db.StatusComplete); saveErr != nil {
				return &StageError{Stage: StageCrawl, Slug: slug, Cause: saveErr}
			}
			log.Printf("[pipeline] %s: page deleted (404)", slug)
			return nil
		}
		if err != nil {
			return &StageError{Stage: StageCrawl, Slug: slug, Cause: err}
		}
		if err := opts.Store.SaveCrawl(ctx, runID, slug, result.HTML, result.StatusCode, db.StatusCrawlDone); err != nil {
			return &StageError{Stage: StageCrawl, Slug: slug, Cause: err}
		}
		html = result.HTML
	}

	// Parse. Re-run even when persisted: downstream stages need the
	// in-memory record, and parsing is deterministic over the cached page.
	record, confidence, err := parsing.ParseProfile(html, slug, opts.ParseOptions)
	if err != nil {
		return &StageError{Stage: StageParse, Slug: slug, Cause: err}
	}
	if opts.Verbose {
		if low := confidence.LowFields(); len(low) > 0 {
			log.Printf("[VERBOSE] %s: low-confidence fields: %s", slug, strings.Join(low, ", "))
		}
	}
	if !profile.Status.AtLeast(db.StatusParseDone) {
		if err := opts.Store.SaveParse(ctx, runID, slug, record, confidence); err != nil {
			return &StageError{Stage: StageParse, Slug: slug, Cause: err}
		}
	}

	// Booking.
	var avail *booking.Availability
	if profile.Status.AtLeast(db.StatusBookingDone) && len(profile.Availability) > 0 {
		avail = &booking.Availability{}
		if err := json.Unmarshal(profile.Availability, avail); err != nil {
			return &StageError{Stage: StageBooking, Slug: slug, Cause: err}
		}
	} else {
		if record.ProviderCode == "" {
			// No numeric registration number means no booking identity.
			avail = &booking.Availability{State: booking.StateNotBookable}
		} else {
			avail, err = opts.Booker.Availability(ctx, record.ProviderCode)
			if err != nil {
				return &StageError{Stage: StageBooking, Slug: slug, Cause: err}
			}
		}
		if err := opts.Store.SaveBooking(ctx, runID, slug, avail); err != nil {
			return &StageError{Stage: StageBooking, Slug: slug, Cause: err}
		}
		if err := sleepCtx(ctx, opts.BookingDelay); err != nil {
			return &StageError{Stage: StageBooking, Slug: slug, Cause: err}
		}
	}

	// Assess.
	var assessed *assessment.Assessment
	if profile.Status.AtLeast(db.StatusAssessDone) && len(profile.Assessment) > 0 {
		assessed = &assessment.Assessment{}
		if err := json.Unmarshal(profile.Assessment, assessed); err != nil {
			return &StageError{Stage: StageAssess, Slug: slug, Cause: err}
		}
	} else {
		assessed = opts.Assessor.Assess(ctx, slug, assessmentContent(record))
		if err := opts.Store.SaveAssessment(ctx, runID, slug, assessed); err != nil {
			return &StageError{Stage: StageAssess, Slug: slug, Cause: err}
		}
	}

	// Score.
	result := scoring.Score(buildFeatures(record, confidence, avail, assessed), cfg)
	if err := opts.Store.SaveScore(ctx, runID, slug, result.Score, string(result.Tier), result.Flags); err != nil {
		return &StageError{Stage: StageScore, Slug: slug, Cause: err}
	}

	if opts.Verbose {
		log.Printf("[VERBOSE] %s: score %.1f tier %s (%d flags)", slug, result.Score, result.Tier, len(result.Flags))
	}
	return nil
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

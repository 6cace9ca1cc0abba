package db

import (
	"time"

	"github.com/google/uuid"
)

// ScrapeStatus is the per-profile pipeline lifecycle. It only ever moves
// forward; a profile never regresses except via a full re-run.
type ScrapeStatus string

const (
	StatusPending     ScrapeStatus = "pending"
	StatusCrawlDone   ScrapeStatus = "crawl_done"
	StatusParseDone   ScrapeStatus = "parse_done"
	StatusBookingDone ScrapeStatus = "booking_done"
	StatusAssessDone  ScrapeStatus = "assess_done"
	StatusComplete    ScrapeStatus = "complete"
	StatusError       ScrapeStatus = "error"
)

// statusOrder positions each status on the lifecycle. Error sits outside
// the ordering.
var statusOrder = map[ScrapeStatus]int{
	StatusPending:     0,
	StatusCrawlDone:   1,
	StatusParseDone:   2,
	StatusBookingDone: 3,
	StatusAssessDone:  4,
	StatusComplete:    5,
}

// AtLeast reports whether s has reached stage other on the lifecycle.
func (s ScrapeStatus) AtLeast(other ScrapeStatus) bool {
	a, okA := statusOrder[s]
	b, okB := statusOrder[other]
	return okA && okB && a >= b
}

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one pipeline execution's summary record.
type Run struct {
	ID            uuid.UUID  `json:"id"`
	ConfigVersion string     `json:"config_version"`
	Status        string     `json:"status"`
	TotalProfiles int        `json:"total_profiles"`
	SuccessCount  int        `json:"success_count"`
	ErrorCount    int        `json:"error_count"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// Profile is one (run, slug) row: pipeline state, cached page, and the
// per-stage results as stored JSON.
type Profile struct {
	RunID        uuid.UUID    `json:"run_id"`
	Slug         string       `json:"slug"`
	Status       ScrapeStatus `json:"status"`
	ErrorMessage *string      `json:"error_message,omitempty"`

	// Crawl stage: cached page for resume replay.
	HTTPStatus *int   `json:"http_status,omitempty"`
	RawHTML    string `json:"-"`

	// Stage results, stored as JSONB.
	Record       []byte `json:"record,omitempty"`
	Confidence   []byte `json:"confidence,omitempty"`
	Availability []byte `json:"availability,omitempty"`
	Assessment   []byte `json:"assessment,omitempty"`

	Score *float64 `json:"score,omitempty"`
	Tier  *string  `json:"tier,omitempty"`
	Flags []byte   `json:"flags,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

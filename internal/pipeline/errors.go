package pipeline

import "fmt"

// Stage names used in error tagging and logs.
const (
	StageCrawl   = "crawl"
	StageParse   = "parse"
	StageBooking = "booking"
	StageAssess  = "assess"
	StageScore   = "score"
)

// StageError tags a profile failure with the pipeline stage it happened in.
// One profile's StageError never aborts the run; it is recorded against
// that profile and the loop moves on.
type StageError struct {
	Stage string
	Slug  string
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Slug, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/callumw/profile-auditor/internal/assessment"
	"github.com/callumw/profile-auditor/internal/booking"
	"github.com/callumw/profile-auditor/internal/db"
	"github.com/callumw/profile-auditor/internal/fetch"
	"github.com/callumw/profile-auditor/internal/scoring"
)

var longBio = strings.Repeat("Mr Carter is a consultant orthopaedic surgeon with a specialist interest in knee reconstruction. ", 15)

var testProfileHTML = `<html><body>
<div class="profile-photo"><img src="https://cdn.example.com/carter.jpg"></div>
<h1 itemprop="name">Mr John Carter</h1>
<p>GMC number: 1234567</p>
<h2>About</h2><p>` + longBio + `</p>
<h2>Specialties</h2><ul><li>Orthopaedic surgery</li></ul>
<h2>Treatments offered</h2><ul><li>Knee replacement</li></ul>
<h2>Qualifications</h2><p>MBBS, FRCS (Tr &amp; Orth)</p>
<h2>Memberships</h2><ul><li>Royal College of Surgeons</li></ul>
<h3>Practising since 1998</h3>
</body></html>`

// memStore is an in-memory Store for orchestrator tests.
type memStore struct {
	mu        sync.Mutex
	nextRun   uuid.UUID
	runs      map[uuid.UUID]*db.Run
	profiles  map[string]*db.Profile
	finalized map[uuid.UUID]string
}

func newMemStore() *memStore {
	return &memStore{
		runs:      make(map[uuid.UUID]*db.Run),
		profiles:  make(map[string]*db.Profile),
		finalized: make(map[uuid.UUID]string),
	}
}

func key(runID uuid.UUID, slug string) string {
	return runID.String() + "/" + slug
}

func (m *memStore) CreateRun(ctx context.Context, configVersion string, total int) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextRun
	if id == uuid.Nil {
		id = uuid.New()
	}
	m.runs[id] = &db.Run{ID: id, ConfigVersion: configVersion, TotalProfiles: total, Status: db.RunStatusRunning}
	return id, nil
}

func (m *memStore) FinalizeRun(ctx context.Context, runID uuid.UUID, status string, success, errCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finalized[runID] = status
	if run, ok := m.runs[runID]; ok {
		run.Status = status
		run.SuccessCount = success
		run.ErrorCount = errCount
	}
	return nil
}

func (m *memStore) InitProfile(ctx context.Context, runID uuid.UUID, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[key(runID, slug)]; !ok {
		m.profiles[key(runID, slug)] = &db.Profile{RunID: runID, Slug: slug, Status: db.StatusPending}
	}
	return nil
}

func (m *memStore) GetProfile(ctx context.Context, runID uuid.UUID, slug string) (*db.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[key(runID, slug)]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *memStore) SaveCrawl(ctx context.Context, runID uuid.UUID, slug, rawHTML string, httpStatus int, status db.ScrapeStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profiles[key(runID, slug)]
	p.RawHTML = rawHTML
	p.HTTPStatus = &httpStatus
	p.Status = status
	return nil
}

func (m *memStore) ListProfiles(ctx context.Context, runID uuid.UUID) ([]db.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Profile
	for _, p := range m.profiles {
		if p.RunID == runID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *memStore) SaveParse(ctx context.Context, runID uuid.UUID, slug string, record, confidence any) error {
	if err := m.saveJSON(runID, slug, db.StatusParseDone, record, func(p *db.Profile, data []byte) { p.Record = data }); err != nil {
		return err
	}
	return m.saveJSON(runID, slug, db.StatusParseDone, confidence, func(p *db.Profile, data []byte) { p.Confidence = data })
}

func (m *memStore) SaveBooking(ctx context.Context, runID uuid.UUID, slug string, availability any) error {
	return m.saveJSON(runID, slug, db.StatusBookingDone, availability, func(p *db.Profile, data []byte) { p.Availability = data })
}

func (m *memStore) SaveAssessment(ctx context.Context, runID uuid.UUID, slug string, a any) error {
	return m.saveJSON(runID, slug, db.StatusAssessDone, a, func(p *db.Profile, data []byte) { p.Assessment = data })
}

func (m *memStore) saveJSON(runID uuid.UUID, slug string, status db.ScrapeStatus, v any, assign func(*db.Profile, []byte)) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profiles[key(runID, slug)]
	assign(p, data)
	p.Status = status
	return nil
}

func (m *memStore) SaveScore(ctx context.Context, runID uuid.UUID, slug string, score float64, tier string, flags any) error {
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profiles[key(runID, slug)]
	p.Score = &score
	p.Tier = &tier
	p.Flags = flagsJSON
	p.Status = db.StatusComplete
	return nil
}

func (m *memStore) MarkError(ctx context.Context, runID uuid.UUID, slug, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profiles[key(runID, slug)]
	p.Status = db.StatusError
	p.ErrorMessage = &message
	return nil
}

func (m *memStore) profile(t *testing.T, runID uuid.UUID, slug string) *db.Profile {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[key(runID, slug)]
	if !ok {
		t.Fatalf("no profile stored for %s", slug)
	}
	copied := *p
	return &copied
}

// fakeCrawler serves canned pages.
type fakeCrawler struct {
	pages   map[string]string
	missing map[string]bool
	failing map[string]bool
	calls   []string
}

func (f *fakeCrawler) Fetch(ctx context.Context, slug string) (*fetch.Result, error) {
	f.calls = append(f.calls, slug)
	if f.missing[slug] {
		return &fetch.Result{StatusCode: 404}, &fetch.NotFoundError{URL: slug}
	}
	if f.failing[slug] {
		return nil, errors.New("connection reset")
	}
	html, ok := f.pages[slug]
	if !ok {
		return nil, fmt.Errorf("no page for %s", slug)
	}
	return &fetch.Result{URL: slug, HTML: html, StatusCode: 200}, nil
}

type fakeBooker struct {
	avail *booking.Availability
	err   error
	calls []string
}

func (f *fakeBooker) Availability(ctx context.Context, code string) (*booking.Availability, error) {
	f.calls = append(f.calls, code)
	if f.err != nil {
		return nil, f.err
	}
	return f.avail, nil
}

type fakeAssessor struct {
	result *assessment.Assessment
	calls  int
}

func (f *fakeAssessor) Assess(ctx context.Context, slug, content string) *assessment.Assessment {
	f.calls++
	return f.result
}

func goodAssessment() *assessment.Assessment {
	return &assessment.Assessment{
		BioDepth:                   assessment.BioDepthComprehensive,
		TreatmentSpecificity:       assessment.TreatmentsSpecific,
		QualificationsCompleteness: assessment.QualificationsComplete,
		PlainEnglishScore:          4,
		Interests:                  []string{},
		Languages:                  []string{},
	}
}

func baseOptions(store Store, crawler Crawler, booker Booker, assessor Assessor, slugs ...string) RunOptions {
	return RunOptions{
		Store:    store,
		Crawler:  crawler,
		Booker:   booker,
		Assessor: assessor,
		Slugs:    slugs,
	}
}

func TestRunProcessesProfilesInOrder(t *testing.T) {
	store := newMemStore()
	crawler := &fakeCrawler{pages: map[string]string{
		"adams-kate":  testProfileHTML,
		"carter-john": testProfileHTML,
	}}
	booker := &fakeBooker{avail: &booking.Availability{State: booking.StateBookableSlots, SlotCount28d: 12}}
	assessor := &fakeAssessor{result: goodAssessment()}

	summary, err := Run(context.Background(), baseOptions(store, crawler, booker, assessor, "adams-kate", "carter-john"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Success != 2 || summary.Errors != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Status != db.RunStatusCompleted {
		t.Errorf("status = %q", summary.Status)
	}
	if len(crawler.calls) != 2 || crawler.calls[0] != "adams-kate" || crawler.calls[1] != "carter-john" {
		t.Errorf("crawl order = %v", crawler.calls)
	}
	for _, code := range booker.calls {
		if code != "1234567" {
			t.Errorf("booker called with code %q", code)
		}
	}

	p := store.profile(t, summary.RunID, "carter-john")
	if p.Status != db.StatusComplete {
		t.Errorf("profile status = %q", p.Status)
	}
	if p.Score == nil || p.Tier == nil {
		t.Fatal("score or tier not persisted")
	}
	if *p.Tier != "gold" {
		t.Errorf("tier = %q, want gold", *p.Tier)
	}
}

func TestRunContinuesAfterProfileFailure(t *testing.T) {
	store := newMemStore()
	crawler := &fakeCrawler{
		pages:   map[string]string{"carter-john": testProfileHTML},
		failing: map[string]bool{"broken-page": true},
	}
	booker := &fakeBooker{avail: &booking.Availability{State: booking.StateBookableSlots}}
	assessor := &fakeAssessor{result: goodAssessment()}

	summary, err := Run(context.Background(), baseOptions(store, crawler, booker, assessor, "broken-page", "carter-john"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Success != 1 || summary.Errors != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Status != db.RunStatusCompleted {
		t.Errorf("status = %q, one failure must not fail the run", summary.Status)
	}

	p := store.profile(t, summary.RunID, "broken-page")
	if p.Status != db.StatusError {
		t.Errorf("failed profile status = %q", p.Status)
	}
	if p.ErrorMessage == nil || !strings.HasPrefix(*p.ErrorMessage, "[crawl]") {
		t.Errorf("error message = %v, want crawl stage tag", p.ErrorMessage)
	}
}

func TestRunFailsOnlyWhenEveryProfileErrors(t *testing.T) {
	store := newMemStore()
	crawler := &fakeCrawler{failing: map[string]bool{"a": true, "b": true}}

	summary, err := Run(context.Background(), baseOptions(store, crawler, &fakeBooker{}, &fakeAssessor{result: goodAssessment()}, "a", "b"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Status != db.RunStatusFailed {
		t.Errorf("status = %q, want failed when every profile errored", summary.Status)
	}
}

func TestCrawl404ShortCircuitsToComplete(t *testing.T) {
	store := newMemStore()
	crawler := &fakeCrawler{missing: map[string]bool{"gone-profile": true}}
	booker := &fakeBooker{}
	assessor := &fakeAssessor{result: goodAssessment()}

	summary, err := Run(context.Background(), baseOptions(store, crawler, booker, assessor, "gone-profile"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Success != 1 {
		t.Errorf("deleted page counted as %+v, want success", summary)
	}
	p := store.profile(t, summary.RunID, "gone-profile")
	if p.Status != db.StatusComplete {
		t.Errorf("status = %q, want complete", p.Status)
	}
	if p.HTTPStatus == nil || *p.HTTPStatus != 404 {
		t.Errorf("http status = %v, want 404", p.HTTPStatus)
	}
	if len(booker.calls) != 0 || assessor.calls != 0 {
		t.Error("remaining stages ran for a deleted page")
	}
}

func TestBookingFailureIsStageTagged(t *testing.T) {
	store := newMemStore()
	crawler := &fakeCrawler{pages: map[string]string{"carter-john": testProfileHTML}}
	booker := &fakeBooker{err: &booking.APIError{Endpoint: "clinic-days", Code: "1234567", Message: "retries exhausted"}}

	summary, err := Run(context.Background(), baseOptions(store, crawler, booker, &fakeAssessor{result: goodAssessment()}, "carter-john"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Errors != 1 {
		t.Errorf("summary = %+v", summary)
	}
	p := store.profile(t, summary.RunID, "carter-john")
	if p.ErrorMessage == nil || !strings.HasPrefix(*p.ErrorMessage, "[booking]") {
		t.Errorf("error message = %v, want booking stage tag", p.ErrorMessage)
	}
}

func TestNoProviderCodeSkipsBookingAPI(t *testing.T) {
	html := `<html><body><h1>Ms Jane Field</h1><p>GMC number: HCPC-AB12345</p>
<h2>About</h2><p>` + longBio + `</p></body></html>`

	store := newMemStore()
	crawler := &fakeCrawler{pages: map[string]string{"jane-field": html}}
	booker := &fakeBooker{}
	assessor := &fakeAssessor{result: goodAssessment()}

	summary, err := Run(context.Background(), baseOptions(store, crawler, booker, assessor, "jane-field"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Success != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if len(booker.calls) != 0 {
		t.Errorf("booker called %v despite missing provider code", booker.calls)
	}

	p := store.profile(t, summary.RunID, "jane-field")
	var avail booking.Availability
	if err := json.Unmarshal(p.Availability, &avail); err != nil {
		t.Fatalf("unmarshal availability: %v", err)
	}
	if avail.State != booking.StateNotBookable {
		t.Errorf("state = %q, want not_bookable", avail.State)
	}
}

func TestResumeSkipsPersistedStages(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	runID, err := store.CreateRun(ctx, "v1", 1)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := store.InitProfile(ctx, runID, "carter-john"); err != nil {
		t.Fatalf("InitProfile: %v", err)
	}
	if err := store.SaveCrawl(ctx, runID, "carter-john", testProfileHTML, 200, db.StatusCrawlDone); err != nil {
		t.Fatalf("SaveCrawl: %v", err)
	}
	if err := store.SaveParse(ctx, runID, "carter-john", map[string]any{}, map[string]any{}); err != nil {
		t.Fatalf("SaveParse: %v", err)
	}
	if err := store.SaveBooking(ctx, runID, "carter-john", &booking.Availability{State: booking.StateBookableNoSlots}); err != nil {
		t.Fatalf("SaveBooking: %v", err)
	}

	crawler := &fakeCrawler{}
	booker := &fakeBooker{avail: &booking.Availability{State: booking.StateBookableSlots}}
	assessor := &fakeAssessor{result: goodAssessment()}

	opts := baseOptions(store, crawler, booker, assessor, "carter-john")
	opts.ResumeRunID = runID

	summary, err := Run(ctx, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.RunID != runID {
		t.Errorf("run ID = %s, want resumed %s", summary.RunID, runID)
	}
	if summary.Success != 1 {
		t.Errorf("summary = %+v", summary)
	}

	// Crawl and booking were persisted; only assess and score should run.
	if len(crawler.calls) != 0 {
		t.Errorf("crawler re-fetched %v on resume", crawler.calls)
	}
	if len(booker.calls) != 0 {
		t.Errorf("booker re-queried %v on resume", booker.calls)
	}
	if assessor.calls != 1 {
		t.Errorf("assessor calls = %d, want 1", assessor.calls)
	}

	p := store.profile(t, runID, "carter-john")
	if p.Status != db.StatusComplete {
		t.Errorf("status = %q", p.Status)
	}
	// The persisted no-slots availability must drive scoring, not a fresh
	// booking query.
	var avail booking.Availability
	if err := json.Unmarshal(p.Availability, &avail); err != nil {
		t.Fatalf("unmarshal availability: %v", err)
	}
	if avail.State != booking.StateBookableNoSlots {
		t.Errorf("state = %q, want persisted bookable_no_slots", avail.State)
	}
}

func TestResumeSkipsCompletedProfiles(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	runID, _ := store.CreateRun(ctx, "v1", 1)
	_ = store.InitProfile(ctx, runID, "done-profile")
	_ = store.SaveCrawl(ctx, runID, "done-profile", testProfileHTML, 200, db.StatusCrawlDone)
	_ = store.SaveScore(ctx, runID, "done-profile", 90, "silver", []any{})

	crawler := &fakeCrawler{}
	assessor := &fakeAssessor{result: goodAssessment()}
	opts := baseOptions(store, crawler, &fakeBooker{}, assessor, "done-profile")
	opts.ResumeRunID = runID

	summary, err := Run(ctx, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Success != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if len(crawler.calls) != 0 || assessor.calls != 0 {
		t.Error("completed profile was reprocessed")
	}

	p := store.profile(t, runID, "done-profile")
	if p.Score == nil || *p.Score != 90 {
		t.Errorf("score = %v, want untouched 90", p.Score)
	}
}

func TestNullAssessmentStillCompletesProfile(t *testing.T) {
	store := newMemStore()
	crawler := &fakeCrawler{pages: map[string]string{"carter-john": testProfileHTML}}
	booker := &fakeBooker{avail: &booking.Availability{State: booking.StateBookableSlots}}
	assessor := &fakeAssessor{result: assessment.NullAssessment()}

	summary, err := Run(context.Background(), baseOptions(store, crawler, booker, assessor, "carter-john"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Success != 1 {
		t.Errorf("summary = %+v", summary)
	}

	p := store.profile(t, summary.RunID, "carter-john")
	if p.Status != db.StatusComplete {
		t.Errorf("status = %q, scoring must proceed past a failed assessment", p.Status)
	}
	// The long About text substitutes a comprehensive heuristic depth, so
	// the bio dimension still earns credit.
	if p.Score == nil || *p.Score < 50 {
		t.Errorf("score = %v, want bio credit from the heuristic depth", p.Score)
	}
}

func TestLowConfidenceExtractionFlagsProfile(t *testing.T) {
	// The name can only come from the heading fallback here, so the parser
	// reports it low-confidence and the verdict must carry the diagnostic.
	html := `<html><body><h2>Dr Jane Doe</h2>
<h2>About</h2><p>` + longBio + `</p></body></html>`

	store := newMemStore()
	crawler := &fakeCrawler{pages: map[string]string{"jane-doe": html}}
	booker := &fakeBooker{}
	assessor := &fakeAssessor{result: goodAssessment()}

	summary, err := Run(context.Background(), baseOptions(store, crawler, booker, assessor, "jane-doe"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Success != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	p := store.profile(t, summary.RunID, "jane-doe")
	var flags []scoring.Flag
	if err := json.Unmarshal(p.Flags, &flags); err != nil {
		t.Fatalf("unmarshal flags: %v", err)
	}
	found := false
	for _, f := range flags {
		if f.Code == scoring.FlagLowConfidence {
			found = true
			if !strings.Contains(f.Message, "name") {
				t.Errorf("flag message %q must name the low-confidence field", f.Message)
			}
		}
	}
	if !found {
		t.Errorf("flags = %v, want %s", flags, scoring.FlagLowConfidence)
	}
}

func TestCancelledRunLogsInterruptionAndFinalizes(t *testing.T) {
	store := newMemStore()
	crawler := &fakeCrawler{pages: map[string]string{
		"a": testProfileHTML,
		"b": testProfileHTML,
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := baseOptions(store, crawler, &fakeBooker{}, &fakeAssessor{result: goodAssessment()}, "a", "b")
	opts.ProfileDelay = 10 * time.Millisecond

	var logBuf bytes.Buffer
	log.SetOutput(&logBuf)
	defer log.SetOutput(os.Stderr)

	summary, err := Run(ctx, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(crawler.calls) != 0 {
		t.Errorf("crawler called %v after cancellation", crawler.calls)
	}
	if summary.Success != 0 || summary.Errors != 0 {
		t.Errorf("summary = %+v, want no profiles touched", summary)
	}
	// The run record is still finalized so the operator can resume it.
	if store.finalized[summary.RunID] == "" {
		t.Error("interrupted run was not finalized")
	}
	// The early stop must be visible in the log, with the progress count.
	logged := logBuf.String()
	if !strings.Contains(logged, "interrupted") || !strings.Contains(logged, "0 of 2") {
		t.Errorf("log output %q missing interruption notice", logged)
	}
}

func TestProfileDelayPacesLoop(t *testing.T) {
	store := newMemStore()
	crawler := &fakeCrawler{pages: map[string]string{
		"a": testProfileHTML,
		"b": testProfileHTML,
	}}
	booker := &fakeBooker{avail: &booking.Availability{State: booking.StateBookableSlots}}

	opts := baseOptions(store, crawler, booker, &fakeAssessor{result: goodAssessment()}, "a", "b")
	opts.ProfileDelay = 30 * time.Millisecond

	start := time.Now()
	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Two waits at 30ms spacing: the second profile cannot start before
	// ~30ms in.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("elapsed = %v, expected pacing delay", elapsed)
	}
}

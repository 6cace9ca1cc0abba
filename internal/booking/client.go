package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// subscriptionHeader carries the provider's API key on every endpoint.
const subscriptionHeader = "Ocp-Apim-Subscription-Key"

const (
	// windowDays bounds the slot count that drives the booking state.
	windowDays = 28
	// defaultLookaheadDays is the clinic-days listing span; the earliest
	// available date is computed across this full window.
	defaultLookaheadDays = 180
)

// errNotFound marks a 404, which is a defined empty-result response on all
// three provider endpoints, never an error.
var errNotFound = errors.New("booking: not found")

// Config holds client construction parameters.
type Config struct {
	BaseURL         string
	SubscriptionKey string
	LookaheadDays   int
	Timeout         time.Duration
	RetryPolicy     RetryPolicy
	// Jitter overrides the backoff jitter source; nil uses U[0.8, 1.2).
	Jitter JitterSource
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// Client queries the booking provider API. All requests across the run are
// gated by one shared Limiter.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	key           string
	limiter       *Limiter
	policy        RetryPolicy
	jitter        JitterSource
	now           func() time.Time
	lookaheadDays int
}

// NewClient creates a booking client sharing the given limiter.
func NewClient(cfg Config, limiter *Limiter) *Client {
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = defaultLookaheadDays
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Jitter == nil {
		cfg.Jitter = defaultJitter
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if limiter == nil {
		limiter = NewLimiter(4)
	}
	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       cfg.BaseURL,
		key:           cfg.SubscriptionKey,
		limiter:       limiter,
		policy:        cfg.RetryPolicy,
		jitter:        cfg.Jitter,
		now:           cfg.Now,
		lookaheadDays: cfg.LookaheadDays,
	}
}

// Availability aggregates slot availability and pricing for one provider
// code.
func (c *Client) Availability(ctx context.Context, code string) (*Availability, error) {
	from := c.now()
	fromDate := from.Format("2006-01-02")

	days, err := c.clinicDays(ctx, code, fromDate)
	if errors.Is(err, errNotFound) {
		// No clinic-days listing means the consultant is simply not
		// bookable; this is a terminal result, not a failure.
		return &Availability{State: StateNotBookable}, nil
	}
	if err != nil {
		return nil, err
	}

	pairs := dedupePairs(days)

	var (
		mu    sync.Mutex
		slots []time.Time
		price *float64
	)

	g, gCtx := errgroup.WithContext(ctx)
	for _, pair := range pairs {
		pair := pair
		g.Go(func() error {
			found, err := c.slots(gCtx, code, pair.facility, pair.date)
			if err != nil {
				return err
			}
			mu.Lock()
			slots = append(slots, found...)
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		p, err := c.pricing(gCtx, code)
		if err != nil {
			return err
		}
		mu.Lock()
		price = p
		mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return aggregate(from, pairs, slots, price), nil
}

// dedupePairs flattens the listing into unique (date, facility) pairs so
// each pair is queried exactly once, preserving first-seen order.
func dedupePairs(days []clinicDay) []dayFacility {
	seen := make(map[dayFacility]bool, len(days))
	var pairs []dayFacility
	for _, day := range days {
		pair := dayFacility{date: day.Date, facility: day.FacilityID}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		pairs = append(pairs, pair)
	}
	return pairs
}

// aggregate computes the two availability metrics independently: the 28-day
// window count drives the booking state and slots-per-day average, while
// the earliest slot across the full lookahead window drives next-available.
func aggregate(from time.Time, pairs []dayFacility, slots []time.Time, price *float64) *Availability {
	windowEnd := from.AddDate(0, 0, windowDays)

	count28 := 0
	var earliest *time.Time
	for _, s := range slots {
		if s.Before(windowEnd) {
			count28++
		}
		if earliest == nil || s.Before(*earliest) {
			t := s
			earliest = &t
		}
	}

	clinicDates := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		clinicDates[pair.date] = true
	}

	avail := &Availability{
		SlotCount28d:   count28,
		ClinicDayCount: len(clinicDates),
		AvgSlotsPerDay: float64(count28) / float64(windowDays),
		NextAvailable:  earliest,
		MinPrice:       price,
	}
	if earliest != nil {
		days := int(earliest.Sub(from).Hours() / 24)
		if days < 0 {
			days = 0
		}
		avail.DaysToFirstAvailable = &days
	}

	if count28 > 0 {
		avail.State = StateBookableSlots
	} else {
		avail.State = StateBookableNoSlots
	}
	return avail
}

func (c *Client) clinicDays(ctx context.Context, code, fromDate string) ([]clinicDay, error) {
	query := url.Values{
		"code":     {code},
		"span":     {fmt.Sprintf("%d", c.lookaheadDays)},
		"fromDate": {fromDate},
	}
	body, err := c.get(ctx, "/v1/clinic-days", query, code)
	if err != nil {
		return nil, err
	}

	var days []clinicDay
	if err := json.Unmarshal(body, &days); err != nil {
		return nil, &APIError{Endpoint: "clinic-days", Code: code, Message: "malformed listing", Cause: err}
	}
	return days, nil
}

func (c *Client) slots(ctx context.Context, code, facilityID, fromDate string) ([]time.Time, error) {
	query := url.Values{
		"correlationId": {uuid.NewString()},
		"code":          {code},
		"facilityId":    {facilityID},
		"fromDate":      {fromDate},
	}
	body, err := c.get(ctx, "/v1/slots", query, code)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var found []slot
	if err := json.Unmarshal(body, &found); err != nil {
		return nil, &APIError{Endpoint: "slots", Code: code, Message: "malformed slot response", Cause: err}
	}
	times := make([]time.Time, 0, len(found))
	for _, s := range found {
		times = append(times, s.Start)
	}
	return times, nil
}

// pricing returns the minimum numeric price across all entries; a 404 or an
// entirely price-less response yields nil, never an error.
func (c *Client) pricing(ctx context.Context, code string) (*float64, error) {
	body, err := c.get(ctx, "/v1/pricing/"+url.PathEscape(code), nil, code)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []priceEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &APIError{Endpoint: "pricing", Code: code, Message: "malformed pricing response", Cause: err}
	}

	var min *float64
	for _, entry := range entries {
		if entry.Price == nil {
			continue
		}
		if min == nil || *entry.Price < *min {
			p := *entry.Price
			min = &p
		}
	}
	return min, nil
}

// get performs one logical GET with per-class bounded retries. Every
// individual attempt holds a limiter slot only for the duration of the HTTP
// call; backoff sleeps happen with the slot released.
func (c *Client) get(ctx context.Context, path string, query url.Values, code string) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	attemptsByClass := make(map[outcomeClass]int)
	for {
		body, class, err := c.attempt(ctx, endpoint)
		switch class {
		case classSuccess:
			return body, nil
		case classNotFound:
			return nil, errNotFound
		}

		policy, retryable := c.policy.forClass(class)
		attempt := attemptsByClass[class]
		attemptsByClass[class]++
		if !retryable || attempt >= policy.MaxRetries {
			return nil, &APIError{
				Endpoint: path,
				Code:     code,
				Class:    string(class),
				Attempts: attempt + 1,
				Message:  "retries exhausted",
				Cause:    err,
			}
		}
		if err := sleepCtx(ctx, backoffDelay(policy.BaseDelay, attempt, c.jitter)); err != nil {
			return nil, err
		}
	}
}

// attempt issues one HTTP request under the limiter. The release is
// deferred so it runs on every path, including transport failures.
func (c *Client) attempt(ctx context.Context, endpoint string) ([]byte, outcomeClass, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, classTimeout, err
	}
	defer c.limiter.Release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, classServerError, err
	}
	req.Header.Set(subscriptionHeader, c.key)

	resp, err := c.httpClient.Do(req)
	class := classifyOutcome(resp, err)
	if err != nil {
		return nil, class, err
	}
	defer func() { _ = resp.Body.Close() }()

	if class != classSuccess {
		return nil, class, fmt.Errorf("HTTP status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classServerError, err
	}
	return body, classSuccess, nil
}

package booking

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// outcomeClass buckets one HTTP attempt's result. Each retryable class
// carries its own retry budget and base delay.
type outcomeClass string

const (
	classSuccess     outcomeClass = "success"
	classNotFound    outcomeClass = "not_found"
	classRateLimited outcomeClass = "rate_limited" // 429
	classUnavailable outcomeClass = "unavailable"  // 503
	classServerError outcomeClass = "server_error" // other 5xx
	classTimeout     outcomeClass = "timeout"
)

// classPolicy is the retry budget for one outcome class.
type classPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// RetryPolicy holds per-class retry budgets.
type RetryPolicy struct {
	RateLimited classPolicy
	Unavailable classPolicy
	ServerError classPolicy
	Timeout     classPolicy
}

// DefaultRetryPolicy mirrors the provider's documented politeness guidance:
// 429s back off longest, transient 503s retry quickly.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		RateLimited: classPolicy{MaxRetries: 5, BaseDelay: 2 * time.Second},
		Unavailable: classPolicy{MaxRetries: 3, BaseDelay: 500 * time.Millisecond},
		ServerError: classPolicy{MaxRetries: 2, BaseDelay: 1 * time.Second},
		Timeout:     classPolicy{MaxRetries: 2, BaseDelay: 1 * time.Second},
	}
}

func (p RetryPolicy) forClass(class outcomeClass) (classPolicy, bool) {
	switch class {
	case classRateLimited:
		return p.RateLimited, true
	case classUnavailable:
		return p.Unavailable, true
	case classServerError:
		return p.ServerError, true
	case classTimeout:
		return p.Timeout, true
	}
	return classPolicy{}, false
}

// classifyOutcome buckets a transport error or response status.
func classifyOutcome(resp *http.Response, err error) outcomeClass {
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return classTimeout
		}
		// Connection resets and DNS failures retry on the server-error budget.
		return classServerError
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return classSuccess
	case resp.StatusCode == http.StatusNotFound:
		return classNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return classRateLimited
	case resp.StatusCode == http.StatusServiceUnavailable:
		return classUnavailable
	case resp.StatusCode >= 500:
		return classServerError
	default:
		return classServerError
	}
}

// JitterSource produces the multiplicative jitter factor in [0.8, 1.2).
// It is injectable so tests can assert retry counts deterministically
// without asserting exact delays.
type JitterSource func() float64

// defaultJitter draws from U[0.8, 1.2).
func defaultJitter() float64 {
	return 0.8 + 0.4*rand.Float64()
}

// backoffDelay computes base * 2^attempt * jitter for the given attempt
// (0-based).
func backoffDelay(base time.Duration, attempt int, jitter JitterSource) time.Duration {
	factor := math.Pow(2, float64(attempt))
	return time.Duration(float64(base) * factor * jitter())
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

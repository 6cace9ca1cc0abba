package booking

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter is the global concurrency limiter shared across the whole run.
// All booking HTTP calls acquire a slot before issuing the request.
// semaphore.Weighted queues waiters FIFO, which keeps slot allocation fair
// between profiles.
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter creates a limiter allowing n concurrent requests.
func NewLimiter(n int64) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(n)}
}

// Acquire blocks until a slot frees or the context is cancelled.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// Release returns a slot. Callers must pair every successful Acquire with a
// deferred Release so a failing request can never leak a slot.
func (l *Limiter) Release() {
	l.sem.Release(1)
}

package oracle

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Budget enforces the per-run oracle call ceiling and rate-limits calls
// across all workers. The limiter is a token bucket so bounded
// concurrency across patients never serializes behind a global mutex;
// the count check is the only synchronized section.
type Budget struct {
	mu        sync.Mutex
	remaining int
	calls     int
	spentUSD  float64

	limiter *rate.Limiter
}

// NewBudget creates a budget of maxCalls total oracle invocations at the
// given sustained calls-per-minute rate. maxCalls <= 0 means unlimited
// count (the rate limit still applies).
func NewBudget(maxCalls int, perMinute float64) *Budget {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &Budget{
		remaining: maxCalls,
		limiter:   rate.NewLimiter(rate.Limit(perMinute/60.0), 1),
	}
}

// Acquire reserves one oracle call, blocking on the rate limiter. It
// returns ErrBudgetExhausted when the call ceiling is spent — a
// cooperative checkpoint, callers must not treat it as fatal to the run.
func (b *Budget) Acquire(ctx context.Context) error {
	b.mu.Lock()
	if b.remaining == 0 {
		b.mu.Unlock()
		return ErrBudgetExhausted
	}
	if b.remaining > 0 {
		b.remaining--
	}
	b.calls++
	b.mu.Unlock()

	return b.limiter.Wait(ctx)
}

// Exhausted reports whether the call ceiling is spent.
func (b *Budget) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining == 0
}

// Calls returns the number of acquired calls.
func (b *Budget) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// AddCost accumulates the estimated USD spend.
func (b *Budget) AddCost(usd float64) {
	b.mu.Lock()
	b.spentUSD += usd
	b.mu.Unlock()
}

// SpentUSD returns the accumulated estimated spend.
func (b *Budget) SpentUSD() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spentUSD
}

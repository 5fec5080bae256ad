package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCircuitOpen is returned when a call is rejected because the breaker
// is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// Breaker is a minimal circuit breaker guarding one external service.
// After FailureThreshold consecutive trip-worthy failures it rejects
// calls until ResetTimeout has passed, then allows a single probe.
type Breaker struct {
	failureThreshold int
	resetTimeout     time.Duration

	mu                  sync.Mutex
	open                bool
	consecutiveFailures int
	lastFailure         time.Time

	nowFunc func() time.Time
}

// NewBreaker creates a breaker. Non-positive arguments get defaults of
// 5 failures and 30s reset.
func NewBreaker(failureThreshold int, resetTimeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &Breaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		nowFunc:          time.Now,
	}
}

// Allow reports whether a call may proceed. An open breaker permits one
// probe after the reset timeout.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return nil
	}
	if b.nowFunc().Sub(b.lastFailure) >= b.resetTimeout {
		return nil // probe
	}
	return ErrCircuitOpen
}

// Record feeds a call outcome into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.open = false
		b.consecutiveFailures = 0
		return
	}
	b.consecutiveFailures++
	b.lastFailure = b.nowFunc()
	if b.consecutiveFailures >= b.failureThreshold {
		b.open = true
	}
}

// Open reports whether the breaker is currently rejecting calls.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open && b.nowFunc().Sub(b.lastFailure) < b.resetTimeout
}

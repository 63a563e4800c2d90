package guard

import (
	"sync"
	"time"

	"github.com/ppiankov/factgate/internal/model"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "CLOSED"
	}
}

// Breaker is a per-provider circuit breaker. Consecutive transport
// failures trip it OPEN; after the recovery timeout the next Allow moves
// it to HALF_OPEN, and consecutive successes close it again. Any failure
// while HALF_OPEN reopens it immediately and resets the recovery timer.
type Breaker struct {
	mu               sync.Mutex
	failureThreshold int
	successThreshold int
	recoveryTimeout  time.Duration

	state     State
	failures  int
	successes int
	openedAt  time.Time

	now func() time.Time // injectable for tests
}

// NewBreaker creates a breaker from configuration.
func NewBreaker(cfg model.BreakerConfig) *Breaker {
	return &Breaker{
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		recoveryTimeout:  cfg.RecoveryTimeout,
		state:            StateClosed,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed. While OPEN it returns false
// until the recovery timeout elapses, at which point the breaker moves to
// HALF_OPEN and the call is admitted as a probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) >= b.recoveryTimeout {
			b.state = StateHalfOpen
			b.successes = 0
			return true
		}
		return false
	}

	return true
}

// RecordSuccess notes a successful call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0

	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = StateClosed
			b.successes = 0
		}
	}
}

// RecordFailure notes a transport failure. Parse failures must not be
// recorded here; the provider merely abstains.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.trip()
		return
	}

	b.failures++
	if b.failures >= b.failureThreshold {
		b.trip()
	}
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.failures = 0
	b.successes = 0
	b.openedAt = b.now()
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

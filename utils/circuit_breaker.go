package utils

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned while the breaker is refusing calls.
var ErrBreakerOpen = errors.New("circuit breaker is open")

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

// CircuitBreaker protects an optional dependency (the Redis cache) so its
// outage degrades to the fallback path instead of failing every request.
type CircuitBreaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration

	mu        sync.Mutex
	state     BreakerState
	failures  int
	openUntil time.Time
}

func NewCircuitBreaker(name string) *CircuitBreaker {
	return &CircuitBreaker{
		name:        name,
		maxFailures: 5,
		cooldown:    30 * time.Second,
		state:       BreakerClosed,
	}
}

// Execute runs fn unless the breaker is open. A failure while half-open
// reopens the breaker for another cooldown period.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := cb.allow(); err != nil {
		return nil, err
	}

	result, err := fn()
	cb.record(err == nil)
	return result, err
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == BreakerOpen {
		if time.Now().Before(cb.openUntil) {
			return ErrBreakerOpen
		}
		cb.state = BreakerHalfOpen
	}
	return nil
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if success {
		cb.state = BreakerClosed
		cb.failures = 0
		return
	}

	cb.failures++
	if cb.state == BreakerHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = BreakerOpen
		cb.failures = 0
		cb.openUntil = time.Now().Add(cb.cooldown)
	}
}

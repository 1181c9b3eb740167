// Package resilience stops calling a dependency that keeps failing.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state
type State int

const (
	// StateClosed lets every call through
	StateClosed State = iota
	// StateOpen rejects calls until the cooldown elapses
	StateOpen
	// StateHalfOpen lets a single trial call through; its outcome decides the next state
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitBreakerOpen is returned without calling fn while the circuit is open.
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// Option customizes a CircuitBreaker.
type Option func(*CircuitBreaker)

// WithFailureClassifier decides which errors count against the threshold.
// Errors it rejects are returned to the caller and treated as successes.
func WithFailureClassifier(fn func(error) bool) Option {
	return func(cb *CircuitBreaker) {
		if fn != nil {
			cb.isFailure = fn
		}
	}
}

// WithStateChange registers a callback invoked after each transition,
// outside the breaker lock.
func WithStateChange(fn func(from, to State)) Option {
	return func(cb *CircuitBreaker) { cb.onChange = fn }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) {
		if now != nil {
			cb.now = now
		}
	}
}

// CircuitBreaker opens after maxFailures consecutive failures and lets one
// trial call through once cooldown has passed since the last failure.
// Calls arriving while the trial is in flight are rejected.
type CircuitBreaker struct {
	maxFailures int
	cooldown    time.Duration
	isFailure   func(error) bool
	onChange    func(from, to State)
	now         func() time.Time

	mu           sync.Mutex
	state        State
	failures     int
	lastFailTime time.Time
	trialing     bool
}

func NewCircuitBreaker(maxFailures int, cooldown time.Duration, opts ...Option) *CircuitBreaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	cb := &CircuitBreaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		isFailure:   func(err error) bool { return err != nil },
		now:         time.Now,
		state:       StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Execute runs fn unless the circuit is open or a trial call is in flight.
// A panic in fn counts as a failure and is re-raised.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitBreakerOpen
	}
	defer func() {
		if r := recover(); r != nil {
			cb.recordFailure()
			panic(r)
		}
	}()
	err := fn()
	if err != nil && cb.isFailure(err) {
		cb.recordFailure()
	} else {
		cb.recordSuccess()
	}
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	switch {
	case cb.state == StateClosed:
		cb.mu.Unlock()
		return true
	case cb.state == StateHalfOpen && cb.trialing:
		cb.mu.Unlock()
		return false
	case cb.state == StateHalfOpen:
		cb.trialing = true
		cb.mu.Unlock()
		return true
	}
	if cb.now().Sub(cb.lastFailTime) < cb.cooldown {
		cb.mu.Unlock()
		return false
	}
	cb.trialing = true
	cb.transition(StateHalfOpen)
	return true
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	cb.lastFailTime = cb.now()
	cb.failures++
	if cb.state == StateHalfOpen || (cb.state == StateClosed && cb.failures >= cb.maxFailures) {
		cb.transition(StateOpen)
		return
	}
	cb.mu.Unlock()
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.transition(StateClosed)
		return
	}
	cb.mu.Unlock()
}

// transition is called with cb.mu held and releases it.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	if to != StateHalfOpen {
		cb.trialing = false
	}
	if to != StateOpen {
		cb.failures = 0
	}
	onChange := cb.onChange
	cb.mu.Unlock()

	if onChange != nil && from != to {
		onChange(from, to)
	}
}

// State returns the current state. An open circuit whose cooldown has
// elapsed still reports open until the next call tries it.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

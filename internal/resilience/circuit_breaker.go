package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
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

// CircuitBreaker stops calling a boundary that keeps failing until a cool-off
// timeout has passed, then lets at most HalfOpenMax trial calls in flight.
// HalfOpenMax consecutive trial successes close it again; one trial failure
// reopens it.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	trials    int
	openedAt  time.Time
}

type CircuitBreakerConfig struct {
	Name          string
	MaxFailures   int
	Timeout       time.Duration
	HalfOpenMax   int
	OnStateChange func(name string, from, to State)
	// IsFailure decides which errors count against the breaker; nil counts all
	IsFailure func(err error) bool
	// Now defaults to time.Now
	Now func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// Execute runs fn unless the breaker is open. Errors rejected by IsFailure
// are returned to the caller but recorded as successes, since they prove the
// boundary answered.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	trial, ok := cb.acquire()
	if !ok {
		return ErrCircuitOpen
	}

	err := fn()
	cb.record(trial, err == nil || !cb.countsAsFailure(err))
	return err
}

func (cb *CircuitBreaker) countsAsFailure(err error) bool {
	if cb.cfg.IsFailure == nil {
		return true
	}
	return cb.cfg.IsFailure(err)
}

func (cb *CircuitBreaker) acquire() (trial bool, ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.cfg.Now().Sub(cb.openedAt) >= cb.cfg.Timeout {
		cb.transitionTo(StateHalfOpen)
	}

	switch cb.state {
	case StateClosed:
		return false, true
	case StateHalfOpen:
		if cb.trials >= cb.cfg.HalfOpenMax {
			return false, false
		}
		cb.trials++
		return true, true
	default:
		return false, false
	}
}

func (cb *CircuitBreaker) record(trial, success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial && cb.trials > 0 {
		cb.trials--
	}

	switch cb.state {
	case StateClosed:
		if success {
			cb.failures = 0
			return
		}
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			cb.transitionTo(StateOpen)
		}

	case StateHalfOpen:
		// results of calls admitted before the breaker tripped are ignored
		if !trial {
			return
		}
		if !success {
			cb.transitionTo(StateOpen)
			return
		}
		cb.successes++
		if cb.successes >= cb.cfg.HalfOpenMax {
			cb.transitionTo(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) transitionTo(newState State) {
	oldState := cb.state
	cb.state = newState
	cb.failures = 0
	cb.successes = 0
	cb.trials = 0
	if newState == StateOpen {
		cb.openedAt = cb.cfg.Now()
	}

	if cb.cfg.OnStateChange != nil && oldState != newState {
		go cb.cfg.OnStateChange(cb.cfg.Name, oldState, newState)
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the breaker regardless of its state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionTo(StateClosed)
}

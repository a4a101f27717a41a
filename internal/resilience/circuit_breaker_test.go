package resilience_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/OldStager01/throughput-autoscaler/internal/resilience"
)

var errBoom = errors.New("fail")

func failN(cb *resilience.CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(func() error { return errBoom })
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	tests := []struct {
		name          string
		config        resilience.CircuitBreakerConfig
		execFunc      func() error
		expectedErr   error
		expectedState resilience.State
	}{
		{
			name: "successful execution stays closed",
			config: resilience.CircuitBreakerConfig{
				MaxFailures: 3,
				Timeout:     5 * time.Second,
			},
			execFunc:      func() error { return nil },
			expectedErr:   nil,
			expectedState: resilience.StateClosed,
		},
		{
			name: "single failure is returned and stays closed",
			config: resilience.CircuitBreakerConfig{
				MaxFailures: 3,
				Timeout:     5 * time.Second,
			},
			execFunc:      func() error { return errBoom },
			expectedErr:   errBoom,
			expectedState: resilience.StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := resilience.NewCircuitBreaker(tt.config)

			err := cb.Execute(tt.execFunc)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedState, cb.State())
		})
	}
}

func TestCircuitBreaker_StateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		config        resilience.CircuitBreakerConfig
		setup         func(cb *resilience.CircuitBreaker)
		expectedState resilience.State
	}{
		{
			name: "transition to open after max failures",
			config: resilience.CircuitBreakerConfig{
				MaxFailures: 3,
				Timeout:     5 * time.Second,
			},
			setup:         func(cb *resilience.CircuitBreaker) { failN(cb, 3) },
			expectedState: resilience.StateOpen,
		},
		{
			name: "transition to half-open after timeout",
			config: resilience.CircuitBreakerConfig{
				MaxFailures: 3,
				Timeout:     50 * time.Millisecond,
			},
			setup: func(cb *resilience.CircuitBreaker) {
				failN(cb, 3)
				time.Sleep(100 * time.Millisecond)
				_ = cb.Execute(func() error { return nil })
			},
			expectedState: resilience.StateHalfOpen,
		},
		{
			name: "transition from half-open to closed on success",
			config: resilience.CircuitBreakerConfig{
				MaxFailures: 3,
				Timeout:     50 * time.Millisecond,
				HalfOpenMax: 2,
			},
			setup: func(cb *resilience.CircuitBreaker) {
				failN(cb, 3)
				time.Sleep(100 * time.Millisecond)
				for i := 0; i < 3; i++ {
					_ = cb.Execute(func() error { return nil })
				}
			},
			expectedState: resilience.StateClosed,
		},
		{
			name: "reset returns to closed",
			config: resilience.CircuitBreakerConfig{
				MaxFailures: 3,
				Timeout:     1 * time.Hour,
			},
			setup: func(cb *resilience.CircuitBreaker) {
				failN(cb, 3)
				cb.Reset()
			},
			expectedState: resilience.StateClosed,
		},
		{
			name: "errors filtered by IsFailure never open the breaker",
			config: resilience.CircuitBreakerConfig{
				MaxFailures: 2,
				Timeout:     1 * time.Hour,
				IsFailure:   func(err error) bool { return !errors.Is(err, errBoom) },
			},
			setup:         func(cb *resilience.CircuitBreaker) { failN(cb, 5) },
			expectedState: resilience.StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := resilience.NewCircuitBreaker(tt.config)

			tt.setup(cb)

			assert.Equal(t, tt.expectedState, cb.State())
		})
	}
}

func TestCircuitBreaker_OpenState_RejectsRequest(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures: 3,
		Timeout:     1 * time.Hour,
	})

	failN(cb, 3)

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.False(t, called)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestCircuitBreaker_HalfOpenLimitsTrials(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures: 1,
		Timeout:     time.Minute,
		HalfOpenMax: 1,
		Now:         clock.Now,
	})

	failN(cb, 1)
	assert.Equal(t, resilience.StateOpen, cb.State())

	clock.now = clock.now.Add(time.Minute)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen, "second trial rejected while the first is in flight")

	close(release)
	assert.NoError(t, <-done)
	assert.Equal(t, resilience.StateClosed, cb.State())
}

func TestCircuitBreaker_TrialFailureReopens(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	changes := make(chan resilience.State, 4)
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "registry",
		MaxFailures: 2,
		Timeout:     time.Second,
		Now:         clock.Now,
		OnStateChange: func(name string, from, to resilience.State) {
			changes <- to
		},
	})

	failN(cb, 2)
	clock.now = clock.now.Add(time.Second)
	failN(cb, 1)

	assert.Equal(t, resilience.StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), resilience.ErrCircuitOpen)

	seen := []resilience.State{<-changes, <-changes, <-changes}
	assert.ElementsMatch(t, []resilience.State{resilience.StateOpen, resilience.StateHalfOpen, resilience.StateOpen}, seen)
}

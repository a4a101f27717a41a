package scaler

import (
	"context"
	"errors"
	"time"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/internal/resilience"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// ResilientRegistry retries transient registry failures. Registration is a
// full replace, so reapplying it after a failed attempt is safe.
type ResilientRegistry struct {
	registry       BoundsRegistry
	circuitBreaker *resilience.CircuitBreaker
	retry          resilience.RetryPolicy
}

type ResilientRegistryConfig struct {
	Registry        BoundsRegistry
	MaxFailures     int
	Timeout         time.Duration
	RetryAttempts   int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	OnStateChange   func(name string, from, to resilience.State)
}

func NewResilientRegistry(cfg ResilientRegistryConfig) *ResilientRegistry {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          "registry",
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.Timeout,
		OnStateChange: cfg.OnStateChange,
		IsFailure: func(err error) bool {
			return IsTransient(err) && !errors.Is(err, ErrConcurrentUpdate)
		},
	})

	return &ResilientRegistry{
		registry:       cfg.Registry,
		circuitBreaker: cb,
		retry: resilience.RetryPolicy{
			Attempts:        cfg.RetryAttempts,
			InitialInterval: cfg.InitialInterval,
			MaxInterval:     cfg.MaxInterval,
		},
	}
}

func (r *ResilientRegistry) policy(op, resourceID string, axis models.Axis) resilience.RetryPolicy {
	policy := r.retry
	policy.OnRetry = func(attempt int, err error) {
		logger.WithAxis(resourceID, axis.String()).Warnf(
			"%s attempt %d/%d failed: %v",
			op, attempt, r.retry.Attempts, err,
		)
	}
	return policy
}

func (r *ResilientRegistry) call(ctx context.Context, policy resilience.RetryPolicy, fn func(ctx context.Context) error) error {
	return r.circuitBreaker.Execute(func() error {
		return resilience.Retry(ctx, policy, func(ctx context.Context) error {
			err := fn(ctx)
			if err != nil && !IsTransient(err) {
				return resilience.Permanent(err)
			}
			return err
		})
	})
}

func (r *ResilientRegistry) Describe(ctx context.Context, resourceID string, axis models.Axis) (models.CapacityBounds, error) {
	var bounds models.CapacityBounds

	err := r.circuitBreaker.Execute(func() error {
		var err error
		bounds, err = resilience.RetryValue(ctx, r.policy("Describe", resourceID, axis), func(ctx context.Context) (models.CapacityBounds, error) {
			b, err := r.registry.Describe(ctx, resourceID, axis)
			if err != nil && !IsTransient(err) {
				return b, resilience.Permanent(err)
			}
			return b, err
		})
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return models.CapacityBounds{}, errors.Join(ErrRegistryUnavailable, err)
	}

	return bounds, err
}

func (r *ResilientRegistry) Register(ctx context.Context, resourceID string, axis models.Axis, bounds models.CapacityBounds) error {
	err := r.call(ctx, r.policy("Register", resourceID, axis), func(ctx context.Context) error {
		return r.registry.Register(ctx, resourceID, axis, bounds)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return errors.Join(ErrRegistryUnavailable, err)
	}

	return err
}

func (r *ResilientRegistry) Close() error {
	return r.registry.Close()
}

func (r *ResilientRegistry) CircuitState() resilience.State {
	return r.circuitBreaker.State()
}

func (r *ResilientRegistry) ResetCircuit() {
	r.circuitBreaker.Reset()
}

package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/internal/resilience"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// ResilientProvider retries transient provider failures and stops calling a
// provider that keeps failing.
type ResilientProvider struct {
	provider       MetricsProvider
	circuitBreaker *resilience.CircuitBreaker
	retry          resilience.RetryPolicy
}

type ResilientProviderConfig struct {
	Provider        MetricsProvider
	MaxFailures     int
	Timeout         time.Duration
	RetryAttempts   int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	OnStateChange   func(name string, from, to resilience.State)
}

func NewResilientProvider(cfg ResilientProviderConfig) *ResilientProvider {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          "sampler",
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.Timeout,
		OnStateChange: cfg.OnStateChange,
		IsFailure:     isProviderFailure,
	})

	return &ResilientProvider{
		provider:       cfg.Provider,
		circuitBreaker: cb,
		retry: resilience.RetryPolicy{
			Attempts:        cfg.RetryAttempts,
			InitialInterval: cfg.InitialInterval,
			MaxInterval:     cfg.MaxInterval,
		},
	}
}

func isProviderFailure(err error) bool {
	return !errors.Is(err, ErrInvalidQuery) && !errors.Is(err, context.Canceled)
}

func (p *ResilientProvider) GetAggregatedSeries(ctx context.Context, query SeriesQuery) (*models.MetricSeries, error) {
	var series *models.MetricSeries

	policy := p.retry
	policy.OnRetry = func(attempt int, err error) {
		logger.WithField("metric", query.MetricName).Warnf(
			"Sampling attempt %d/%d failed: %v",
			attempt, p.retry.Attempts, err,
		)
	}

	err := p.circuitBreaker.Execute(func() error {
		var err error
		series, err = resilience.RetryValue(ctx, policy, func(ctx context.Context) (*models.MetricSeries, error) {
			s, err := p.provider.GetAggregatedSeries(ctx, query)
			if err != nil && !isProviderFailure(err) {
				return nil, resilience.Permanent(err)
			}
			return s, err
		})
		return err
	})

	if err != nil {
		if errors.Is(err, ErrMetricsUnavailable) || errors.Is(err, ErrInvalidQuery) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrMetricsUnavailable, query.MetricName, err)
	}

	return series, nil
}

func (p *ResilientProvider) HealthCheck(ctx context.Context) error {
	return p.provider.HealthCheck(ctx)
}

func (p *ResilientProvider) Close() error {
	return p.provider.Close()
}

func (p *ResilientProvider) CircuitState() resilience.State {
	return p.circuitBreaker.State()
}

func (p *ResilientProvider) ResetCircuit() {
	p.circuitBreaker.Reset()
}

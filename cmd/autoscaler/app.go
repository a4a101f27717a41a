package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/OldStager01/throughput-autoscaler/api/handlers"
	"github.com/OldStager01/throughput-autoscaler/internal/decision"
	"github.com/OldStager01/throughput-autoscaler/internal/events"
	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/internal/metrics"
	"github.com/OldStager01/throughput-autoscaler/internal/orchestrator"
	"github.com/OldStager01/throughput-autoscaler/internal/resilience"
	"github.com/OldStager01/throughput-autoscaler/internal/sampler"
	"github.com/OldStager01/throughput-autoscaler/internal/scaler"
	"github.com/OldStager01/throughput-autoscaler/pkg/config"
	"github.com/OldStager01/throughput-autoscaler/pkg/database"
	"github.com/OldStager01/throughput-autoscaler/pkg/database/queries"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// app holds every component of one autoscaler process
type app struct {
	cfg         *config.Config
	bus         *events.EventBus
	metrics     *metrics.Metrics
	provider    *sampler.ResilientProvider
	registry    *scaler.ResilientRegistry
	sampler     *sampler.Sampler
	runner      *orchestrator.Runner
	db          *database.DB
	decisions   *queries.DecisionRepository
	eventLogger *events.EventLogger
}

// newApp wires the providers, the decision engine and the optional journal.
// Callers must Close the result.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:     cfg,
		bus:     events.NewEventBus(cfg.Events.BufferSize),
		metrics: metrics.Get(),
	}

	onStateChange := func(name string, from, to resilience.State) {
		logger.WithField("breaker", name).Warnf("Circuit breaker %s -> %s", from, to)
		a.metrics.SetCircuitBreakerState(name, int(to))
	}

	var awsCfg aws.Config
	if cfg.Sampling.Type == "cloudwatch" || cfg.Registry.Type == "aws" {
		loaded, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		awsCfg = loaded
	}

	a.provider = sampler.NewResilientProvider(sampler.ResilientProviderConfig{
		Provider:        newMetricsProvider(cfg, awsCfg),
		MaxFailures:     cfg.Retry.CircuitBreaker.MaxFailures,
		Timeout:         cfg.Retry.CircuitBreaker.Timeout,
		RetryAttempts:   cfg.Retry.Attempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
		OnStateChange:   onStateChange,
	})

	a.registry = scaler.NewResilientRegistry(scaler.ResilientRegistryConfig{
		Registry:        newBoundsRegistry(cfg, awsCfg),
		MaxFailures:     cfg.Retry.CircuitBreaker.MaxFailures,
		Timeout:         cfg.Retry.CircuitBreaker.Timeout,
		RetryAttempts:   cfg.Retry.Attempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
		OnStateChange:   onStateChange,
	})

	resourceID := cfg.Resource.ResourceID()
	metricNames := cfg.Sampling.Metrics

	a.sampler = sampler.New(a.provider, sampler.Config{
		Namespace:  cfg.Resource.MetricNamespace,
		Dimensions: cfg.Resource.MetricDimensions(),
		Window:     cfg.Sampling.Window,
		Period:     cfg.Sampling.Period,
		Metrics: map[models.Axis]sampler.AxisMetrics{
			models.AxisRead:  {Consumed: metricNames.ConsumedRead, Provisioned: metricNames.ProvisionedRead},
			models.AxisWrite: {Consumed: metricNames.ConsumedWrite, Provisioned: metricNames.ProvisionedWrite},
		},
	})

	a.runner = orchestrator.NewRunner(orchestrator.RunnerConfig{
		ResourceID: resourceID,
		Sampler:    a.sampler,
		Inspector:  scaler.NewInspector(a.registry, resourceID),
		Updater:    scaler.NewUpdater(a.registry, resourceID, cfg.Decision.Spread),
		Engine: decision.NewEngine(decision.Config{
			DefaultFloor: cfg.Decision.DefaultFloor,
			Spread:       cfg.Decision.Spread,
		}),
		Publisher: events.NewPublisher(a.bus, resourceID),
		Metrics:   a.metrics,
	})

	if cfg.Database.Enabled {
		db, err := database.New(cfg.Database.ToDBConfig())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db
		a.decisions = queries.NewDecisionRepository(db.DB)
		logger.Info("Decision journal enabled")
	}

	var writer events.RecordWriter
	if a.decisions != nil {
		writer = a.decisions
	}
	a.eventLogger = events.NewEventLogger(writer, a.bus.SubscribeAll())
	a.eventLogger.Start()

	return a, nil
}

func newMetricsProvider(cfg *config.Config, awsCfg aws.Config) sampler.MetricsProvider {
	if cfg.Sampling.Type == "mock" {
		names := cfg.Sampling.Metrics
		logger.Warn("Using mock metrics provider")
		return sampler.NewMockProvider(sampler.MockProviderConfig{
			Base: map[string]float64{
				names.ConsumedRead:     cfg.Sampling.Mock.BaseRead,
				names.ConsumedWrite:    cfg.Sampling.Mock.BaseWrite,
				names.ProvisionedRead:  float64(cfg.Registry.InitialRead),
				names.ProvisionedWrite: float64(cfg.Registry.InitialWrite),
			},
			Variance: cfg.Sampling.Mock.Variance,
		})
	}

	return sampler.NewCloudWatchProvider(sampler.CloudWatchProviderConfig{
		Client:    sampler.NewCloudWatchClient(awsCfg, cfg.AWS.Endpoint),
		Namespace: cfg.Resource.MetricNamespace,
	})
}

func newBoundsRegistry(cfg *config.Config, awsCfg aws.Config) scaler.BoundsRegistry {
	if cfg.Registry.Type == "memory" {
		logger.Warn("Using in-memory bounds registry")
		registry := scaler.NewMemoryRegistry(scaler.RegistryCallbacks{})
		resourceID := cfg.Resource.ResourceID()
		spread := cfg.Decision.Spread
		registry.Seed(resourceID, models.AxisRead, models.NewBoundsFromTarget(cfg.Registry.InitialRead, spread))
		registry.Seed(resourceID, models.AxisWrite, models.NewBoundsFromTarget(cfg.Registry.InitialWrite, spread))
		return registry
	}

	return scaler.NewAutoScalingRegistry(scaler.AutoScalingRegistryConfig{
		Client:           scaler.NewAutoScalingClient(awsCfg, cfg.AWS.Endpoint),
		ServiceNamespace: cfg.Resource.ServiceNamespace,
		ReadDimension:    cfg.Resource.ReadDimension,
		WriteDimension:   cfg.Resource.WriteDimension,
	})
}

// healthChecks are run by the readiness endpoint
func (a *app) healthChecks() map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{
		"sampler": a.sampler.HealthCheck,
		"registry": func(ctx context.Context) error {
			if a.registry.CircuitState() == resilience.StateOpen {
				return resilience.ErrCircuitOpen
			}
			return nil
		},
	}
	if a.db != nil {
		checks["database"] = a.db.HealthCheck
	}
	return checks
}

// migrate applies the journal schema when the journal is enabled
func (a *app) migrate(ctx context.Context) error {
	if a.db == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Database.MigrationTimeout)
	defer cancel()

	return database.NewMigrator(a.db).Run(ctx)
}

func (a *app) Close() error {
	if a.eventLogger != nil {
		a.eventLogger.Stop()
	}
	a.bus.Close()

	var errs []error
	if a.provider != nil {
		errs = append(errs, a.provider.Close())
	}
	if a.registry != nil {
		errs = append(errs, a.registry.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

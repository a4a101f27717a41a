package orchestrator

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OldStager01/throughput-autoscaler/internal/decision"
	"github.com/OldStager01/throughput-autoscaler/internal/events"
	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/internal/metrics"
	"github.com/OldStager01/throughput-autoscaler/internal/sampler"
	"github.com/OldStager01/throughput-autoscaler/internal/scaler"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// Error kinds attached to failed axes
const (
	KindMetricsUnavailable  = "metrics_unavailable"
	KindInsufficientData    = "insufficient_data"
	KindTargetNotFound      = "target_not_found"
	KindInvariantViolation  = "invariant_violation"
	KindUpdateRejected      = "update_rejected"
	KindRegistryUnavailable = "registry_unavailable"
	KindUnknown             = "unknown"
)

// ErrorKind maps an axis failure onto a stable label
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, sampler.ErrMetricsUnavailable):
		return KindMetricsUnavailable
	case errors.Is(err, decision.ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, decision.ErrInvariantViolation):
		return KindInvariantViolation
	case errors.Is(err, scaler.ErrTargetNotFound):
		return KindTargetNotFound
	case errors.Is(err, scaler.ErrRegistryUnavailable):
		// failed registrations also carry ErrUpdateRejected; the outage wins
		return KindRegistryUnavailable
	case errors.Is(err, scaler.ErrUpdateRejected):
		return KindUpdateRejected
	}
	return KindUnknown
}

type RunnerConfig struct {
	ResourceID string
	Sampler    *sampler.Sampler
	Inspector  *scaler.Inspector
	Updater    *scaler.Updater
	Engine     *decision.Engine
	Publisher  *events.Publisher
	Metrics    *metrics.Metrics
}

// Runner executes one sample, inspect, decide and update cycle. It keeps no
// state between runs.
type Runner struct {
	config RunnerConfig
	now    func() time.Time
}

func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Publisher == nil {
		cfg.Publisher = events.NewPublisher(nil, cfg.ResourceID)
	}

	return &Runner{
		config: cfg,
		now:    time.Now,
	}
}

func (r *Runner) ResourceID() string {
	return r.config.ResourceID
}

// Run never returns nil. Failures are reported per axis on the result.
func (r *Runner) Run(ctx context.Context) *models.RunResult {
	result := models.NewRunResult(r.config.ResourceID, r.now())
	result.Window = r.config.Sampler.Window()

	pub := r.config.Publisher.WithRun(result.RunID)
	if traceID := logger.TraceIDFromContext(ctx); traceID != "" {
		pub = pub.WithTraceID(traceID)
	}

	log := logger.WithRun(ctx, result.RunID, result.ResourceID)
	log.WithFields(map[string]interface{}{
		"window_start": result.Window.Start,
		"window_end":   result.Window.End,
		"window":       result.Window.Duration().String(),
	}).Info("Run started")
	pub.RunStarted(result.Window)

	// Step 1: Sample metrics and inspect bounds
	samples, bounds := r.gather(ctx, result.Window)

	// Step 2: Decide per axis
	for _, axis := range models.Axes() {
		r.decideAxis(result, axis, samples.Axis(axis), bounds[axis], pub)
	}

	// Step 3: Update both axes when either changed
	if result.Changed() {
		result.UpdateTriggered = true
		r.update(ctx, result, pub)
	}

	result.FinishedAt = r.now()
	r.finish(ctx, result, pub)

	return result
}

func (r *Runner) gather(ctx context.Context, window models.TimeWindow) (*sampler.Samples, map[models.Axis]scaler.BoundsResult) {
	var (
		samples *sampler.Samples
		bounds  map[models.Axis]scaler.BoundsResult
		g       errgroup.Group
	)

	g.Go(func() error {
		samples = r.config.Sampler.SampleAll(ctx, window)
		return nil
	})
	g.Go(func() error {
		bounds = r.config.Inspector.InspectAll(ctx, models.Axes())
		return nil
	})

	_ = g.Wait()
	return samples, bounds
}

func (r *Runner) decideAxis(
	result *models.RunResult,
	axis models.Axis,
	samples *sampler.AxisSamples,
	bounds scaler.BoundsResult,
	pub *events.Publisher,
) {
	outcome := result.Axis(axis)
	log := logger.WithAxis(result.ResourceID, axis.String()).WithField("run_id", result.RunID)

	if samples.Provisioned != nil {
		if peak, ok := samples.Provisioned.Peak(); ok {
			v := peak.Value
			outcome.ProvisionedPeak = &v
			r.observe(func(m *metrics.Metrics) { m.SetProvisioned(axis.String(), v) })
		}
		log.WithField("values", samples.Provisioned.Values()).Debug("Provisioned series")
	}
	if samples.ProvisionedErr != nil {
		r.observe(func(m *metrics.Metrics) { m.IncError(axis.String(), KindMetricsUnavailable) })
	}

	if samples.ConsumedErr != nil {
		r.fail(outcome, samples.ConsumedErr, pub)
	} else if samples.Consumed != nil {
		outcome.ConsumedSamples = samples.Consumed.Len()
		log.WithField("values", samples.Consumed.Values()).Debug("Consumed series")
		pub.SeriesSampled(axis, samples.Consumed)
		if peak, ok := samples.Consumed.Peak(); ok {
			r.observe(func(m *metrics.Metrics) { m.SetPeakConsumed(axis.String(), peak.Value) })
		}
	}

	if bounds.Err != nil {
		r.fail(outcome, bounds.Err, pub)
	} else {
		b := bounds.Bounds
		outcome.Bounds = &b
		pub.BoundsInspected(axis, b)
		r.observe(func(m *metrics.Metrics) { m.SetRegisteredBounds(axis.String(), b.Min, b.Max) })
	}

	if outcome.Failed() {
		return
	}

	d, err := r.config.Engine.Decide(result.ResourceID, axis, samples.Consumed, *outcome.Bounds)
	if err != nil {
		if d != nil {
			outcome.Decision = d
		}
		r.fail(outcome, err, pub)
		return
	}

	outcome.Decision = d
	pub.DecisionMade(d)
	r.observe(func(m *metrics.Metrics) { m.IncDecision(axis.String(), string(d.Action)) })
}

// update passes every axis that produced a decision to the Updater. Axes
// without a decision keep their registered bounds.
func (r *Runner) update(ctx context.Context, result *models.RunResult, pub *events.Publisher) {
	targets := make(map[models.Axis]int, 2)
	for _, axis := range models.Axes() {
		outcome := result.Axis(axis)
		if outcome.Failed() || outcome.Decision == nil {
			continue
		}
		targets[axis] = outcome.Decision.TargetValue
	}

	applied := r.config.Updater.Apply(ctx, targets)

	for axis, res := range applied {
		outcome := result.Axis(axis)
		outcome.UpdateAttempted = true

		if res.Err != nil {
			pub.UpdateFailed(axis, res.Bounds, res.Err)
			r.observe(func(m *metrics.Metrics) { m.IncBoundUpdate(axis.String(), "failed") })
			r.fail(outcome, res.Err, pub)
			continue
		}

		b := res.Bounds
		outcome.Applied = true
		outcome.AppliedBounds = &b
		pub.BoundsUpdated(axis, b)
		r.observe(func(m *metrics.Metrics) {
			m.IncBoundUpdate(axis.String(), "success")
			m.SetRegisteredBounds(axis.String(), b.Min, b.Max)
		})
	}
}

func (r *Runner) fail(outcome *models.AxisOutcome, err error, pub *events.Publisher) {
	if outcome.Failed() {
		return
	}

	kind := ErrorKind(err)
	outcome.Fail(kind, err)
	pub.Error(outcome.Axis, kind, err)
	r.observe(func(m *metrics.Metrics) { m.IncError(outcome.Axis.String(), kind) })
}

func (r *Runner) finish(ctx context.Context, result *models.RunResult, pub *events.Publisher) {
	status := result.Status()
	r.observe(func(m *metrics.Metrics) { m.RecordRun(status, result.Duration()) })
	pub.RunCompleted(result)

	log := logger.WithRun(ctx, result.RunID, result.ResourceID).WithFields(map[string]interface{}{
		"status":           status,
		"update_triggered": result.UpdateTriggered,
		"duration":         result.Duration().String(),
	})

	if err := result.Err(); err != nil {
		log.WithError(err).Warn("Run completed with errors")
		return
	}
	log.Info("Run completed")
}

func (r *Runner) observe(fn func(m *metrics.Metrics)) {
	if r.config.Metrics != nil {
		fn(r.config.Metrics)
	}
}

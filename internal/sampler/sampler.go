package sampler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// AxisMetrics names the consumed and provisioned metric of one axis
type AxisMetrics struct {
	Consumed    string
	Provisioned string
}

type Config struct {
	Namespace  string
	Dimensions map[string]string
	Window     time.Duration
	Period     time.Duration
	Metrics    map[models.Axis]AxisMetrics
	// SkipProvisioned leaves the diagnostic provisioned series unfetched
	SkipProvisioned bool
}

// AxisSamples holds the series of one axis and the error each fetch returned
type AxisSamples struct {
	Consumed       *models.MetricSeries
	ConsumedErr    error
	Provisioned    *models.MetricSeries
	ProvisionedErr error
}

type Samples struct {
	Window models.TimeWindow
	Axes   map[models.Axis]*AxisSamples
}

func (s *Samples) Axis(axis models.Axis) *AxisSamples {
	if samples, ok := s.Axes[axis]; ok {
		return samples
	}
	return &AxisSamples{}
}

// Sampler issues the per-run metric queries against a MetricsProvider
type Sampler struct {
	provider MetricsProvider
	config   Config
	now      func() time.Time
}

func New(provider MetricsProvider, cfg Config) *Sampler {
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Minute
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}

	return &Sampler{
		provider: provider,
		config:   cfg,
		now:      time.Now,
	}
}

// SetClock replaces the time source used to anchor the trailing window
func (s *Sampler) SetClock(now func() time.Time) {
	s.now = now
}

// Window returns the trailing window ending now. It is computed on every call.
func (s *Sampler) Window() models.TimeWindow {
	return models.NewTrailingWindow(s.now(), s.config.Window)
}

func (s *Sampler) query(metricName string, window models.TimeWindow) SeriesQuery {
	return SeriesQuery{
		MetricName: metricName,
		Namespace:  s.config.Namespace,
		Dimensions: s.config.Dimensions,
		Window:     window,
		Period:     s.config.Period,
		Statistic:  StatisticSum,
	}
}

// Sample fetches a single metric over window
func (s *Sampler) Sample(ctx context.Context, metricName string, window models.TimeWindow) (*models.MetricSeries, error) {
	return s.provider.GetAggregatedSeries(ctx, s.query(metricName, window))
}

// SampleAll fetches every configured series for window concurrently. A failed
// fetch is recorded on its axis and never cancels the other fetches.
func (s *Sampler) SampleAll(ctx context.Context, window models.TimeWindow) *Samples {
	samples := &Samples{
		Window: window,
		Axes:   make(map[models.Axis]*AxisSamples, len(s.config.Metrics)),
	}

	var g errgroup.Group

	for _, axis := range models.Axes() {
		names, ok := s.config.Metrics[axis]
		if !ok {
			continue
		}

		axisSamples := &AxisSamples{}
		samples.Axes[axis] = axisSamples

		g.Go(func() error {
			axisSamples.Consumed, axisSamples.ConsumedErr = s.Sample(ctx, names.Consumed, window)
			return nil
		})

		if s.config.SkipProvisioned || names.Provisioned == "" {
			continue
		}

		g.Go(func() error {
			axisSamples.Provisioned, axisSamples.ProvisionedErr = s.Sample(ctx, names.Provisioned, window)
			return nil
		})
	}

	_ = g.Wait()

	for axis, axisSamples := range samples.Axes {
		entry := logger.WithField("axis", axis.String())
		if axisSamples.ConsumedErr != nil {
			entry.WithError(axisSamples.ConsumedErr).Warn("Consumed series unavailable")
		}
		if axisSamples.ProvisionedErr != nil {
			entry.WithError(axisSamples.ProvisionedErr).Debug("Provisioned series unavailable")
		}
	}

	return samples
}

func (s *Sampler) HealthCheck(ctx context.Context) error {
	return s.provider.HealthCheck(ctx)
}

func (s *Sampler) Close() error {
	return s.provider.Close()
}

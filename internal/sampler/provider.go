package sampler

import (
	"context"
	"errors"
	"time"

	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

var (
	ErrMetricsUnavailable = errors.New("metrics unavailable")
	ErrInvalidQuery       = errors.New("invalid series query")
)

// StatisticSum is the only aggregation the decision engine consumes
const StatisticSum = "Sum"

// SeriesQuery selects one aggregated metric series for a trailing window
type SeriesQuery struct {
	MetricName string
	Namespace  string
	Dimensions map[string]string
	Window     models.TimeWindow
	Period     time.Duration
	Statistic  string
}

func (q SeriesQuery) Validate() error {
	if q.MetricName == "" {
		return errors.Join(ErrInvalidQuery, errors.New("metric name is required"))
	}
	if q.Period <= 0 {
		return errors.Join(ErrInvalidQuery, errors.New("period must be positive"))
	}
	if !q.Window.End.After(q.Window.Start) {
		return errors.Join(ErrInvalidQuery, errors.New("window end must be after start"))
	}
	return nil
}

// MetricsProvider fetches aggregated series from a telemetry source. An empty
// series is a valid result; an unreachable source yields ErrMetricsUnavailable.
type MetricsProvider interface {
	GetAggregatedSeries(ctx context.Context, query SeriesQuery) (*models.MetricSeries, error)

	// HealthCheck verifies the provider can reach its data source
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the provider
	Close() error
}

package sampler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// MockProvider generates synthetic consumption series, or replays fixed
// values set per metric.
type MockProvider struct {
	mu           sync.Mutex
	base         map[string]float64
	fixed        map[string][]float64
	variance     float64
	shouldFail   bool
	failureError error
	calls        map[string]int
}

type MockProviderConfig struct {
	// Base maps a metric name to the value generated samples centre on
	Base     map[string]float64
	Variance float64
}

func NewMockProvider(cfg MockProviderConfig) *MockProvider {
	variance := cfg.Variance
	if variance < 0 {
		variance = 0
	}

	base := make(map[string]float64, len(cfg.Base))
	for name, v := range cfg.Base {
		base[name] = v
	}

	return &MockProvider{
		base:     base,
		fixed:    make(map[string][]float64),
		variance: variance,
		calls:    make(map[string]int),
	}
}

// SetSeries pins the values returned for metricName. A nil or empty slice
// makes the provider return an empty series.
func (p *MockProvider) SetSeries(metricName string, values []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fixed[metricName] = append([]float64{}, values...)
}

func (p *MockProvider) SetShouldFail(shouldFail bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shouldFail = shouldFail
	p.failureError = err
}

// Calls returns how often metricName was queried
func (p *MockProvider) Calls(metricName string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[metricName]
}

func (p *MockProvider) GetAggregatedSeries(ctx context.Context, query SeriesQuery) (*models.MetricSeries, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls[query.MetricName]++

	if p.shouldFail {
		if p.failureError != nil {
			return nil, p.failureError
		}
		return nil, ErrMetricsUnavailable
	}

	series := &models.MetricSeries{MetricName: query.MetricName}

	if values, ok := p.fixed[query.MetricName]; ok {
		for i, v := range values {
			series.Samples = append(series.Samples, models.MetricSample{
				Timestamp: query.Window.Start.Add(time.Duration(i) * query.Period),
				Value:     v,
			})
		}
		return series, nil
	}

	base := p.base[query.MetricName]
	for ts := query.Window.Start; ts.Before(query.Window.End); ts = ts.Add(query.Period) {
		series.Samples = append(series.Samples, models.MetricSample{
			Timestamp: ts,
			Value:     p.randomValue(base),
		})
	}

	return series, nil
}

func (p *MockProvider) randomValue(base float64) float64 {
	value := base + (rand.Float64()*2-1)*p.variance
	if value < 0 {
		value = 0
	}
	return value
}

func (p *MockProvider) HealthCheck(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shouldFail {
		return ErrMetricsUnavailable
	}
	return nil
}

func (p *MockProvider) Close() error {
	return nil
}

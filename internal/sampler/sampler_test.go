package sampler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/throughput-autoscaler/internal/resilience"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

type stubCloudWatch struct {
	mu      sync.Mutex
	inputs  []*cloudwatch.GetMetricStatisticsInput
	output  *cloudwatch.GetMetricStatisticsOutput
	err     error
	listErr error
}

func (s *stubCloudWatch) GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, params)
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

func (s *stubCloudWatch) ListMetrics(ctx context.Context, params *cloudwatch.ListMetricsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.ListMetricsOutput, error) {
	return &cloudwatch.ListMetricsOutput{}, s.listErr
}

var (
	testStart  = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	testWindow = models.NewTrailingWindow(testStart.Add(10*time.Minute), 10*time.Minute)
)

func testQuery(metric string) SeriesQuery {
	return SeriesQuery{
		MetricName: metric,
		Namespace:  "AWS/DynamoDB",
		Dimensions: map[string]string{"TableName": "orders"},
		Window:     testWindow,
		Period:     time.Minute,
		Statistic:  StatisticSum,
	}
}

func TestCloudWatchProvider_BuildsSumQuery(t *testing.T) {
	stub := &stubCloudWatch{
		output: &cloudwatch.GetMetricStatisticsOutput{
			Datapoints: []types.Datapoint{
				{Timestamp: aws.Time(testStart.Add(2 * time.Minute)), Sum: aws.Float64(8)},
				{Timestamp: aws.Time(testStart), Sum: aws.Float64(5)},
				{Timestamp: aws.Time(testStart.Add(time.Minute)), Sum: aws.Float64(12)},
				{Timestamp: aws.Time(testStart.Add(3 * time.Minute))},
			},
		},
	}
	provider := NewCloudWatchProvider(CloudWatchProviderConfig{Client: stub})

	series, err := provider.GetAggregatedSeries(context.Background(), testQuery("ConsumedReadCapacityUnits"))

	require.NoError(t, err)
	assert.Equal(t, []float64{8, 5, 12}, series.Values(), "arrival order is kept and empty datapoints dropped")

	require.Len(t, stub.inputs, 1)
	input := stub.inputs[0]
	assert.Equal(t, "AWS/DynamoDB", aws.ToString(input.Namespace))
	assert.Equal(t, "ConsumedReadCapacityUnits", aws.ToString(input.MetricName))
	assert.Equal(t, int32(60), aws.ToInt32(input.Period))
	assert.Equal(t, []types.Statistic{types.StatisticSum}, input.Statistics)
	assert.Equal(t, types.StandardUnitCount, input.Unit)
	assert.Equal(t, testWindow.Start, aws.ToTime(input.StartTime))
	assert.Equal(t, testWindow.End, aws.ToTime(input.EndTime))
	require.Len(t, input.Dimensions, 1)
	assert.Equal(t, "TableName", aws.ToString(input.Dimensions[0].Name))
	assert.Equal(t, "orders", aws.ToString(input.Dimensions[0].Value))
}

func TestCloudWatchProvider_EmptySeriesIsNotAnError(t *testing.T) {
	stub := &stubCloudWatch{output: &cloudwatch.GetMetricStatisticsOutput{}}
	provider := NewCloudWatchProvider(CloudWatchProviderConfig{Client: stub})

	series, err := provider.GetAggregatedSeries(context.Background(), testQuery("ConsumedWriteCapacityUnits"))

	require.NoError(t, err)
	assert.True(t, series.IsEmpty())
	assert.Equal(t, "ConsumedWriteCapacityUnits", series.MetricName)
}

func TestCloudWatchProvider_Unreachable(t *testing.T) {
	stub := &stubCloudWatch{err: errors.New("dial tcp: connection refused"), listErr: errors.New("denied")}
	provider := NewCloudWatchProvider(CloudWatchProviderConfig{Client: stub})

	_, err := provider.GetAggregatedSeries(context.Background(), testQuery("ConsumedReadCapacityUnits"))
	assert.ErrorIs(t, err, ErrMetricsUnavailable)

	assert.ErrorIs(t, provider.HealthCheck(context.Background()), ErrMetricsUnavailable)
}

func TestSeriesQuery_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *SeriesQuery)
	}{
		{name: "missing metric", mutate: func(q *SeriesQuery) { q.MetricName = "" }},
		{name: "zero period", mutate: func(q *SeriesQuery) { q.Period = 0 }},
		{name: "inverted window", mutate: func(q *SeriesQuery) { q.Window.Start, q.Window.End = q.Window.End, q.Window.Start }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := testQuery("ConsumedReadCapacityUnits")
			tt.mutate(&q)
			assert.ErrorIs(t, q.Validate(), ErrInvalidQuery)
		})
	}

	assert.NoError(t, testQuery("ConsumedReadCapacityUnits").Validate())
}

func TestMockProvider_GeneratesOneSamplePerPeriod(t *testing.T) {
	provider := NewMockProvider(MockProviderConfig{
		Base:     map[string]float64{"ConsumedReadCapacityUnits": 5},
		Variance: 2,
	})

	series, err := provider.GetAggregatedSeries(context.Background(), testQuery("ConsumedReadCapacityUnits"))

	require.NoError(t, err)
	assert.Equal(t, 10, series.Len())
	for _, v := range series.Values() {
		assert.GreaterOrEqual(t, v, 3.0)
		assert.LessOrEqual(t, v, 7.0)
	}
}

func TestMockProvider_FixedSeriesAndFailure(t *testing.T) {
	provider := NewMockProvider(MockProviderConfig{})
	provider.SetSeries("ConsumedReadCapacityUnits", []float64{5, 12, 8})

	series, err := provider.GetAggregatedSeries(context.Background(), testQuery("ConsumedReadCapacityUnits"))
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 12, 8}, series.Values())

	provider.SetShouldFail(true, nil)
	_, err = provider.GetAggregatedSeries(context.Background(), testQuery("ConsumedReadCapacityUnits"))
	assert.ErrorIs(t, err, ErrMetricsUnavailable)
	assert.Error(t, provider.HealthCheck(context.Background()))
	assert.Equal(t, 2, provider.Calls("ConsumedReadCapacityUnits"))
}

type flakyProvider struct {
	*MockProvider
	failures int
	err      error
	mu       sync.Mutex
}

func (f *flakyProvider) GetAggregatedSeries(ctx context.Context, query SeriesQuery) (*models.MetricSeries, error) {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return nil, f.err
	}
	f.mu.Unlock()
	return f.MockProvider.GetAggregatedSeries(ctx, query)
}

func resilientFor(provider MetricsProvider, maxFailures int) *ResilientProvider {
	return NewResilientProvider(ResilientProviderConfig{
		Provider:        provider,
		MaxFailures:     maxFailures,
		Timeout:         time.Hour,
		RetryAttempts:   3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	})
}

func TestResilientProvider_RetriesTransientFailures(t *testing.T) {
	mock := NewMockProvider(MockProviderConfig{})
	mock.SetSeries("ConsumedReadCapacityUnits", []float64{7})
	flaky := &flakyProvider{MockProvider: mock, failures: 2, err: errors.New("throttled")}

	series, err := resilientFor(flaky, 5).GetAggregatedSeries(context.Background(), testQuery("ConsumedReadCapacityUnits"))

	require.NoError(t, err)
	assert.Equal(t, []float64{7}, series.Values())
}

func TestResilientProvider_ExhaustedRetriesSurfaceUnavailable(t *testing.T) {
	mock := NewMockProvider(MockProviderConfig{})
	flaky := &flakyProvider{MockProvider: mock, failures: 100, err: errors.New("connection reset")}
	provider := resilientFor(flaky, 2)

	_, err := provider.GetAggregatedSeries(context.Background(), testQuery("ConsumedReadCapacityUnits"))
	assert.ErrorIs(t, err, ErrMetricsUnavailable)

	_, _ = provider.GetAggregatedSeries(context.Background(), testQuery("ConsumedReadCapacityUnits"))
	assert.Equal(t, resilience.StateOpen, provider.CircuitState())

	_, err = provider.GetAggregatedSeries(context.Background(), testQuery("ConsumedReadCapacityUnits"))
	assert.ErrorIs(t, err, ErrMetricsUnavailable)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)

	provider.ResetCircuit()
	assert.Equal(t, resilience.StateClosed, provider.CircuitState())
}

func TestResilientProvider_InvalidQueryIsNotRetried(t *testing.T) {
	mock := NewMockProvider(MockProviderConfig{})
	provider := resilientFor(mock, 1)

	q := testQuery("")
	_, err := provider.GetAggregatedSeries(context.Background(), q)

	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.Equal(t, resilience.StateClosed, provider.CircuitState())
}

func testSamplerConfig() Config {
	return Config{
		Namespace:  "AWS/DynamoDB",
		Dimensions: map[string]string{"TableName": "orders"},
		Window:     10 * time.Minute,
		Period:     time.Minute,
		Metrics: map[models.Axis]AxisMetrics{
			models.AxisRead:  {Consumed: "ConsumedReadCapacityUnits", Provisioned: "ProvisionedReadCapacityUnits"},
			models.AxisWrite: {Consumed: "ConsumedWriteCapacityUnits", Provisioned: "ProvisionedWriteCapacityUnits"},
		},
	}
}

func TestSampler_WindowIsRecomputedPerCall(t *testing.T) {
	s := New(NewMockProvider(MockProviderConfig{}), testSamplerConfig())

	now := testStart
	s.SetClock(func() time.Time { return now })

	first := s.Window()
	now = now.Add(5 * time.Minute)
	second := s.Window()

	assert.Equal(t, 10*time.Minute, first.Duration())
	assert.Equal(t, testStart, first.End)
	assert.Equal(t, testStart.Add(5*time.Minute), second.End)
}

func TestSampler_SampleAllFetchesFourSeries(t *testing.T) {
	mock := NewMockProvider(MockProviderConfig{})
	mock.SetSeries("ConsumedReadCapacityUnits", []float64{5, 12, 8})
	mock.SetSeries("ConsumedWriteCapacityUnits", []float64{1})
	mock.SetSeries("ProvisionedReadCapacityUnits", []float64{10})
	mock.SetSeries("ProvisionedWriteCapacityUnits", []float64{10})

	samples := New(mock, testSamplerConfig()).SampleAll(context.Background(), testWindow)

	require.Len(t, samples.Axes, 2)
	read := samples.Axis(models.AxisRead)
	require.NoError(t, read.ConsumedErr)
	require.NoError(t, read.ProvisionedErr)
	assert.Equal(t, []float64{5, 12, 8}, read.Consumed.Values())
	assert.Equal(t, []float64{10}, read.Provisioned.Values())
	assert.Equal(t, []float64{1}, samples.Axis(models.AxisWrite).Consumed.Values())
	assert.Equal(t, testWindow, samples.Window)
}

type selectiveProvider struct {
	*MockProvider
	failing string
}

func (p *selectiveProvider) GetAggregatedSeries(ctx context.Context, query SeriesQuery) (*models.MetricSeries, error) {
	if query.MetricName == p.failing {
		return nil, ErrMetricsUnavailable
	}
	return p.MockProvider.GetAggregatedSeries(ctx, query)
}

func TestSampler_OneFailedFetchDoesNotCancelOthers(t *testing.T) {
	mock := NewMockProvider(MockProviderConfig{})
	mock.SetSeries("ConsumedWriteCapacityUnits", []float64{3, 4})
	provider := &selectiveProvider{MockProvider: mock, failing: "ConsumedReadCapacityUnits"}

	cfg := testSamplerConfig()
	cfg.SkipProvisioned = true
	samples := New(provider, cfg).SampleAll(context.Background(), testWindow)

	assert.ErrorIs(t, samples.Axis(models.AxisRead).ConsumedErr, ErrMetricsUnavailable)
	require.NoError(t, samples.Axis(models.AxisWrite).ConsumedErr)
	assert.Equal(t, []float64{3, 4}, samples.Axis(models.AxisWrite).Consumed.Values())
	assert.Nil(t, samples.Axis(models.AxisWrite).Provisioned)
	assert.Equal(t, 0, mock.Calls("ProvisionedWriteCapacityUnits"))
}

package sampler

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// CloudWatchAPI is the subset of the CloudWatch client the provider calls
type CloudWatchAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
	ListMetrics(ctx context.Context, params *cloudwatch.ListMetricsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.ListMetricsOutput, error)
}

type CloudWatchProvider struct {
	client    CloudWatchAPI
	namespace string
}

type CloudWatchProviderConfig struct {
	Client CloudWatchAPI
	// Namespace is used for health checks and for queries that leave it empty
	Namespace string
}

func NewCloudWatchProvider(cfg CloudWatchProviderConfig) *CloudWatchProvider {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "AWS/DynamoDB"
	}

	return &CloudWatchProvider{
		client:    cfg.Client,
		namespace: namespace,
	}
}

// NewCloudWatchClient builds a client from shared AWS config, pointing it at
// endpoint when one is set.
func NewCloudWatchClient(awsCfg aws.Config, endpoint string) *cloudwatch.Client {
	return cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

func (p *CloudWatchProvider) GetAggregatedSeries(ctx context.Context, query SeriesQuery) (*models.MetricSeries, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	input := p.buildInput(query)

	output, err := p.client.GetMetricStatistics(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMetricsUnavailable, query.MetricName, err)
	}

	series := &models.MetricSeries{
		MetricName: query.MetricName,
		Samples:    make([]models.MetricSample, 0, len(output.Datapoints)),
	}

	for _, dp := range output.Datapoints {
		value, ok := datapointValue(dp, input.Statistics[0])
		if !ok {
			continue
		}
		series.Samples = append(series.Samples, models.MetricSample{
			Timestamp: aws.ToTime(dp.Timestamp),
			Value:     value,
		})
	}

	logger.WithFields(map[string]interface{}{
		"metric":  query.MetricName,
		"samples": series.Len(),
		"start":   query.Window.Start,
		"end":     query.Window.End,
	}).Debug("CloudWatch series fetched")

	return series, nil
}

func (p *CloudWatchProvider) buildInput(query SeriesQuery) *cloudwatch.GetMetricStatisticsInput {
	namespace := query.Namespace
	if namespace == "" {
		namespace = p.namespace
	}

	statistic := types.Statistic(query.Statistic)
	if query.Statistic == "" {
		statistic = types.StatisticSum
	}

	return &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(namespace),
		MetricName: aws.String(query.MetricName),
		Dimensions: toDimensions(query.Dimensions),
		StartTime:  aws.Time(query.Window.Start),
		EndTime:    aws.Time(query.Window.End),
		Period:     aws.Int32(int32(query.Period.Seconds())),
		Statistics: []types.Statistic{statistic},
		Unit:       types.StandardUnitCount,
	}
}

func toDimensions(dims map[string]string) []types.Dimension {
	names := make([]string, 0, len(dims))
	for name := range dims {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]types.Dimension, 0, len(names))
	for _, name := range names {
		out = append(out, types.Dimension{
			Name:  aws.String(name),
			Value: aws.String(dims[name]),
		})
	}
	return out
}

func datapointValue(dp types.Datapoint, statistic types.Statistic) (float64, bool) {
	var v *float64
	switch statistic {
	case types.StatisticSum:
		v = dp.Sum
	case types.StatisticAverage:
		v = dp.Average
	case types.StatisticMaximum:
		v = dp.Maximum
	case types.StatisticMinimum:
		v = dp.Minimum
	case types.StatisticSampleCount:
		v = dp.SampleCount
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

func (p *CloudWatchProvider) HealthCheck(ctx context.Context) error {
	_, err := p.client.ListMetrics(ctx, &cloudwatch.ListMetricsInput{
		Namespace: aws.String(p.namespace),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMetricsUnavailable, err)
	}
	return nil
}

func (p *CloudWatchProvider) Close() error {
	return nil
}

package scaler

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/applicationautoscaling"
	"github.com/aws/aws-sdk-go-v2/service/applicationautoscaling/types"
	"github.com/aws/smithy-go"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
	"github.com/OldStager01/throughput-autoscaler/pkg/validation"
)

// AutoScalingAPI is the subset of the Application Auto Scaling client the
// registry calls
type AutoScalingAPI interface {
	DescribeScalableTargets(ctx context.Context, params *applicationautoscaling.DescribeScalableTargetsInput, optFns ...func(*applicationautoscaling.Options)) (*applicationautoscaling.DescribeScalableTargetsOutput, error)
	RegisterScalableTarget(ctx context.Context, params *applicationautoscaling.RegisterScalableTargetInput, optFns ...func(*applicationautoscaling.Options)) (*applicationautoscaling.RegisterScalableTargetOutput, error)
}

// AutoScalingRegistry stores bounds as Application Auto Scaling scalable targets
type AutoScalingRegistry struct {
	client           AutoScalingAPI
	serviceNamespace types.ServiceNamespace
	dimensions       map[models.Axis]types.ScalableDimension
}

type AutoScalingRegistryConfig struct {
	Client           AutoScalingAPI
	ServiceNamespace string
	ReadDimension    string
	WriteDimension   string
}

func NewAutoScalingRegistry(cfg AutoScalingRegistryConfig) *AutoScalingRegistry {
	if cfg.ServiceNamespace == "" {
		cfg.ServiceNamespace = string(types.ServiceNamespaceDynamodb)
	}
	if cfg.ReadDimension == "" {
		cfg.ReadDimension = string(types.ScalableDimensionDynamoDBTableReadCapacityUnits)
	}
	if cfg.WriteDimension == "" {
		cfg.WriteDimension = string(types.ScalableDimensionDynamoDBTableWriteCapacityUnits)
	}

	return &AutoScalingRegistry{
		client:           cfg.Client,
		serviceNamespace: types.ServiceNamespace(cfg.ServiceNamespace),
		dimensions: map[models.Axis]types.ScalableDimension{
			models.AxisRead:  types.ScalableDimension(cfg.ReadDimension),
			models.AxisWrite: types.ScalableDimension(cfg.WriteDimension),
		},
	}
}

// NewAutoScalingClient builds a client from shared AWS config, pointing it at
// endpoint when one is set.
func NewAutoScalingClient(awsCfg aws.Config, endpoint string) *applicationautoscaling.Client {
	return applicationautoscaling.NewFromConfig(awsCfg, func(o *applicationautoscaling.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

func (r *AutoScalingRegistry) dimension(axis models.Axis) (types.ScalableDimension, error) {
	dim, ok := r.dimensions[axis]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAxis, axis)
	}
	return dim, nil
}

func (r *AutoScalingRegistry) Describe(ctx context.Context, resourceID string, axis models.Axis) (models.CapacityBounds, error) {
	dim, err := r.dimension(axis)
	if err != nil {
		return models.CapacityBounds{}, err
	}

	output, err := r.client.DescribeScalableTargets(ctx, &applicationautoscaling.DescribeScalableTargetsInput{
		ServiceNamespace:  r.serviceNamespace,
		ResourceIds:       []string{resourceID},
		ScalableDimension: dim,
	})
	if err != nil {
		return models.CapacityBounds{}, classifyError(err)
	}

	if len(output.ScalableTargets) == 0 {
		return models.CapacityBounds{}, fmt.Errorf("%w: %s %s", ErrTargetNotFound, resourceID, dim)
	}
	if len(output.ScalableTargets) > 1 {
		logger.WithAxis(resourceID, axis.String()).Warnf(
			"Found %d scalable targets, using the first", len(output.ScalableTargets),
		)
	}

	target := output.ScalableTargets[0]
	return models.CapacityBounds{
		Min: int(aws.ToInt32(target.MinCapacity)),
		Max: int(aws.ToInt32(target.MaxCapacity)),
	}, nil
}

func (r *AutoScalingRegistry) Register(ctx context.Context, resourceID string, axis models.Axis, bounds models.CapacityBounds) error {
	dim, err := r.dimension(axis)
	if err != nil {
		return err
	}
	if err := validation.ValidateBounds(bounds.Min, bounds.Max); err != nil {
		return fmt.Errorf("%w: %w", ErrUpdateRejected, err)
	}

	_, err = r.client.RegisterScalableTarget(ctx, &applicationautoscaling.RegisterScalableTargetInput{
		ServiceNamespace:  r.serviceNamespace,
		ResourceId:        aws.String(resourceID),
		ScalableDimension: dim,
		MinCapacity:       aws.Int32(int32(bounds.Min)),
		MaxCapacity:       aws.Int32(int32(bounds.Max)),
	})
	if err != nil {
		return classifyError(err)
	}

	return nil
}

func (r *AutoScalingRegistry) Close() error {
	return nil
}

// classifyError maps service exceptions onto the registry error taxonomy
func classifyError(err error) error {
	var (
		notFound   *types.ObjectNotFoundException
		invalid    *types.ValidationException
		concurrent *types.ConcurrentUpdateException
		limit      *types.LimitExceededException
		internal   *types.InternalServiceException
	)

	switch {
	case errors.As(err, &notFound):
		return fmt.Errorf("%w: %w", ErrTargetNotFound, err)
	case errors.As(err, &invalid), errors.As(err, &limit):
		return fmt.Errorf("%w: %w", ErrUpdateRejected, err)
	case errors.As(err, &concurrent):
		return fmt.Errorf("%w: %w: %w", ErrUpdateRejected, ErrConcurrentUpdate, err)
	case errors.As(err, &internal):
		return fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %w", ErrRegistryUnavailable, apiErr.ErrorCode(), err)
	}

	return fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
}

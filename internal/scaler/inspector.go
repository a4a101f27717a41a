package scaler

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// BoundsResult is the inspected bounds of one axis or the reason they are missing
type BoundsResult struct {
	Bounds models.CapacityBounds
	Err    error
}

// Inspector reads the currently registered bounds of a resource
type Inspector struct {
	registry   BoundsRegistry
	resourceID string
}

func NewInspector(registry BoundsRegistry, resourceID string) *Inspector {
	return &Inspector{
		registry:   registry,
		resourceID: resourceID,
	}
}

func (i *Inspector) Inspect(ctx context.Context, axis models.Axis) (models.CapacityBounds, error) {
	return i.registry.Describe(ctx, i.resourceID, axis)
}

// InspectAll describes every axis concurrently. Each axis carries its own
// error; one failure does not stop the others.
func (i *Inspector) InspectAll(ctx context.Context, axes []models.Axis) map[models.Axis]BoundsResult {
	results := make(map[models.Axis]BoundsResult, len(axes))
	var mu sync.Mutex
	var g errgroup.Group

	for _, axis := range axes {
		axis := axis
		g.Go(func() error {
			bounds, err := i.Inspect(ctx, axis)
			if err != nil {
				logger.WithAxis(i.resourceID, axis.String()).WithError(err).Warn("Bounds inspection failed")
			}

			mu.Lock()
			results[axis] = BoundsResult{Bounds: bounds, Err: err}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

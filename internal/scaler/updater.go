package scaler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// UpdateResult is the outcome of one axis registration
type UpdateResult struct {
	Bounds models.CapacityBounds
	Err    error
}

// Updater replaces the registered bounds of a resource with
// {target, target+spread} per axis.
type Updater struct {
	registry   BoundsRegistry
	resourceID string
	spread     int
}

func NewUpdater(registry BoundsRegistry, resourceID string, spread int) *Updater {
	if spread < 0 {
		spread = 0
	}

	return &Updater{
		registry:   registry,
		resourceID: resourceID,
		spread:     spread,
	}
}

// BoundsFor returns the bounds a target value is registered as
func (u *Updater) BoundsFor(target int) models.CapacityBounds {
	return models.NewBoundsFromTarget(target, u.spread)
}

// Apply registers every target concurrently and waits for all of them.
// Applying the same targets twice leaves the same bounds registered.
func (u *Updater) Apply(ctx context.Context, targets map[models.Axis]int) map[models.Axis]UpdateResult {
	results := make(map[models.Axis]UpdateResult, len(targets))
	var mu sync.Mutex
	var g errgroup.Group

	for axis, target := range targets {
		axis, target := axis, target
		g.Go(func() error {
			bounds := u.BoundsFor(target)
			err := u.registry.Register(ctx, u.resourceID, axis, bounds)
			if err != nil && !errors.Is(err, ErrUpdateRejected) {
				err = fmt.Errorf("%w: %w", ErrUpdateRejected, err)
			}

			log := logger.WithAxis(u.resourceID, axis.String())
			if err != nil {
				log.WithError(err).Errorf("Failed to register bounds %s", bounds)
			} else {
				log.Infof("Bounds updated to %s", bounds)
			}

			mu.Lock()
			results[axis] = UpdateResult{Bounds: bounds, Err: err}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

package scaler

import (
	"context"
	"errors"

	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

var (
	ErrTargetNotFound      = errors.New("scalable target not found")
	ErrUpdateRejected      = errors.New("bounds update rejected")
	ErrConcurrentUpdate    = errors.New("concurrent update in progress")
	ErrRegistryUnavailable = errors.New("bounds registry unavailable")
	ErrUnknownAxis         = errors.New("unknown capacity axis")
)

// BoundsRegistry reads and replaces the elastic bounds registered for a
// resource axis. At most one registration exists per resource and axis.
type BoundsRegistry interface {
	// Describe returns the registered bounds or ErrTargetNotFound
	Describe(ctx context.Context, resourceID string, axis models.Axis) (models.CapacityBounds, error)

	// Register overwrites the bounds; it fails with ErrUpdateRejected when the
	// registry refuses them
	Register(ctx context.Context, resourceID string, axis models.Axis, bounds models.CapacityBounds) error

	// Close releases resources
	Close() error
}

// IsTransient reports whether a registry error may succeed when retried
func IsTransient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrConcurrentUpdate):
		return true
	case errors.Is(err, ErrTargetNotFound), errors.Is(err, ErrUpdateRejected), errors.Is(err, ErrUnknownAxis):
		return false
	}
	return true
}

package scaler

import (
	"context"
	"fmt"
	"sync"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
	"github.com/OldStager01/throughput-autoscaler/pkg/validation"
)

// Registration is one accepted Register call
type Registration struct {
	ResourceID string
	Axis       models.Axis
	Bounds     models.CapacityBounds
}

type registryKey struct {
	resourceID string
	axis       models.Axis
}

// MemoryRegistry keeps registrations in process. It backs local runs and tests.
type MemoryRegistry struct {
	targets       map[registryKey]models.CapacityBounds
	registrations []Registration
	mu            sync.RWMutex
	callbacks     RegistryCallbacks
	describeErr   error
	registerErr   error
}

type RegistryCallbacks struct {
	OnRegistered func(resourceID string, axis models.Axis, previous *models.CapacityBounds, bounds models.CapacityBounds)
}

func NewMemoryRegistry(callbacks RegistryCallbacks) *MemoryRegistry {
	return &MemoryRegistry{
		targets:   make(map[registryKey]models.CapacityBounds),
		callbacks: callbacks,
	}
}

// Seed registers bounds without recording a registration
func (r *MemoryRegistry) Seed(resourceID string, axis models.Axis, bounds models.CapacityBounds) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[registryKey{resourceID, axis}] = bounds
}

// Remove drops the registration so Describe reports ErrTargetNotFound
func (r *MemoryRegistry) Remove(resourceID string, axis models.Axis) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.targets, registryKey{resourceID, axis})
}

func (r *MemoryRegistry) SetDescribeError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.describeErr = err
}

func (r *MemoryRegistry) SetRegisterError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerErr = err
}

func (r *MemoryRegistry) Describe(ctx context.Context, resourceID string, axis models.Axis) (models.CapacityBounds, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.describeErr != nil {
		return models.CapacityBounds{}, r.describeErr
	}

	bounds, exists := r.targets[registryKey{resourceID, axis}]
	if !exists {
		return models.CapacityBounds{}, fmt.Errorf("%w: %s %s", ErrTargetNotFound, resourceID, axis)
	}
	return bounds, nil
}

func (r *MemoryRegistry) Register(ctx context.Context, resourceID string, axis models.Axis, bounds models.CapacityBounds) error {
	if !axis.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAxis, axis)
	}
	if err := validation.ValidateBounds(bounds.Min, bounds.Max); err != nil {
		return fmt.Errorf("%w: %w", ErrUpdateRejected, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.registerErr != nil {
		return r.registerErr
	}

	key := registryKey{resourceID, axis}
	var previous *models.CapacityBounds
	if old, exists := r.targets[key]; exists {
		previous = &old
	}

	r.targets[key] = bounds
	r.registrations = append(r.registrations, Registration{
		ResourceID: resourceID,
		Axis:       axis,
		Bounds:     bounds,
	})

	logger.WithAxis(resourceID, axis.String()).Infof("Registered bounds %s", bounds)

	if r.callbacks.OnRegistered != nil {
		go r.callbacks.OnRegistered(resourceID, axis, previous, bounds)
	}

	return nil
}

// Registrations returns a copy of every accepted Register call, oldest first
func (r *MemoryRegistry) Registrations() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Registration, len(r.registrations))
	copy(out, r.registrations)
	return out
}

func (r *MemoryRegistry) Close() error {
	return nil
}

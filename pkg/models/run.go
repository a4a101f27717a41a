package models

import (
	"errors"
	"fmt"
	"time"
)

// AxisOutcome collects everything a run learned and did for one axis
type AxisOutcome struct {
	Axis            Axis            `json:"axis"`
	ConsumedSamples int             `json:"consumed_samples"`
	ProvisionedPeak *float64        `json:"provisioned_peak,omitempty"`
	Bounds          *CapacityBounds `json:"bounds,omitempty"`
	Decision        *Decision       `json:"decision,omitempty"`
	UpdateAttempted bool            `json:"update_attempted"`
	Applied         bool            `json:"applied"`
	AppliedBounds   *CapacityBounds `json:"applied_bounds,omitempty"`
	Error           string          `json:"error,omitempty"`
	ErrorKind       string          `json:"error_kind,omitempty"`

	err error
}

func NewAxisOutcome(axis Axis) *AxisOutcome {
	return &AxisOutcome{Axis: axis}
}

// Fail records err as the axis failure. The first failure wins.
func (o *AxisOutcome) Fail(kind string, err error) {
	if err == nil || o.err != nil {
		return
	}
	o.err = err
	o.Error = err.Error()
	o.ErrorKind = kind
}

func (o *AxisOutcome) Err() error {
	return o.err
}

func (o *AxisOutcome) Failed() bool {
	return o.err != nil
}

// RunResult is what a single run reports back to its invoker
type RunResult struct {
	RunID           string                `json:"run_id"`
	ResourceID      string                `json:"resource_id"`
	Window          TimeWindow            `json:"window"`
	StartedAt       time.Time             `json:"started_at"`
	FinishedAt      time.Time             `json:"finished_at"`
	UpdateTriggered bool                  `json:"update_triggered"`
	Axes            map[Axis]*AxisOutcome `json:"axes"`
}

func NewRunResult(resourceID string, startedAt time.Time) *RunResult {
	axes := make(map[Axis]*AxisOutcome, 2)
	for _, axis := range Axes() {
		axes[axis] = NewAxisOutcome(axis)
	}

	return &RunResult{
		RunID:      NewUUID(),
		ResourceID: resourceID,
		StartedAt:  startedAt,
		Axes:       axes,
	}
}

func (r *RunResult) Axis(axis Axis) *AxisOutcome {
	return r.Axes[axis]
}

// Err joins the per-axis failures, or returns nil when every axis succeeded
func (r *RunResult) Err() error {
	var errs []error
	for _, axis := range Axes() {
		outcome, ok := r.Axes[axis]
		if !ok || outcome.Err() == nil {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", axis, outcome.Err()))
	}
	return errors.Join(errs...)
}

func (r *RunResult) Succeeded() bool {
	return r.Err() == nil
}

// Changed reports whether any axis decision asked for new bounds
func (r *RunResult) Changed() bool {
	for _, outcome := range r.Axes {
		if outcome.Decision != nil && outcome.Decision.Changed {
			return true
		}
	}
	return false
}

func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *RunResult) Status() string {
	if r.Succeeded() {
		return "success"
	}
	for _, outcome := range r.Axes {
		if !outcome.Failed() {
			return "partial"
		}
	}
	return "failed"
}

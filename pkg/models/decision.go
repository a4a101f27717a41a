package models

import "time"

type ScalingAction string

const (
	ActionIncrease  ScalingAction = "INCREASE"
	ActionDecrease  ScalingAction = "DECREASE"
	ActionRemain    ScalingAction = "REMAIN"
	ActionUndefined ScalingAction = "UNDEFINED"
)

// Decision is the per-axis outcome of the decision engine. It is recomputed
// on every run and never persisted as an input to a later run.
type Decision struct {
	Axis        Axis            `json:"axis"`
	Timestamp   time.Time       `json:"timestamp"`
	Action      ScalingAction   `json:"action"`
	Peak        float64         `json:"peak"`
	Current     CapacityBounds  `json:"current"`
	TargetValue int             `json:"target_value"`
	Changed     bool            `json:"changed"`
	Proposed    *CapacityBounds `json:"proposed,omitempty"`
}

func (d *Decision) ShouldExecute() bool {
	return d.Changed && (d.Action == ActionIncrease || d.Action == ActionDecrease)
}

// Delta returns the change of the lower bound the decision asks for
func (d *Decision) Delta() int {
	return d.TargetValue - d.Current.Min
}

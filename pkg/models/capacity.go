package models

import "fmt"

type Axis string

const (
	AxisRead  Axis = "read"
	AxisWrite Axis = "write"
)

// Axes returns both capacity dimensions in a fixed order
func Axes() []Axis {
	return []Axis{AxisRead, AxisWrite}
}

func (a Axis) Valid() bool {
	return a == AxisRead || a == AxisWrite
}

func (a Axis) String() string {
	return string(a)
}

// CapacityBounds is the elastic {min, max} range registered for one axis
type CapacityBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func NewBoundsFromTarget(target, spread int) CapacityBounds {
	return CapacityBounds{
		Min: target,
		Max: target + spread,
	}
}

// Valid reports whether the bounds satisfy 1 <= Min <= Max
func (b CapacityBounds) Valid() bool {
	return b.Min >= 1 && b.Min <= b.Max
}

// Contains reports whether v lies within the bounds, both ends inclusive
func (b CapacityBounds) Contains(v float64) bool {
	return float64(b.Min) <= v && v <= float64(b.Max)
}

func (b CapacityBounds) Width() int {
	return b.Max - b.Min
}

func (b CapacityBounds) String() string {
	return fmt.Sprintf("{min:%d max:%d}", b.Min, b.Max)
}

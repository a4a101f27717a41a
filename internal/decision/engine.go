package decision

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

var (
	ErrInsufficientData   = errors.New("insufficient data: metric series is empty")
	ErrInvariantViolation = errors.New("invariant violation: bounds min exceeds max")
)

// Decide classifies the peak of series against bounds. It has no side
// effects and returns the same decision for the same inputs.
func Decide(series *models.MetricSeries, bounds models.CapacityBounds, defaultFloor, spread int) (*models.Decision, error) {
	if series == nil || series.IsEmpty() {
		return nil, ErrInsufficientData
	}

	sample, _ := series.Peak()
	peak := sample.Value

	decision := &models.Decision{
		Peak:    peak,
		Current: bounds,
	}

	lower, upper := float64(bounds.Min), float64(bounds.Max)

	switch {
	case peak > upper && peak > lower:
		decision.Action = models.ActionIncrease
		decision.TargetValue = ceil(peak)

	case peak < lower && peak < upper:
		decision.Action = models.ActionDecrease
		decision.TargetValue = ceil(peak)
		if peak == 0 {
			decision.TargetValue = defaultFloor
		}

	case lower <= peak && peak <= upper:
		decision.Action = models.ActionRemain
		decision.TargetValue = ceil(peak)
		return decision, nil

	default:
		decision.Action = models.ActionUndefined
		return decision, fmt.Errorf("%w: peak %.2f against %s", ErrInvariantViolation, peak, bounds)
	}

	proposed := models.NewBoundsFromTarget(decision.TargetValue, spread)
	decision.Changed = true
	decision.Proposed = &proposed

	return decision, nil
}

func ceil(v float64) int {
	return int(math.Ceil(v))
}

type Config struct {
	DefaultFloor int
	Spread       int
}

// Engine applies Decide per axis with a fixed policy, stamps the decision
// time and logs the outcome
type Engine struct {
	config Config
	now    func() time.Time
}

func NewEngine(cfg Config) *Engine {
	if cfg.DefaultFloor <= 0 {
		cfg.DefaultFloor = 2
	}
	if cfg.Spread < 0 {
		cfg.Spread = 0
	}

	return &Engine{config: cfg, now: time.Now}
}

func (e *Engine) Config() Config {
	return e.config
}

func (e *Engine) Decide(resourceID string, axis models.Axis, series *models.MetricSeries, bounds models.CapacityBounds) (*models.Decision, error) {
	log := logger.WithAxis(resourceID, axis.String())

	decision, err := Decide(series, bounds, e.config.DefaultFloor, e.config.Spread)
	if decision != nil {
		decision.Axis = axis
		decision.Timestamp = e.now()
	}
	if err != nil {
		log.WithError(err).Warn("Decision: no decision for axis")
		return decision, err
	}

	entry := log.WithFields(map[string]interface{}{
		"action":  decision.Action,
		"peak":    decision.Peak,
		"current": bounds.String(),
		"target":  decision.TargetValue,
	})

	if decision.Changed {
		entry.WithField("proposed", decision.Proposed.String()).Info("Decision: bounds change required")
	} else {
		entry.Debug("Decision: remain (peak within bounds)")
	}

	return decision, nil
}

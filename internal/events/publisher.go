package events

import (
	"fmt"

	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// Publisher emits the events of one run onto the bus
type Publisher struct {
	bus        *EventBus
	traceID    string
	runID      string
	resourceID string
}

func NewPublisher(bus *EventBus, resourceID string) *Publisher {
	return &Publisher{bus: bus, resourceID: resourceID}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	clone := *p
	clone.traceID = traceID
	return &clone
}

func (p *Publisher) WithRun(runID string) *Publisher {
	clone := *p
	clone.runID = runID
	return &clone
}

func (p *Publisher) publish(event *models.Event) {
	if p.bus == nil {
		return
	}
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	if p.runID != "" {
		event.RunID = p.runID
	}
	p.bus.Publish(event)
}

func (p *Publisher) RunStarted(window models.TimeWindow) {
	event := models.NewEvent(models.EventTypeRunStarted, p.resourceID, "Run started").
		WithData(window)
	p.publish(event)
}

func (p *Publisher) SeriesSampled(axis models.Axis, series *models.MetricSeries) {
	msg := fmt.Sprintf("Sampled %d points of %s", series.Len(), series.MetricName)
	event := models.NewEvent(models.EventTypeSeriesSampled, p.resourceID, msg).
		WithAxis(axis).
		WithData(series)
	p.publish(event)
}

func (p *Publisher) BoundsInspected(axis models.Axis, bounds models.CapacityBounds) {
	event := models.NewEvent(models.EventTypeBoundsInspected, p.resourceID, "Registered bounds "+bounds.String()).
		WithAxis(axis).
		WithData(bounds)
	p.publish(event)
}

func (p *Publisher) DecisionMade(decision *models.Decision) {
	msg := "Decision: " + string(decision.Action)
	event := models.NewEvent(models.EventTypeDecisionMade, p.resourceID, msg).
		WithAxis(decision.Axis).
		WithData(decision)

	if decision.Changed {
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) BoundsUpdated(axis models.Axis, bounds models.CapacityBounds) {
	event := models.NewEvent(models.EventTypeBoundsUpdated, p.resourceID, "Bounds updated to "+bounds.String()).
		WithAxis(axis).
		WithData(bounds)
	p.publish(event)
}

func (p *Publisher) UpdateFailed(axis models.Axis, bounds models.CapacityBounds, err error) {
	event := models.NewEvent(models.EventTypeUpdateFailed, p.resourceID, "Bounds update failed").
		WithAxis(axis).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"bounds": bounds,
			"error":  err.Error(),
		})
	p.publish(event)
}

func (p *Publisher) RunCompleted(result *models.RunResult) {
	msg := "Run completed: " + result.Status()
	event := models.NewEvent(models.EventTypeRunCompleted, p.resourceID, msg).
		WithData(result)

	switch result.Status() {
	case "partial":
		event.WithSeverity(models.SeverityWarning)
	case "failed":
		event.WithSeverity(models.SeverityCritical)
	}

	p.publish(event)
}

func (p *Publisher) Error(axis models.Axis, kind string, err error) {
	event := models.NewEvent(models.EventTypeError, p.resourceID, "Axis failed: "+kind).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"kind":  kind,
			"error": err.Error(),
		})
	if axis != "" {
		event.WithAxis(axis)
	}
	p.publish(event)
}

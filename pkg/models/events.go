package models

import "time"

type EventType string

const (
	EventTypeRunStarted      EventType = "run_started"
	EventTypeSeriesSampled   EventType = "series_sampled"
	EventTypeBoundsInspected EventType = "bounds_inspected"
	EventTypeDecisionMade    EventType = "decision_made"
	EventTypeBoundsUpdated   EventType = "bounds_updated"
	EventTypeUpdateFailed    EventType = "update_failed"
	EventTypeRunCompleted    EventType = "run_completed"
	EventTypeError           EventType = "error"
)

type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event represents an internal system event
type Event struct {
	ID         string        `json:"id"`
	Type       EventType     `json:"type"`
	Severity   EventSeverity `json:"severity"`
	ResourceID string        `json:"resource_id,omitempty"`
	RunID      string        `json:"run_id,omitempty"`
	Axis       Axis          `json:"axis,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	Message    string        `json:"message"`
	Data       interface{}   `json:"data,omitempty"`
	TraceID    string        `json:"trace_id,omitempty"`
}

func NewEvent(eventType EventType, resourceID, message string) *Event {
	return &Event{
		ID:         NewUUID(),
		Type:       eventType,
		Severity:   SeverityInfo,
		ResourceID: resourceID,
		Timestamp:  time.Now(),
		Message:    message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}

func (e *Event) WithTraceID(traceID string) *Event {
	e.TraceID = traceID
	return e
}

func (e *Event) WithRun(runID string) *Event {
	e.RunID = runID
	return e
}

func (e *Event) WithAxis(axis Axis) *Event {
	e.Axis = axis
	return e
}

// AllEventTypes lists every event type the bus can carry
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeRunStarted,
		EventTypeSeriesSampled,
		EventTypeBoundsInspected,
		EventTypeDecisionMade,
		EventTypeBoundsUpdated,
		EventTypeUpdateFailed,
		EventTypeRunCompleted,
		EventTypeError,
	}
}

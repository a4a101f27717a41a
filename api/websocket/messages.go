package websocket

import (
	"time"

	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

type MessageType string

const (
	MessageTypeRunStarted    MessageType = "run_started"
	MessageTypeDecision      MessageType = "decision"
	MessageTypeBoundsUpdated MessageType = "bounds_updated"
	MessageTypeUpdateFailed  MessageType = "update_failed"
	MessageTypeRunCompleted  MessageType = "run_completed"
	MessageTypeError         MessageType = "error"
	MessageTypeSubscription  MessageType = "subscription_update"
)

// OutgoingMessage is the frame sent to clients for every forwarded event
type OutgoingMessage struct {
	Type       MessageType `json:"type"`
	ResourceID string      `json:"resource_id"`
	RunID      string      `json:"run_id,omitempty"`
	Axis       models.Axis `json:"axis,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Severity   string      `json:"severity,omitempty"`
	Message    string      `json:"message,omitempty"`
	TraceID    string      `json:"trace_id,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

type SubscriptionUpdate struct {
	Type       MessageType `json:"type"`
	Action     string      `json:"action"`
	ResourceID string      `json:"resource_id"`
	Timestamp  time.Time   `json:"timestamp"`
}

// messageType maps run events to client message types. Sampling and
// inspection events stay internal.
func messageType(eventType models.EventType) (MessageType, bool) {
	switch eventType {
	case models.EventTypeRunStarted:
		return MessageTypeRunStarted, true
	case models.EventTypeDecisionMade:
		return MessageTypeDecision, true
	case models.EventTypeBoundsUpdated:
		return MessageTypeBoundsUpdated, true
	case models.EventTypeUpdateFailed:
		return MessageTypeUpdateFailed, true
	case models.EventTypeRunCompleted:
		return MessageTypeRunCompleted, true
	case models.EventTypeError:
		return MessageTypeError, true
	default:
		return "", false
	}
}

func NewOutgoingMessage(event *models.Event) (*OutgoingMessage, bool) {
	msgType, ok := messageType(event.Type)
	if !ok {
		return nil, false
	}

	return &OutgoingMessage{
		Type:       msgType,
		ResourceID: event.ResourceID,
		RunID:      event.RunID,
		Axis:       event.Axis,
		Timestamp:  event.Timestamp,
		Severity:   string(event.Severity),
		Message:    event.Message,
		TraceID:    event.TraceID,
		Data:       event.Data,
	}, true
}

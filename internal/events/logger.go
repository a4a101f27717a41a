package events

import (
	"context"
	"time"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// RecordWriter persists the audit rows of a completed run
type RecordWriter interface {
	InsertRecords(ctx context.Context, records []*models.DecisionRecord) error
}

// EventLogger writes every event to the structured log and journals
// completed runs when a RecordWriter is configured.
type EventLogger struct {
	writer    RecordWriter
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	timeout   time.Duration
}

func NewEventLogger(writer RecordWriter, eventChan <-chan *models.Event) *EventLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventLogger{
		writer:    writer,
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		timeout:   5 * time.Second,
	}
}

func (l *EventLogger) Start() {
	go l.run()
}

// Stop cancels the logger and waits for the event loop to exit
func (l *EventLogger) Stop() {
	l.cancel()
	<-l.done
}

func (l *EventLogger) run() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.drain()
			return
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		}
	}
}

// drain handles events already buffered when Stop was called, so the last
// run of a one-shot invocation is still journaled
func (l *EventLogger) drain() {
	for {
		select {
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		default:
			return
		}
	}
}

func (l *EventLogger) processEvent(event *models.Event) {
	entry := logger.WithFields(map[string]interface{}{
		"event_type":  event.Type,
		"resource_id": event.ResourceID,
		"run_id":      event.RunID,
		"severity":    event.Severity,
		"trace_id":    event.TraceID,
	})
	if event.Axis != "" {
		entry = entry.WithField("axis", event.Axis)
	}

	switch event.Severity {
	case models.SeverityCritical:
		entry.Error(event.Message)
	case models.SeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Debug(event.Message)
	}

	if event.Type == models.EventTypeRunCompleted {
		l.persistRun(event)
	}
}

func (l *EventLogger) persistRun(event *models.Event) {
	if l.writer == nil {
		return
	}

	result, ok := event.Data.(*models.RunResult)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(l.ctx), l.timeout)
	defer cancel()

	if err := l.writer.InsertRecords(ctx, models.NewDecisionRecords(result)); err != nil {
		logCtx := logger.WithTraceID(ctx, event.TraceID)
		logger.WithRun(logCtx, result.RunID, result.ResourceID).Errorf("Failed to persist run: %v", err)
	}
}

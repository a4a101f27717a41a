package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

func receive(t *testing.T, ch <-chan *models.Event) *models.Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventBus_SubscribeByType(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	decisions := bus.Subscribe(models.EventTypeDecisionMade)
	all := bus.SubscribeAll()

	pub := NewPublisher(bus, "table/orders").WithRun("run-1").WithTraceID("trace-1")
	pub.DecisionMade(&models.Decision{Axis: models.AxisRead, Action: models.ActionIncrease, Changed: true})
	pub.RunStarted(models.TimeWindow{})

	event := receive(t, decisions)
	assert.Equal(t, models.EventTypeDecisionMade, event.Type)
	assert.Equal(t, models.AxisRead, event.Axis)
	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, "trace-1", event.TraceID)
	assert.Equal(t, models.SeverityWarning, event.Severity)

	assert.Equal(t, models.EventTypeDecisionMade, receive(t, all).Type)
	assert.Equal(t, models.EventTypeRunStarted, receive(t, all).Type)

	select {
	case extra := <-decisions:
		t.Fatalf("unexpected event %s", extra.Type)
	default:
	}
}

func TestEventBus_DropsWhenFullAndStopsAfterClose(t *testing.T) {
	bus := NewEventBus(1)
	ch := bus.Subscribe(models.EventTypeError)

	pub := NewPublisher(bus, "table/orders")
	pub.Error(models.AxisWrite, "unknown", errors.New("first"))
	pub.Error(models.AxisWrite, "unknown", errors.New("second"))

	bus.Close()
	bus.Close()
	pub.Error("", "unknown", errors.New("after close"))

	event, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, "first", event.Data.(map[string]interface{})["error"])

	_, ok = <-ch
	assert.False(t, ok)
	assert.Equal(t, uint64(1), bus.Dropped())

	_, ok = <-bus.SubscribeAll()
	assert.False(t, ok, "subscribing after close returns a closed channel")
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	kept := bus.Subscribe(models.EventTypeRunStarted, models.EventTypeRunCompleted)
	gone := bus.SubscribeAll()
	bus.Unsubscribe(gone)
	bus.Unsubscribe(gone)

	_, ok := <-gone
	assert.False(t, ok)

	pub := NewPublisher(bus, "table/orders")
	pub.RunStarted(models.TimeWindow{})
	assert.Equal(t, models.EventTypeRunStarted, receive(t, kept).Type)
}

func TestPublisher_NilBusIsNoop(t *testing.T) {
	pub := NewPublisher(nil, "table/orders")
	assert.NotPanics(t, func() {
		pub.RunCompleted(models.NewRunResult("table/orders", time.Now()))
	})
}

type recordingWriter struct {
	mu      sync.Mutex
	records []*models.DecisionRecord
	called  chan struct{}
}

func (w *recordingWriter) InsertRecords(ctx context.Context, records []*models.DecisionRecord) error {
	w.mu.Lock()
	w.records = append(w.records, records...)
	w.mu.Unlock()
	w.called <- struct{}{}
	return nil
}

func TestEventLogger_PersistsCompletedRuns(t *testing.T) {
	bus := NewEventBus(10)
	writer := &recordingWriter{called: make(chan struct{}, 1)}
	eventLogger := NewEventLogger(writer, bus.SubscribeAll())
	eventLogger.Start()
	defer eventLogger.Stop()

	result := models.NewRunResult("table/orders", time.Now())
	result.Axis(models.AxisRead).Decision = &models.Decision{
		Axis:        models.AxisRead,
		Action:      models.ActionIncrease,
		Peak:        12,
		TargetValue: 12,
		Changed:     true,
	}
	result.Axis(models.AxisRead).Applied = true

	pub := NewPublisher(bus, "table/orders")
	pub.RunStarted(models.TimeWindow{})
	pub.RunCompleted(result)

	select {
	case <-writer.called:
	case <-time.After(time.Second):
		t.Fatal("run was not persisted")
	}

	writer.mu.Lock()
	defer writer.mu.Unlock()
	require.Len(t, writer.records, 2)
	assert.Equal(t, models.AxisRead, writer.records[0].Axis)
	assert.Equal(t, models.ActionIncrease, writer.records[0].Action)
	assert.True(t, writer.records[0].Applied)
	assert.Equal(t, models.ActionUndefined, writer.records[1].Action)
}

func TestEventLogger_StopDrainsBufferedEvents(t *testing.T) {
	ch := make(chan *models.Event, 4)
	writer := &recordingWriter{called: make(chan struct{}, 1)}
	eventLogger := NewEventLogger(writer, ch)

	result := models.NewRunResult("table/orders", time.Now())
	ch <- models.NewEvent(models.EventTypeRunCompleted, "table/orders", "Run completed").WithData(result)

	// stopped before the loop ever ran
	eventLogger.cancel()
	eventLogger.Start()
	<-eventLogger.done

	writer.mu.Lock()
	defer writer.mu.Unlock()
	assert.Len(t, writer.records, 2)
}

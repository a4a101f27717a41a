package events

import (
	"sync"
	"sync/atomic"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

type subscription struct {
	ch    chan *models.Event
	types map[models.EventType]struct{} // nil means every type
}

func (s *subscription) wants(eventType models.EventType) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// EventBus fans run events out to buffered subscriber channels. Slow
// subscribers lose events rather than block a run.
type EventBus struct {
	mu         sync.RWMutex
	subs       []*subscription
	bufferSize int
	closed     bool
	dropped    atomic.Uint64
}

func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventBus{bufferSize: bufferSize}
}

// Subscribe returns a channel receiving only the given event types
func (b *EventBus) Subscribe(eventTypes ...models.EventType) <-chan *models.Event {
	types := make(map[models.EventType]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = struct{}{}
	}
	return b.add(types)
}

// SubscribeAll returns a channel receiving every event
func (b *EventBus) SubscribeAll() <-chan *models.Event {
	return b.add(nil)
}

func (b *EventBus) add(types map[models.EventType]struct{}) <-chan *models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *models.Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, &subscription{ch: ch, types: types})
	return ch
}

// Unsubscribe detaches and closes a channel returned by Subscribe or SubscribeAll
func (b *EventBus) Unsubscribe(ch <-chan *models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.ch == ch {
			close(sub.ch)
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *EventBus) Publish(event *models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if !sub.wants(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
			logger.Warnf("Event channel full, dropping event: %s", event.Type)
		}
	}
}

// Dropped reports how many deliveries were skipped because a subscriber was full
func (b *EventBus) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
}

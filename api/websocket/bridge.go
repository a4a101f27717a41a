package websocket

import (
	"encoding/json"
	"sync"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

// EventBridge forwards run events from the event bus to websocket clients
type EventBridge struct {
	hub        *Hub
	eventsChan <-chan *models.Event
	done       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewEventBridge(hub *Hub, eventsChan <-chan *models.Event) *EventBridge {
	return &EventBridge{
		hub:        hub,
		eventsChan: eventsChan,
		done:       make(chan struct{}),
	}
}

func (b *EventBridge) Start() {
	b.wg.Add(1)
	go b.run()
	logger.Info("WebSocket event bridge started")
}

func (b *EventBridge) Stop() {
	b.stopOnce.Do(func() { close(b.done) })
	b.wg.Wait()
	logger.Info("WebSocket event bridge stopped")
}

func (b *EventBridge) run() {
	defer b.wg.Done()

	for {
		select {
		case <-b.done:
			return
		case event, ok := <-b.eventsChan:
			if !ok {
				logger.Info("Event channel closed, stopping bridge")
				return
			}
			b.forwardEvent(event)
		}
	}
}

func (b *EventBridge) forwardEvent(event *models.Event) {
	msg, ok := NewOutgoingMessage(event)
	if !ok {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		logger.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	b.hub.BroadcastToResource(event.ResourceID, data)
}

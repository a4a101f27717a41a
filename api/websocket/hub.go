package websocket

import (
	"sync"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/config"
)

const defaultBroadcastBuffer = 256

type resourceMessage struct {
	resourceID string
	data       []byte
}

// Hub tracks connected clients and fans messages out to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan resourceMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	settings   *WebSocketSettings
}

func NewHub(cfg *config.WebSocketConfig) *Hub {
	broadcastBuffer := defaultBroadcastBuffer
	if cfg != nil && cfg.BroadcastBuffer > 0 {
		broadcastBuffer = cfg.BroadcastBuffer
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan resourceMessage, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		settings:   NewWebSocketSettings(cfg),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Infof("WebSocket client connected (total: %d)", h.ClientCount())

		case client := <-h.unregister:
			h.remove(client)
			logger.Infof("WebSocket client disconnected (total: %d)", h.ClientCount())

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Stop ends Run and closes every client's send channel
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) deliver(msg resourceMessage) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.clients {
		if !client.SubscribedTo(msg.resourceID) {
			continue
		}
		if !client.trySend(msg.data) {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		logger.Warn("WebSocket client too slow, disconnecting")
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.closeSend()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		client.closeSend()
	}
}

// BroadcastToResource queues data for every client watching resourceID
func (h *Hub) BroadcastToResource(resourceID string, data []byte) {
	select {
	case h.broadcast <- resourceMessage{resourceID: resourceID, data: data}:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.closeSend()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

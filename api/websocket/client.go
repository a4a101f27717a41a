package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
)

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu         sync.RWMutex
	resourceID string
	closed     bool
}

type IncomingMessage struct {
	Type       string `json:"type"`
	ResourceID string `json:"resource_id,omitempty"`
}

// NewClient watches resourceID; an empty id watches every resource
func NewClient(hub *Hub, conn *websocket.Conn, resourceID string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, hub.settings.ClientBuffer),
		resourceID: resourceID,
	}
}

func (c *Client) SubscribedTo(resourceID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resourceID == "" || c.resourceID == resourceID
}

// trySend queues data without blocking. It reports false when the buffer is
// full or the client is already closed.
func (c *Client) trySend(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	settings := c.hub.settings
	c.conn.SetReadLimit(settings.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(settings.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(settings.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.handleMessage(&msg)
		}
	}
}

func (c *Client) WritePump() {
	settings := c.hub.settings
	ticker := time.NewTicker(settings.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(settings.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(settings.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *IncomingMessage) {
	switch msg.Type {
	case "subscribe":
		c.mu.Lock()
		c.resourceID = msg.ResourceID
		c.mu.Unlock()
		logger.Debugf("Client subscribed to resource: %q", msg.ResourceID)
		c.sendConfirmation("subscribed", msg.ResourceID)

	case "unsubscribe":
		c.mu.Lock()
		old := c.resourceID
		c.resourceID = ""
		c.mu.Unlock()
		c.sendConfirmation("unsubscribed", old)
	}
}

func (c *Client) sendConfirmation(action, resourceID string) {
	data, err := json.Marshal(SubscriptionUpdate{
		Type:       MessageTypeSubscription,
		Action:     action,
		ResourceID: resourceID,
		Timestamp:  time.Now(),
	})
	if err != nil {
		logger.Errorf("Failed to marshal confirmation: %v", err)
		return
	}

	if !c.trySend(data) {
		logger.Warn("Client send channel full, dropping confirmation")
	}
}

func ServeWebSocket(hub *Hub) gin.HandlerFunc {
	upgrader := hub.settings.upgrader()

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(hub, conn, c.Query("resource_id"))
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sellotec/backend/internal/cache"
	"github.com/sellotec/backend/internal/gate"
	"github.com/sellotec/backend/internal/models"
	"github.com/sellotec/backend/internal/repository"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 10240 // 10KB

	// Messages allowed per second per connection, with matching burst
	sendRate  = 5
	sendBurst = 10
)

// Client represents a WebSocket client
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uuid.UUID
	email  string

	gate    *gate.Gate
	msgRepo *repository.MessageRepository
	redis   *cache.RedisClient
	logger  *zap.Logger
}

// NewClient creates a new WebSocket client
func NewClient(
	hub *Hub,
	conn *websocket.Conn,
	userID uuid.UUID,
	email string,
	g *gate.Gate,
	msgRepo *repository.MessageRepository,
	redis *cache.RedisClient,
	logger *zap.Logger,
) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		userID:  userID,
		email:   email,
		gate:    g,
		msgRepo: msgRepo,
		redis:   redis,
		logger:  logger,
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		// Each pong doubles as a presence heartbeat; the presence key
		// expires once these stop arriving.
		if err := c.redis.SetUserOnline(c.userID); err != nil {
			c.logger.Warn("presence heartbeat failed", zap.Error(err))
		}
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			break
		}

		allowed, err := c.redis.AllowAction(c.userID, "ws-send", sendRate, sendBurst)
		if err != nil {
			// Limiter unavailable; let the message through rather than
			// stalling every client.
			c.logger.Warn("rate limiter unavailable", zap.Error(err))
			allowed = true
		}
		if !allowed {
			c.sendError("rate_limited")
			continue
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage handles incoming WebSocket messages
func (c *Client) handleMessage(data []byte) {
	var wsMsg models.WSMessage
	if err := json.Unmarshal(data, &wsMsg); err != nil {
		c.sendError("Invalid message format")
		return
	}

	switch wsMsg.Event {
	case models.EventMessageSend:
		c.handleMessageSend(wsMsg.Payload)

	case models.EventMessageRead:
		c.handleMessageRead(wsMsg.Payload)

	default:
		c.sendError("Unknown event type")
	}
}

// handleMessageSend runs an outgoing message through the gate and reports
// the verdict back to this client. Accepted messages arrive via the
// pub/sub fanout like everyone else's.
func (c *Client) handleMessageSend(payload interface{}) {
	data, _ := json.Marshal(payload)
	var req models.WSMessageSendPayload
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("Invalid message payload")
		return
	}

	result, err := c.gate.Send(context.Background(), c.userID, req.ReceiverID, req.Content)
	if err != nil {
		c.sendError("Failed to send message")
		return
	}

	if result.Outcome == gate.Accepted {
		return
	}

	rejection := models.SendRejection{
		ReceiverID:  req.ReceiverID,
		Outcome:     string(result.Outcome),
		MatchedWord: result.MatchedWord,
	}
	c.sendEvent(models.WSMessage{Event: models.EventSendRejected, Payload: rejection})
}

// handleMessageRead marks the open conversation as read
func (c *Client) handleMessageRead(payload interface{}) {
	data, _ := json.Marshal(payload)
	var req models.WSMessageReadPayload
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("Invalid read payload")
		return
	}

	if err := c.msgRepo.MarkConversationRead(req.PeerID, c.userID); err != nil {
		c.sendError("Failed to mark conversation as read")
		return
	}

	if err := c.redis.PublishMessage(models.WSMessage{
		Event: models.EventMessageRead,
		Payload: models.Message{
			SenderID:   req.PeerID,
			ReceiverID: c.userID,
			Read:       true,
		},
	}); err != nil {
		c.logger.Warn("failed to publish read receipt", zap.Error(err))
	}
}

func (c *Client) sendEvent(msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	select {
	case c.send <- data:
	default:
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendEvent(models.WSMessage{
		Event: models.EventError,
		Payload: models.WSErrorPayload{
			Message: message,
		},
	})
}

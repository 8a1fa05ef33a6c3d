package websocket

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sellotec/backend/internal/cache"
	"github.com/sellotec/backend/internal/models"
	"go.uber.org/zap"
)

// Hub maintains the set of active clients and routes realtime events to
// them. Registering a connection is what makes a user "present"; the
// connection dropping (or an explicit unsubscribe) removes them.
type Hub struct {
	// Registered clients
	clients map[uuid.UUID]*Client

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Redis client for pub/sub
	redis *cache.RedisClient

	logger *zap.Logger

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new Hub
func NewHub(redis *cache.RedisClient, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		redis:      redis,
		logger:     logger,
	}
}

// Run starts the hub
func (h *Hub) Run() {
	go h.subscribeToRedis()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.userID] = client
			h.mu.Unlock()

			if err := h.redis.SetUserOnline(client.userID); err != nil {
				h.logger.Warn("failed to set user online", zap.Error(err))
			}
			h.publishPresence(client.userID, "online")

			h.logger.Info("client registered", zap.String("user_id", client.userID.String()))

		case client := <-h.unregister:
			h.mu.Lock()
			current, ok := h.clients[client.userID]
			active := ok && current == client
			if active {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.mu.Unlock()

			// A stale connection unregistering after a quick reconnect
			// must not mark the freshly connected user offline.
			if !active {
				continue
			}

			if err := h.redis.SetUserOffline(client.userID); err != nil {
				h.logger.Warn("failed to set user offline", zap.Error(err))
			}
			h.publishPresence(client.userID, "offline")

			h.logger.Info("client unregistered", zap.String("user_id", client.userID.String()))
		}
	}
}

func (h *Hub) publishPresence(userID uuid.UUID, status string) {
	if err := h.redis.PublishPresence(models.UserPresence{
		UserID: userID,
		Status: status,
	}); err != nil {
		h.logger.Warn("failed to publish presence", zap.Error(err))
	}
}

// subscribeToRedis subscribes to the Redis pub/sub channels and routes
// each event to the clients it concerns.
func (h *Hub) subscribeToRedis() {
	msgPubSub := h.redis.SubscribeToMessages()
	defer msgPubSub.Close()

	presencePubSub := h.redis.SubscribeToPresence()
	defer presencePubSub.Close()

	blockPubSub := h.redis.SubscribeToBlocks()
	defer blockPubSub.Close()

	msgChan := msgPubSub.Channel()
	presenceChan := presencePubSub.Channel()
	blockChan := blockPubSub.Channel()

	for {
		select {
		case msg := <-msgChan:
			h.routeMessage([]byte(msg.Payload))

		case presence := <-presenceChan:
			// Presence updates go to everyone for the sidebar dots.
			h.broadcastRaw([]byte(presence.Payload), models.EventPresenceUpdate)

		case block := <-blockChan:
			h.routeBlock([]byte(block.Payload))
		}
	}
}

// routeMessage delivers a message event to its two participants only.
func (h *Hub) routeMessage(payload []byte) {
	var ws struct {
		Event   string         `json:"event"`
		Payload models.Message `json:"payload"`
	}
	if err := json.Unmarshal(payload, &ws); err != nil {
		h.logger.Warn("dropping malformed message event", zap.Error(err))
		return
	}

	h.sendRaw(ws.Payload.SenderID, payload)
	h.sendRaw(ws.Payload.ReceiverID, payload)
}

// routeBlock delivers a block-status change to the affected user.
func (h *Hub) routeBlock(payload []byte) {
	var ws struct {
		Event   string             `json:"event"`
		Payload models.BlockUpdate `json:"payload"`
	}
	if err := json.Unmarshal(payload, &ws); err != nil {
		h.logger.Warn("dropping malformed block event", zap.Error(err))
		return
	}

	h.sendRaw(ws.Payload.UserID, payload)
}

func (h *Hub) broadcastRaw(payload []byte, event string) {
	wrapped, err := json.Marshal(models.WSMessage{Event: event, Payload: json.RawMessage(payload)})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- wrapped:
		default:
			// Client's send channel is full, skip
		}
	}
}

func (h *Hub) sendRaw(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	select {
	case client.send <- payload:
	default:
		// Client's send channel is full, skip
	}
}

// SendToUser sends an event to a specific user if they are connected here.
func (h *Hub) SendToUser(userID uuid.UUID, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.sendRaw(userID, data)
	return nil
}

// GetOnlineUsers returns the list of user IDs connected to this node.
func (h *Hub) GetOnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userIDs := make([]uuid.UUID, 0, len(h.clients))
	for userID := range h.clients {
		userIDs = append(userIDs, userID)
	}

	return userIDs
}

// IsUserOnline checks if a user is connected to this node.
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.clients[userID]
	return ok
}

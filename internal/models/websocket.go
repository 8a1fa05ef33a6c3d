package models

import (
	"time"

	"github.com/google/uuid"
)

// WebSocket event types
const (
	EventMessageNew     = "message.new"
	EventMessageSend    = "message.send"
	EventMessageRead    = "message.read"
	EventPresenceUpdate = "presence.update"
	EventBlockUpdate    = "block.update"
	EventSendRejected   = "message.rejected"
	EventError          = "error"
)

type WSMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type WSMessageSendPayload struct {
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
}

type WSMessageReadPayload struct {
	PeerID uuid.UUID `json:"peer_id"`
}

// BlockUpdate is pushed to a user whenever their blocked flag changes, so an
// open client can redirect to the blocked notice (or away from it) at once.
type BlockUpdate struct {
	UserID    uuid.UUID  `json:"user_id"`
	Blocked   bool       `json:"blocked"`
	Reason    *string    `json:"reason,omitempty"`
	ChangedAt time.Time  `json:"changed_at"`
	PairWith  *uuid.UUID `json:"pair_with,omitempty"`
}

// SendRejection mirrors a gate rejection over the realtime feed.
type SendRejection struct {
	ReceiverID  uuid.UUID `json:"receiver_id"`
	Outcome     string    `json:"outcome"`
	MatchedWord string    `json:"matched_word,omitempty"`
}

type WSErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

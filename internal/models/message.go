package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two users. Immutable once created,
// except the read flag and a bulk delete by moderation.
type Message struct {
	ID         uuid.UUID `json:"id" db:"id"`
	SenderID   uuid.UUID `json:"sender_id" db:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id" db:"receiver_id"`
	Content    string    `json:"content" db:"content"`
	Read       bool      `json:"read" db:"read"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	Sender     *User     `json:"sender,omitempty"`
}

type SendMessageRequest struct {
	ReceiverID uuid.UUID `json:"receiver_id" binding:"required"`
	Content    string    `json:"content" binding:"required,max=10000"`
}

type GetConversationRequest struct {
	PeerID uuid.UUID `form:"peer_id" binding:"required"`
	Limit  int       `form:"limit"`
	Offset int       `form:"offset"`
}

// ConversationStatus backs the conversation header: the standing pair-block
// banner, the peer's presence dot and the unread badge.
type ConversationStatus struct {
	PeerID      uuid.UUID `json:"peer_id"`
	PairBlocked bool      `json:"pair_blocked"`
	PeerOnline  bool      `json:"peer_online"`
	Unread      int       `json:"unread"`
}

// UnreadCount is one sidebar entry: how many unread messages a peer has sent.
type UnreadCount struct {
	SenderID uuid.UUID `json:"sender_id" db:"sender_id"`
	Count    int       `json:"count" db:"count"`
}

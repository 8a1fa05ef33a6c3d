package models

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies why a message was flagged.
type Category string

const (
	CategorySexual         Category = "sexual"
	CategoryBullying       Category = "bullying"
	CategoryDiscriminacion Category = "discriminacion"
)

// FlaggedMessage is the audit record written the instant the keyword filter
// matches. Content is duplicated from the message so the record survives a
// conversation delete. Sender, receiver, content and matched words never
// change after insert; only the review metadata does.
type FlaggedMessage struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	MessageID    *uuid.UUID `json:"message_id,omitempty" db:"message_id"`
	SenderID     uuid.UUID  `json:"sender_id" db:"sender_id"`
	ReceiverID   uuid.UUID  `json:"receiver_id" db:"receiver_id"`
	Content      string     `json:"content" db:"content"`
	MatchedWords []string   `json:"matched_words" db:"matched_words"`
	Category     Category   `json:"category,omitempty" db:"category"`
	Reviewed     bool       `json:"reviewed" db:"reviewed"`
	ReviewedBy   *uuid.UUID `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	Sender       *User      `json:"sender,omitempty"`
	Receiver     *User      `json:"receiver,omitempty"`
}

// BlockedPair forbids a specific two-user conversation without touching
// either account's platform access. Stored once per unordered pair.
type BlockedPair struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserA     uuid.UUID `json:"user_a" db:"user_a"`
	UserB     uuid.UUID `json:"user_b" db:"user_b"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NormalizePair sorts the two ids lexicographically so (a,b) and (b,a)
// resolve to the same row. Every blocked_pairs lookup and write must go
// through this helper.
func NormalizePair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

// ModerationSummary feeds the admin dashboard counters.
type ModerationSummary struct {
	Pending        int `json:"pending"`
	Sexual         int `json:"sexual"`
	Bullying       int `json:"bullying"`
	Discriminacion int `json:"discriminacion"`
}

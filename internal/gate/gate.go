package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sellotec/backend/internal/filter"
	"github.com/sellotec/backend/internal/models"
	"go.uber.org/zap"
)

// Outcome is the terminal state of one send attempt.
type Outcome string

const (
	Accepted            Outcome = "accepted"
	RejectedBlocked     Outcome = "rejected_blocked"
	RejectedPairBlocked Outcome = "rejected_pair_blocked"
	RejectedAndFlagged  Outcome = "rejected_and_flagged"
)

var (
	ErrSelfMessage = errors.New("cannot message yourself")
	ErrEmptyBody   = errors.New("message content is empty")
)

// Result is what one send attempt produced. Message and Flag are set only
// for the outcomes that persisted them.
type Result struct {
	Outcome     Outcome
	Message     *models.Message
	Flag        *models.FlaggedMessage
	MatchedWord string
}

// UserStore re-fetches the sender's current account state at send time.
type UserStore interface {
	GetByID(id uuid.UUID) (*models.User, error)
}

// PairStore answers whether a specific two-user conversation is blocked.
type PairStore interface {
	IsBlocked(a, b uuid.UUID) (bool, error)
}

// MessageStore persists an accepted message.
type MessageStore interface {
	Create(message *models.Message) error
}

// ViolationStore applies the flagged path as a single transaction.
type ViolationStore interface {
	Record(ctx context.Context, message *models.Message, flag *models.FlaggedMessage, blockReason string) error
}

// Publisher pushes realtime events after the store has committed. Delivery
// is best effort; a publish failure never fails the send.
type Publisher interface {
	PublishMessage(message interface{}) error
	PublishBlock(update models.BlockUpdate) error
}

// Gate decides, per outgoing message, between accept, reject and
// flag-and-block. It is the only writer of messages and flagged records.
type Gate struct {
	users      UserStore
	pairs      PairStore
	messages   MessageStore
	violations ViolationStore
	publisher  Publisher
	logger     *zap.Logger
}

func NewGate(
	users UserStore,
	pairs PairStore,
	messages MessageStore,
	violations ViolationStore,
	publisher Publisher,
	logger *zap.Logger,
) *Gate {
	return &Gate{
		users:      users,
		pairs:      pairs,
		messages:   messages,
		violations: violations,
		publisher:  publisher,
		logger:     logger,
	}
}

// Send runs the full gate for one message: sender block check, pair block
// check, keyword filter, then persist. The sender's blocked flag is
// re-fetched here rather than trusted from the session, because an admin or
// a concurrent flagged send may have blocked the account moments earlier.
func (g *Gate) Send(ctx context.Context, senderID, receiverID uuid.UUID, content string) (*Result, error) {
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}
	if content == "" {
		return nil, ErrEmptyBody
	}

	sender, err := g.users.GetByID(senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check sender: %w", err)
	}
	if sender.Blocked {
		return &Result{Outcome: RejectedBlocked}, nil
	}

	pairBlocked, err := g.pairs.IsBlocked(senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pair block: %w", err)
	}
	if pairBlocked {
		return &Result{Outcome: RejectedPairBlocked}, nil
	}

	matches := filter.Detect(content)
	if len(matches) == 0 {
		return g.accept(senderID, receiverID, content)
	}

	return g.flag(ctx, senderID, receiverID, content, matches)
}

func (g *Gate) accept(senderID, receiverID uuid.UUID, content string) (*Result, error) {
	message := &models.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now(),
	}

	if err := g.messages.Create(message); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	if err := g.publisher.PublishMessage(models.WSMessage{
		Event:   models.EventMessageNew,
		Payload: message,
	}); err != nil {
		g.logger.Warn("failed to publish message event", zap.Error(err))
	}

	return &Result{Outcome: Accepted, Message: message}, nil
}

// flag persists the offending message anyway (it becomes evidence), writes
// the flagged record, blocks the sender and the pair, all in one
// transaction, then notifies the realtime feed.
func (g *Gate) flag(ctx context.Context, senderID, receiverID uuid.UUID, content string, matches []filter.Match) (*Result, error) {
	now := time.Now()
	message := &models.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  now,
	}

	flagged := &models.FlaggedMessage{
		ID:           uuid.New(),
		MessageID:    &message.ID,
		SenderID:     senderID,
		ReceiverID:   receiverID,
		Content:      content,
		MatchedWords: filter.Terms(matches),
		Category:     filter.Classify(matches),
		CreatedAt:    now,
	}

	first := matches[0].Term
	reason := fmt.Sprintf("Contenido inapropiado detectado en un mensaje: %q", first)

	if err := g.violations.Record(ctx, message, flagged, reason); err != nil {
		return nil, fmt.Errorf("failed to record violation: %w", err)
	}

	g.logger.Warn("message flagged, sender blocked",
		zap.String("sender_id", senderID.String()),
		zap.String("category", string(flagged.Category)),
		zap.Strings("matched_words", flagged.MatchedWords),
	)

	if err := g.publisher.PublishBlock(models.BlockUpdate{
		UserID:    senderID,
		Blocked:   true,
		Reason:    &reason,
		ChangedAt: now,
		PairWith:  &receiverID,
	}); err != nil {
		g.logger.Warn("failed to publish block event", zap.Error(err))
	}

	return &Result{
		Outcome:     RejectedAndFlagged,
		Message:     message,
		Flag:        flagged,
		MatchedWord: first,
	}, nil
}

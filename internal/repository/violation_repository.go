package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sellotec/backend/internal/database"
	"github.com/sellotec/backend/internal/models"
)

// ViolationRepository applies a keyword violation as one transaction:
// persist the offending message (it stays as evidence), write the flagged
// record, block the sender's account and block the pair. Either everything
// commits or nothing does, so a flag can never exist without its block.
type ViolationRepository struct {
	db *database.DB
}

func NewViolationRepository(db *database.DB) *ViolationRepository {
	return &ViolationRepository{db: db}
}

// Record persists the message, the flagged record, the sender block and the
// pair block atomically. On success both message and flag carry their final
// ids.
func (r *ViolationRepository) Record(ctx context.Context, message *models.Message, flag *models.FlaggedMessage, blockReason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin violation transaction: %w", err)
	}
	defer tx.Rollback()

	msgQuery := `
		INSERT INTO messages (id, sender_id, receiver_id, content, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.ExecContext(ctx, msgQuery,
		message.ID, message.SenderID, message.ReceiverID,
		message.Content, message.Read, message.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to persist flagged message content: %w", err)
	}

	flagQuery := `
		INSERT INTO flagged_messages (id, message_id, sender_id, receiver_id, content, matched_words, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
	`
	if _, err := tx.ExecContext(ctx, flagQuery,
		flag.ID, flag.MessageID, flag.SenderID, flag.ReceiverID,
		flag.Content, pq.Array(flag.MatchedWords), string(flag.Category), flag.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to write flagged record: %w", err)
	}

	blockQuery := `
		UPDATE users
		SET blocked = true, blocked_reason = $1, blocked_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`
	if _, err := tx.ExecContext(ctx, blockQuery, blockReason, message.SenderID); err != nil {
		return fmt.Errorf("failed to block sender: %w", err)
	}

	userA, userB := models.NormalizePair(message.SenderID, message.ReceiverID)
	pairQuery := `
		INSERT INTO blocked_pairs (id, user_a, user_b, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_a, user_b) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, pairQuery, uuid.New(), userA, userB); err != nil {
		return fmt.Errorf("failed to block pair: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit violation: %w", err)
	}

	return nil
}

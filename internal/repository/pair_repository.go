package repository

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sellotec/backend/internal/database"
	"github.com/sellotec/backend/internal/models"
)

// PairRepository stores conversation-level blocks between two specific
// users. Every method normalizes the pair first, so callers may pass the
// ids in either order.
type PairRepository struct {
	db *database.DB
}

func NewPairRepository(db *database.DB) *PairRepository {
	return &PairRepository{db: db}
}

// Block records that the two users may not message each other. Idempotent.
func (r *PairRepository) Block(a, b uuid.UUID) error {
	userA, userB := models.NormalizePair(a, b)

	query := `
		INSERT INTO blocked_pairs (id, user_a, user_b, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_a, user_b) DO NOTHING
	`

	if _, err := r.db.Exec(query, uuid.New(), userA, userB); err != nil {
		return fmt.Errorf("failed to block pair: %w", err)
	}

	return nil
}

// Unblock removes the pair block, restoring the conversation. Removing a
// pair that was never blocked is not an error.
func (r *PairRepository) Unblock(a, b uuid.UUID) error {
	userA, userB := models.NormalizePair(a, b)

	query := `DELETE FROM blocked_pairs WHERE user_a = $1 AND user_b = $2`

	if _, err := r.db.Exec(query, userA, userB); err != nil {
		return fmt.Errorf("failed to unblock pair: %w", err)
	}

	return nil
}

// IsBlocked reports whether the two users' conversation is blocked.
func (r *PairRepository) IsBlocked(a, b uuid.UUID) (bool, error) {
	userA, userB := models.NormalizePair(a, b)

	query := `SELECT EXISTS(SELECT 1 FROM blocked_pairs WHERE user_a = $1 AND user_b = $2)`

	var blocked bool
	if err := r.db.QueryRow(query, userA, userB).Scan(&blocked); err != nil {
		return false, fmt.Errorf("failed to check blocked pair: %w", err)
	}

	return blocked, nil
}

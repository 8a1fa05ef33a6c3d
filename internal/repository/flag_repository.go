package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sellotec/backend/internal/database"
	"github.com/sellotec/backend/internal/models"
)

// FlagRepository persists flagged-message records. The factual fields of a
// record (sender, receiver, content, matched words) are written once by the
// gate and never updated; only the review metadata changes afterwards.
type FlagRepository struct {
	db *database.DB
}

func NewFlagRepository(db *database.DB) *FlagRepository {
	return &FlagRepository{db: db}
}

// GetByID retrieves a flagged message record
func (r *FlagRepository) GetByID(id uuid.UUID) (*models.FlaggedMessage, error) {
	query := `
		SELECT id, message_id, sender_id, receiver_id, content, matched_words, category,
		       reviewed, reviewed_by, reviewed_at, created_at
		FROM flagged_messages
		WHERE id = $1
	`

	flag := &models.FlaggedMessage{}
	var category sql.NullString
	err := r.db.QueryRow(query, id).Scan(
		&flag.ID,
		&flag.MessageID,
		&flag.SenderID,
		&flag.ReceiverID,
		&flag.Content,
		pq.Array(&flag.MatchedWords),
		&category,
		&flag.Reviewed,
		&flag.ReviewedBy,
		&flag.ReviewedAt,
		&flag.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("flagged message not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flagged message: %w", err)
	}
	flag.Category = models.Category(category.String)

	return flag, nil
}

// List retrieves flagged messages filtered by review state, newest first,
// with sender and receiver joined for the dashboard.
func (r *FlagRepository) List(reviewed bool) ([]models.FlaggedMessage, error) {
	query := `
		SELECT f.id, f.message_id, f.sender_id, f.receiver_id, f.content, f.matched_words,
		       f.category, f.reviewed, f.reviewed_by, f.reviewed_at, f.created_at,
		       s.full_name, s.email, s.role,
		       t.full_name, t.email, t.role
		FROM flagged_messages f
		INNER JOIN users s ON f.sender_id = s.id
		INNER JOIN users t ON f.receiver_id = t.id
		WHERE f.reviewed = $1
		ORDER BY f.created_at DESC
	`

	rows, err := r.db.Query(query, reviewed)
	if err != nil {
		return nil, fmt.Errorf("failed to list flagged messages: %w", err)
	}
	defer rows.Close()

	flags := []models.FlaggedMessage{}
	for rows.Next() {
		var flag models.FlaggedMessage
		var category sql.NullString
		var sender, receiver models.User

		err := rows.Scan(
			&flag.ID,
			&flag.MessageID,
			&flag.SenderID,
			&flag.ReceiverID,
			&flag.Content,
			pq.Array(&flag.MatchedWords),
			&category,
			&flag.Reviewed,
			&flag.ReviewedBy,
			&flag.ReviewedAt,
			&flag.CreatedAt,
			&sender.FullName,
			&sender.Email,
			&sender.Role,
			&receiver.FullName,
			&receiver.Email,
			&receiver.Role,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flagged message: %w", err)
		}

		flag.Category = models.Category(category.String)
		sender.ID = flag.SenderID
		receiver.ID = flag.ReceiverID
		flag.Sender = &sender
		flag.Receiver = &receiver
		flags = append(flags, flag)
	}

	return flags, nil
}

// MarkReviewed records who reviewed the flag and when.
func (r *FlagRepository) MarkReviewed(id, reviewerID uuid.UUID) error {
	query := `
		UPDATE flagged_messages
		SET reviewed = true, reviewed_by = $1, reviewed_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.Exec(query, reviewerID, id)
	if err != nil {
		return fmt.Errorf("failed to mark flag reviewed: %w", err)
	}
	return requireRow(result, "flagged message not found")
}

// Summary counts pending flags and flags per category for the dashboard.
func (r *FlagRepository) Summary() (*models.ModerationSummary, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE NOT reviewed),
			COUNT(*) FILTER (WHERE category = 'sexual'),
			COUNT(*) FILTER (WHERE category = 'bullying'),
			COUNT(*) FILTER (WHERE category = 'discriminacion')
		FROM flagged_messages
	`

	summary := &models.ModerationSummary{}
	err := r.db.QueryRow(query).Scan(
		&summary.Pending,
		&summary.Sexual,
		&summary.Bullying,
		&summary.Discriminacion,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get moderation summary: %w", err)
	}

	return summary, nil
}

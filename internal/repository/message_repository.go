package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sellotec/backend/internal/database"
	"github.com/sellotec/backend/internal/models"
)

type MessageRepository struct {
	db *database.DB
}

func NewMessageRepository(db *database.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create creates a new message
func (r *MessageRepository) Create(message *models.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, content, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		query,
		message.ID,
		message.SenderID,
		message.ReceiverID,
		message.Content,
		message.Read,
		message.CreatedAt,
	).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(id uuid.UUID) (*models.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, read, created_at
		FROM messages
		WHERE id = $1
	`

	message := &models.Message{}
	err := r.db.QueryRow(query, id).Scan(
		&message.ID,
		&message.SenderID,
		&message.ReceiverID,
		&message.Content,
		&message.Read,
		&message.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("message not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return message, nil
}

// GetConversation retrieves the messages between two users, either
// ordering of sender/receiver, oldest first.
func (r *MessageRepository) GetConversation(a, b uuid.UUID, limit, offset int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	query := `
		SELECT m.id, m.sender_id, m.receiver_id, m.content, m.read, m.created_at,
		       u.id, u.email, u.full_name, u.role, u.password_hash, u.blocked, u.blocked_reason, u.blocked_at, u.created_at, u.updated_at
		FROM messages m
		INNER JOIN users u ON m.sender_id = u.id
		WHERE (m.sender_id = $1 AND m.receiver_id = $2)
		   OR (m.sender_id = $2 AND m.receiver_id = $1)
		ORDER BY m.created_at ASC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(query, a, b, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		var sender models.User

		err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.Content,
			&msg.Read,
			&msg.CreatedAt,
			&sender.ID,
			&sender.Email,
			&sender.FullName,
			&sender.Role,
			&sender.PasswordHash,
			&sender.Blocked,
			&sender.BlockedReason,
			&sender.BlockedAt,
			&sender.CreatedAt,
			&sender.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.Sender = &sender
		messages = append(messages, msg)
	}

	return messages, nil
}

// MarkConversationRead marks every unread message from sender to reader as
// read, the way the client does when a conversation is opened.
func (r *MessageRepository) MarkConversationRead(senderID, readerID uuid.UUID) error {
	query := `
		UPDATE messages
		SET read = true
		WHERE sender_id = $1 AND receiver_id = $2 AND NOT read
	`

	if _, err := r.db.Exec(query, senderID, readerID); err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}

	return nil
}

// UnreadCounts returns, per peer, how many unread messages they have sent
// to the given user. Backs the sidebar badges.
func (r *MessageRepository) UnreadCounts(userID uuid.UUID) ([]models.UnreadCount, error) {
	query := `
		SELECT sender_id, COUNT(*)
		FROM messages
		WHERE receiver_id = $1 AND NOT read
		GROUP BY sender_id
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unread counts: %w", err)
	}
	defer rows.Close()

	counts := []models.UnreadCount{}
	for rows.Next() {
		var c models.UnreadCount
		if err := rows.Scan(&c.SenderID, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan unread count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, nil
}

// UnreadFrom counts the unread messages one specific peer has sent.
func (r *MessageRepository) UnreadFrom(senderID, readerID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE sender_id = $1 AND receiver_id = $2 AND NOT read
	`

	var count int
	if err := r.db.QueryRow(query, senderID, readerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}

	return count, nil
}

// DeleteConversation hard-deletes every message exchanged between the two
// users, both orderings. Moderation-only operation; returns the number of
// rows removed.
func (r *MessageRepository) DeleteConversation(a, b uuid.UUID) (int64, error) {
	query := `
		DELETE FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
	`

	result, err := r.db.Exec(query, a, b)
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

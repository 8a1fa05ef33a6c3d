package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sellotec/backend/internal/database"
	"github.com/sellotec/backend/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, full_name, role, password_hash, blocked, blocked_reason, blocked_at, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.Role,
		&user.PasswordHash,
		&user.Blocked,
		&user.BlockedReason,
		&user.BlockedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create creates a new user
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (id, email, full_name, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		user.ID,
		user.Email,
		user.FullName,
		user.Role,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(query, email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// List retrieves all users ordered by full name, for the user-management
// and messages sidebars.
func (r *UserRepository) List() ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY full_name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	return users, nil
}

// Block sets the blocked flag, reason and timestamp on a user. No other
// side effects; notices are the caller's job.
func (r *UserRepository) Block(id uuid.UUID, reason string) error {
	query := `
		UPDATE users
		SET blocked = true, blocked_reason = $1, blocked_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.Exec(query, reason, id)
	if err != nil {
		return fmt.Errorf("failed to block user: %w", err)
	}
	return requireRow(result, "user not found")
}

// Unblock clears all three blocked fields on a user.
func (r *UserRepository) Unblock(id uuid.UUID) error {
	query := `
		UPDATE users
		SET blocked = false, blocked_reason = NULL, blocked_at = NULL, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to unblock user: %w", err)
	}
	return requireRow(result, "user not found")
}

// UnblockMany clears the blocked fields on several users at once, the way
// moderation actions release both parties of a flagged conversation.
func (r *UserRepository) UnblockMany(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}

	query := `
		UPDATE users
		SET blocked = false, blocked_reason = NULL, blocked_at = NULL, updated_at = NOW()
		WHERE id = ANY($1)
	`

	if _, err := r.db.Exec(query, pq.Array(idStrings)); err != nil {
		return fmt.Errorf("failed to unblock users: %w", err)
	}

	return nil
}

func requireRow(result sql.Result, missing string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.New(missing)
	}
	return nil
}

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the portal-wide role assigned to a user at registration.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinador Role = "coordinador"
	RoleDocente     Role = "docente"
	RoleEstudiante  Role = "estudiante"
)

// ValidRole reports whether r is one of the known portal roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleCoordinador, RoleDocente, RoleEstudiante:
		return true
	}
	return false
}

type User struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	FullName      string     `json:"full_name" db:"full_name"`
	Role          Role       `json:"role" db:"role"`
	PasswordHash  string     `json:"-" db:"password_hash"`
	Blocked       bool       `json:"blocked" db:"blocked"`
	BlockedReason *string    `json:"blocked_reason,omitempty" db:"blocked_reason"`
	BlockedAt     *time.Time `json:"blocked_at,omitempty" db:"blocked_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Validate checks basic user fields
func (u *User) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("invalid email")
	}
	if u.FullName == "" {
		return fmt.Errorf("full name is required")
	}
	if len(u.FullName) < 2 || len(u.FullName) > 100 {
		return fmt.Errorf("full name length invalid")
	}
	if !ValidRole(u.Role) {
		return fmt.Errorf("unknown role: %s", u.Role)
	}
	return nil
}

type UserPresence struct {
	UserID   uuid.UUID `json:"user_id"`
	Status   string    `json:"status"` // online, offline
	LastSeen time.Time `json:"last_seen"`
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Role     Role   `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// BlockedNotice is the payload behind the blocked-account page: who was
// blocked, why, and since when.
type BlockedNotice struct {
	FullName      string     `json:"full_name"`
	BlockedReason string     `json:"blocked_reason"`
	BlockedAt     *time.Time `json:"blocked_at,omitempty"`
}

// DefaultBlockedReason is shown when a block carries no explicit reason.
const DefaultBlockedReason = "Uso inapropiado detectado"

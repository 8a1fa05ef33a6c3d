package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sellotec/backend/internal/auth"
	"github.com/sellotec/backend/internal/authz"
	"github.com/sellotec/backend/internal/models"
	"github.com/sellotec/backend/internal/repository"
)

type AuthHandler struct {
	userRepo   *repository.UserRepository
	jwtService *auth.JWTService
}

func NewAuthHandler(userRepo *repository.UserRepository, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// Self-registration is always estudiante; elevated roles are assigned
	// by an admin afterwards.
	role := req.Role
	if role == "" {
		role = models.RoleEstudiante
	}
	if role != models.RoleEstudiante {
		ErrorResponse(c, http.StatusForbidden, "Role cannot be chosen at registration")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         role,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := user.Validate(); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.userRepo.Create(user); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusCreated, models.LoginResponse{
		Token: token,
		User:  *user,
	})
}

// Login handles user login. Blocked users still get a session: they need
// one to reach the blocked notice, they just cannot send messages.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		Token: token,
		User:  *user,
	})
}

// GetMe returns the current user
func (h *AuthHandler) GetMe(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userRepo.GetByID(uid)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "User not found")
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetBlockedNotice returns the blocked-account notice for the current user,
// or 404 if the account is not blocked.
func (h *AuthHandler) GetBlockedNotice(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userRepo.GetByID(uid)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "User not found")
		return
	}

	if !user.Blocked {
		ErrorResponse(c, http.StatusNotFound, "Account is not blocked")
		return
	}

	reason := models.DefaultBlockedReason
	if user.BlockedReason != nil && *user.BlockedReason != "" {
		reason = *user.BlockedReason
	}

	c.JSON(http.StatusOK, models.BlockedNotice{
		FullName:      user.FullName,
		BlockedReason: reason,
		BlockedAt:     user.BlockedAt,
	})
}

// GetCapabilities returns the capability set of the caller's role so the
// client renders only the menus the server will actually allow.
func (h *AuthHandler) GetCapabilities(c *gin.Context) {
	role, exists := c.Get("role")
	if !exists {
		ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r, ok := role.(models.Role)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"role":         r,
		"capabilities": authz.For(r),
	})
}

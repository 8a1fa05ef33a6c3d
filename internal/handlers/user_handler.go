package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sellotec/backend/internal/cache"
	"github.com/sellotec/backend/internal/models"
	"github.com/sellotec/backend/internal/repository"
	"go.uber.org/zap"
)

// UserHandler covers the admin user-management surface: listing accounts
// and blocking or unblocking them directly, outside any flagged message.
type UserHandler struct {
	userRepo *repository.UserRepository
	redis    *cache.RedisClient
	logger   *zap.Logger
}

func NewUserHandler(userRepo *repository.UserRepository, redis *cache.RedisClient, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userRepo: userRepo,
		redis:    redis,
		logger:   logger,
	}
}

// ListUsers returns all accounts with their block state.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.List()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

type blockUserRequest struct {
	Reason string `json:"reason"`
}

// BlockUser blocks an account directly.
func (h *UserHandler) BlockUser(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	adminID, ok := currentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if adminID == targetID {
		ErrorResponse(c, http.StatusBadRequest, "Cannot block yourself")
		return
	}

	var req blockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = models.DefaultBlockedReason
	}

	if err := h.userRepo.Block(targetID, reason); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to block user")
		return
	}

	h.publishBlockChange(targetID, true, &reason)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UnblockUser lifts a direct block on an account.
func (h *UserHandler) UnblockUser(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := h.userRepo.Unblock(targetID); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to unblock user")
		return
	}

	h.publishBlockChange(targetID, false, nil)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *UserHandler) publishBlockChange(userID uuid.UUID, blocked bool, reason *string) {
	if h.redis == nil {
		return
	}
	if err := h.redis.PublishBlock(models.BlockUpdate{
		UserID:    userID,
		Blocked:   blocked,
		Reason:    reason,
		ChangedAt: time.Now(),
	}); err != nil {
		h.logger.Warn("failed to publish block update", zap.Error(err))
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sellotec/backend/internal/moderation"
	"github.com/sellotec/backend/internal/repository"
)

type ModerationHandler struct {
	flagRepo *repository.FlagRepository
	actions  *moderation.Actions
}

func NewModerationHandler(flagRepo *repository.FlagRepository, actions *moderation.Actions) *ModerationHandler {
	return &ModerationHandler{
		flagRepo: flagRepo,
		actions:  actions,
	}
}

// ListFlags returns flagged messages, pending by default or reviewed with
// ?reviewed=true.
func (h *ModerationHandler) ListFlags(c *gin.Context) {
	reviewed := c.Query("reviewed") == "true"

	flags, err := h.flagRepo.List(reviewed)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch flagged messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flags": flags,
		"count": len(flags),
	})
}

// GetFlag returns a single flagged message with its participants.
func (h *ModerationHandler) GetFlag(c *gin.Context) {
	flagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid flag id")
		return
	}

	flag, err := h.flagRepo.GetByID(flagID)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Flagged message not found")
		return
	}

	c.JSON(http.StatusOK, flag)
}

// GetSummary returns the dashboard counters.
func (h *ModerationHandler) GetSummary(c *gin.Context) {
	summary, err := h.flagRepo.Summary()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to build summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

type moderationActionRequest struct {
	Action string `json:"action" binding:"required"`
}

// ApplyAction dispatches one admin decision on a flagged message. Every
// action also marks the flag reviewed.
func (h *ModerationHandler) ApplyAction(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	flagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid flag id")
		return
	}

	var req moderationActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	switch req.Action {
	case "unblock_sender":
		err = h.actions.UnblockSender(flagID, adminID)
	case "unblock_both":
		err = h.actions.UnblockBoth(flagID, adminID)
	case "delete_conversation":
		err = h.actions.DeleteConversationAndUnblock(flagID, adminID)
	case "false_alarm":
		err = h.actions.FalseAlarm(flagID, adminID)
	case "warn":
		err = h.actions.Warn(flagID, adminID)
	case "mark_reviewed":
		err = h.actions.MarkReviewed(flagID, adminID)
	default:
		ErrorResponse(c, http.StatusBadRequest, "Unknown action: "+req.Action)
		return
	}

	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "action": req.Action})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sellotec/backend/internal/cache"
	"github.com/sellotec/backend/internal/gate"
	"github.com/sellotec/backend/internal/models"
	"github.com/sellotec/backend/internal/repository"
)

type MessageHandler struct {
	gate     *gate.Gate
	msgRepo  *repository.MessageRepository
	pairRepo *repository.PairRepository
	redis    *cache.RedisClient
}

func NewMessageHandler(
	g *gate.Gate,
	msgRepo *repository.MessageRepository,
	pairRepo *repository.PairRepository,
	redis *cache.RedisClient,
) *MessageHandler {
	return &MessageHandler{
		gate:     g,
		msgRepo:  msgRepo,
		pairRepo: pairRepo,
		redis:    redis,
	}
}

// SendMessage runs one message through the gate. Rejections come back with
// 403 and the outcome so the client can show the right banner.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.gate.Send(c.Request.Context(), uid, req.ReceiverID, req.Content)
	if err != nil {
		if errors.Is(err, gate.ErrSelfMessage) || errors.Is(err, gate.ErrEmptyBody) {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to send message")
		return
	}

	switch result.Outcome {
	case gate.Accepted:
		c.JSON(http.StatusCreated, result.Message)

	case gate.RejectedAndFlagged:
		c.JSON(http.StatusForbidden, gin.H{
			"outcome":      result.Outcome,
			"matched_word": result.MatchedWord,
		})

	default:
		c.JSON(http.StatusForbidden, gin.H{"outcome": result.Outcome})
	}
}

// GetConversation returns the message history with a peer, oldest first,
// and marks the peer's messages as read.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.GetConversationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 50
	}

	messages, err := h.msgRepo.GetConversation(uid, req.PeerID, req.Limit, req.Offset)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch conversation")
		return
	}

	// Opening a conversation reads it.
	if err := h.msgRepo.MarkConversationRead(req.PeerID, uid); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to mark conversation as read")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}

// GetConversationStatus backs the conversation header: pair-block banner,
// presence dot and unread badge in one round trip.
func (h *MessageHandler) GetConversationStatus(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	peerID, err := uuid.Parse(c.Param("peer_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid peer id")
		return
	}

	pairBlocked, err := h.pairRepo.IsBlocked(uid, peerID)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to check pair status")
		return
	}

	unread, err := h.msgRepo.UnreadFrom(peerID, uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to count unread messages")
		return
	}

	// Presence is decorative; a Redis hiccup degrades to "offline" rather
	// than failing the request.
	peerOnline := false
	if h.redis != nil {
		if online, err := h.redis.IsOnline(peerID); err == nil {
			peerOnline = online
		}
	}

	c.JSON(http.StatusOK, models.ConversationStatus{
		PeerID:      peerID,
		PairBlocked: pairBlocked,
		PeerOnline:  peerOnline,
		Unread:      unread,
	})
}

// GetUnreadCounts returns per-sender unread counts for the sidebar badges.
func (h *MessageHandler) GetUnreadCounts(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	counts, err := h.msgRepo.UnreadCounts(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to count unread messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": counts})
}

// MarkConversationRead marks every message from the peer as read.
func (h *MessageHandler) MarkConversationRead(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	peerID, err := uuid.Parse(c.Param("peer_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid peer id")
		return
	}

	if err := h.msgRepo.MarkConversationRead(peerID, uid); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to mark conversation as read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"community-chat/internal/models"
	"community-chat/internal/repositories"
	"community-chat/internal/telemetry"
	"community-chat/internal/ws"
)

// MessageHandler manages company-room message endpoints.
type MessageHandler struct {
	messages      repositories.MessageRepository
	groupMessages repositories.GroupMessageRepository
	hub           *ws.Hub
	audit         *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages repositories.MessageRepository, groupMessages repositories.GroupMessageRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		messages:      messages,
		groupMessages: groupMessages,
		hub:           hub,
		audit:         audit,
	}
}

// ListMessages returns up to the last 100 non-deleted messages for a
// company, oldest first.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	companyID, err := strconv.Atoi(c.Param("company_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
		return
	}

	msgs, err := h.messages.ListRecent(c.Request.Context(), companyID, repositories.DefaultRecentLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	c.JSON(http.StatusOK, msgs)
}

// PostMessage stores a company message and broadcasts it.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req struct {
		Text      string `json:"text" binding:"required"`
		UserID    string `json:"userId" binding:"required"`
		UserName  string `json:"userName" binding:"required"`
		UserRole  string `json:"userRole" binding:"required"`
		CompanyID int    `json:"companyId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "all fields are required"})
		return
	}

	msg, err := h.messages.CreateMessage(c.Request.Context(), req.CompanyID, req.Text, req.UserID, req.UserName, req.UserRole)
	if err != nil {
		if errors.Is(err, repositories.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "all fields are required"})
			return
		}
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.Broadcast(ws.CompanyRoom(msg.CompanyID), models.EventNewMessage, msg)
	h.emitAudit(c, "INFO", "Company message sent")
	c.JSON(http.StatusCreated, msg)
}

// EditMessage updates the text of the author's own message.
func (h *MessageHandler) EditMessage(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		Text   string `json:"text" binding:"required"`
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text and userId are required"})
		return
	}

	msg, err := h.messages.EditMessage(c.Request.Context(), messageID, req.UserID, req.Text)
	if err != nil {
		h.respondMessageError(c, err, "could not edit message")
		return
	}

	h.hub.Broadcast(ws.CompanyRoom(msg.CompanyID), models.EventMessageEdited, models.MessageEdited{
		MessageID: msg.ID,
		Text:      msg.Text,
		IsEdited:  true,
	})
	c.JSON(http.StatusOK, msg)
}

// DeleteMessage soft-deletes the author's own message. Deleting an
// already-deleted message reports a conflict.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	msg, err := h.messages.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		h.respondMessageError(c, err, "could not delete message")
		return
	}

	if err := h.messages.SoftDeleteMessage(c.Request.Context(), messageID, req.UserID); err != nil {
		h.respondMessageError(c, err, "could not delete message")
		return
	}

	h.hub.Broadcast(ws.CompanyRoom(msg.CompanyID), models.EventMessageDeleted, models.MessageDeleted{MessageID: messageID})
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}

// ClearCompanyMessages hard-deletes every message for the company and
// notifies the room.
func (h *MessageHandler) ClearCompanyMessages(c *gin.Context) {
	companyID, err := strconv.Atoi(c.Param("company_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
		return
	}

	count, err := h.messages.ClearMessages(c.Request.Context(), companyID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear messages"})
		return
	}

	h.hub.Broadcast(ws.CompanyRoom(companyID), models.EventChatCleared, models.ChatCleared{CompanyID: companyID, Scope: "company"})
	h.emitAudit(c, "INFO", "Company chat cleared")
	c.JSON(http.StatusOK, gin.H{
		"message":      "All messages cleared successfully",
		"deletedCount": count,
	})
}

// ClearGroupMessages hard-deletes every message for the group and
// notifies the room.
func (h *MessageHandler) ClearGroupMessages(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	count, err := h.groupMessages.ClearMessages(c.Request.Context(), groupID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear group messages"})
		return
	}

	h.hub.Broadcast(ws.GroupRoom(groupID), models.EventChatCleared, models.ChatCleared{GroupID: groupID, Scope: "group"})
	h.emitAudit(c, "INFO", "Group chat cleared")
	c.JSON(http.StatusOK, gin.H{
		"message":      "All group messages cleared successfully",
		"deletedCount": count,
	})
}

func (h *MessageHandler) respondMessageError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repositories.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
	case errors.Is(err, repositories.ErrNotMessageAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only modify your own messages"})
	case errors.Is(err, repositories.ErrMessageDeleted):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message already deleted"})
	case errors.Is(err, repositories.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
	default:
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

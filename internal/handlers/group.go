package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"community-chat/internal/mentions"
	"community-chat/internal/middleware"
	"community-chat/internal/models"
	"community-chat/internal/repositories"
	"community-chat/internal/telemetry"
	"community-chat/internal/ws"
)

// GroupHandler manages group-related endpoints.
type GroupHandler struct {
	groups        repositories.GroupRepository
	groupMessages repositories.GroupMessageRepository
	users         repositories.UserRepository
	hub           *ws.Hub
	audit         *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups repositories.GroupRepository, groupMessages repositories.GroupMessageRepository, users repositories.UserRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{
		groups:        groups,
		groupMessages: groupMessages,
		users:         users,
		hub:           hub,
		audit:         audit,
	}
}

// CreateGroup handles POST /api/groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Members     []string `json:"members"`
		Type        string   `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" || len(req.Members) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group name and members are required"})
		return
	}

	creator := c.GetString(middleware.KeyUserEmail)
	group, err := h.groups.CreateGroup(c.Request.Context(), req.Name, req.Description, creator, req.Type, req.Members)
	if err != nil {
		if errors.Is(err, repositories.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "group name and members are required"})
			return
		}
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group"})
		return
	}

	h.emitAudit(c, "INFO", "Group created")
	c.JSON(http.StatusCreated, group)
}

// ListUserGroups returns groups the caller belongs to, newest first.
func (h *GroupHandler) ListUserGroups(c *gin.Context) {
	email := c.GetString(middleware.KeyUserEmail)
	groups, err := h.groups.ListGroupsForUser(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch groups"})
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	c.JSON(http.StatusOK, groups)
}

// GetGroup returns a group to its members.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, ok := h.memberGroup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, group)
}

// RenameGroup updates the group name; creator only.
func (h *GroupHandler) RenameGroup(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	email := c.GetString(middleware.KeyUserEmail)
	group, err := h.groups.RenameGroup(c.Request.Context(), groupID, email, req.Name)
	if err != nil {
		h.respondGroupError(c, err, "failed to update group")
		return
	}
	c.JSON(http.StatusOK, group)
}

// AddMembers appends members to the group; any member may add.
func (h *GroupHandler) AddMembers(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	var req struct {
		Members []string `json:"members" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "members are required"})
		return
	}

	email := c.GetString(middleware.KeyUserEmail)
	group, err := h.groups.AddMembers(c.Request.Context(), groupID, email, req.Members)
	if err != nil {
		h.respondGroupError(c, err, "failed to add group members")
		return
	}
	c.JSON(http.StatusOK, group)
}

// LeaveGroup removes the caller from the group. The creator role moves
// to the next member in list order; an emptied group is deleted along
// with all of its messages.
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	email := c.GetString(middleware.KeyUserEmail)
	result, err := h.groups.LeaveGroup(c.Request.Context(), groupID, email)
	if err != nil {
		h.respondGroupError(c, err, "failed to leave group")
		return
	}

	if result.Deleted {
		h.emitAudit(c, "INFO", "Group deleted after last member left")
		c.JSON(http.StatusOK, gin.H{"message": "Group deleted as no members remain"})
		return
	}

	h.emitAudit(c, "INFO", "Member left group")
	c.JSON(http.StatusOK, gin.H{"message": "Successfully left the group"})
}

// GetGroupMessages returns up to the last 100 messages to members.
func (h *GroupHandler) GetGroupMessages(c *gin.Context) {
	group, ok := h.memberGroup(c)
	if !ok {
		return
	}

	msgs, err := h.groupMessages.ListRecent(c.Request.Context(), group.ID, repositories.DefaultRecentLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch group messages"})
		return
	}
	if msgs == nil {
		msgs = []models.GroupMessage{}
	}
	c.JSON(http.StatusOK, msgs)
}

// PostGroupMessage persists a group message, resolving mentions
// against the user directory, and broadcasts it to the room.
func (h *GroupHandler) PostGroupMessage(c *gin.Context) {
	group, ok := h.memberGroup(c)
	if !ok {
		return
	}

	var req struct {
		Text     string           `json:"text" binding:"required"`
		UserRole string           `json:"userRole"`
		ReplyTo  *models.ReplyRef `json:"replyTo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := c.GetString(middleware.KeyUserEmail)
	name := c.GetString(middleware.KeyUserName)
	if name == "" {
		name = email
	}

	msg := models.GroupMessage{
		GroupID:   group.ID,
		Text:      req.Text,
		UserID:    email,
		UserName:  name,
		UserRole:  req.UserRole,
		UserEmail: email,
		Mentions:  h.resolveMentions(c, req.Text),
		ReplyTo:   req.ReplyTo,
	}

	saved, err := h.groupMessages.CreateGroupMessage(c.Request.Context(), msg)
	if err != nil {
		if errors.Is(err, repositories.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
			return
		}
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send group message"})
		return
	}

	h.hub.Broadcast(ws.GroupRoom(group.ID), models.EventNewMessage, saved)
	h.emitAudit(c, "INFO", "Group message sent")
	c.JSON(http.StatusCreated, saved)
}

func (h *GroupHandler) resolveMentions(c *gin.Context, text string) models.Mentions {
	if !strings.Contains(text, "@") {
		return nil
	}
	roster, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		// mentions degrade to plain text when the roster is unavailable
		return nil
	}
	return mentions.Resolve(text, roster)
}

// memberGroup loads the group from the path and enforces membership.
func (h *GroupHandler) memberGroup(c *gin.Context) (models.Group, bool) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return models.Group{}, false
	}

	group, err := h.groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		h.respondGroupError(c, err, "failed to fetch group")
		return models.Group{}, false
	}

	email := c.GetString(middleware.KeyUserEmail)
	for _, m := range group.Members {
		if m == email {
			return group, true
		}
	}

	h.emitAudit(c, "ERROR", "not allowed")
	c.JSON(http.StatusForbidden, gin.H{"error": "access denied: you are not a member of this group"})
	return models.Group{}, false
}

func (h *GroupHandler) respondGroupError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repositories.ErrGroupNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
	case errors.Is(err, repositories.ErrNotGroupMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied: you are not a member of this group"})
	case errors.Is(err, repositories.ErrNotGroupCreator):
		c.JSON(http.StatusForbidden, gin.H{"error": "only group creator can update group name"})
	case errors.Is(err, repositories.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
	default:
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

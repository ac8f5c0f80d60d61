package ws

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"community-chat/internal/mentions"
	"community-chat/internal/models"
	"community-chat/internal/repositories"
)

// Notifier re-targets help-request messages at a subset of connected
// users after the ordinary room broadcast.
type Notifier interface {
	Notify(ctx context.Context, msg models.Message, authorConnID string)
}

// Session orchestrates inbound client actions: it persists through the
// repositories, consults the notifier, and fans out through the hub.
// Errors on this path are logged and swallowed; the client reconciles
// via a full reload.
type Session struct {
	hub           *Hub
	registry      *Registry
	messages      repositories.MessageRepository
	groupMessages repositories.GroupMessageRepository
	users         repositories.UserRepository
	notifier      Notifier
}

// NewSession wires the orchestrator.
func NewSession(hub *Hub, registry *Registry, messages repositories.MessageRepository, groupMessages repositories.GroupMessageRepository, users repositories.UserRepository, notifier Notifier) *Session {
	return &Session{
		hub:           hub,
		registry:      registry,
		messages:      messages,
		groupMessages: groupMessages,
		users:         users,
		notifier:      notifier,
	}
}

// Client event names, mirroring the frontend protocol.
const (
	actionJoinCompany      = "join-company"
	actionJoinGroup        = "join-group"
	actionSendMessage      = "send-message"
	actionSendGroupMessage = "send-group-message"
	actionEditMessage      = "edit-message"
	actionDeleteMessage    = "delete-message"
	actionClearCompanyChat = "clear-company-chat"
	actionClearGroupChat   = "clear-group-chat"
)

// HandleEvent processes one decoded client event for the connection.
func (s *Session) HandleEvent(ctx context.Context, connID string, event models.ClientEvent) {
	switch event.Type {
	case actionJoinCompany:
		s.handleJoinCompany(connID, event.Payload)
	case actionJoinGroup:
		s.handleJoinGroup(connID, event.Payload)
	case actionSendMessage:
		s.handleSendMessage(ctx, connID, event.Payload)
	case actionSendGroupMessage:
		s.handleSendGroupMessage(ctx, connID, event.Payload)
	case actionEditMessage:
		s.handleEditMessage(ctx, event.Payload)
	case actionDeleteMessage:
		s.handleDeleteMessage(ctx, event.Payload)
	case actionClearCompanyChat:
		s.handleClearCompanyChat(event.Payload)
	case actionClearGroupChat:
		s.handleClearGroupChat(event.Payload)
	default:
		log.Printf("unknown client event %q from %s", event.Type, connID)
	}
}

// HandleDisconnect removes the connection from every joined room and
// rebroadcasts presence to each of them.
func (s *Session) HandleDisconnect(connID string) {
	left := s.hub.RemoveClient(connID)
	s.registry.Unregister(connID)
	for _, room := range left {
		s.broadcastPresence(room)
	}
}

func (s *Session) handleJoinCompany(connID string, payload json.RawMessage) {
	var req struct {
		CompanyID int `json:"companyId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.CompanyID == 0 {
		log.Printf("join-company: bad payload from %s: %v", connID, err)
		return
	}

	s.registry.SetCompany(connID, req.CompanyID)
	room := CompanyRoom(req.CompanyID)
	s.hub.Join(room, connID)
	s.broadcastPresence(room)
}

func (s *Session) handleJoinGroup(connID string, payload json.RawMessage) {
	var req struct {
		GroupID int `json:"groupId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.GroupID == 0 {
		log.Printf("join-group: bad payload from %s: %v", connID, err)
		return
	}

	s.registry.SetGroup(connID, req.GroupID)
	room := GroupRoom(req.GroupID)
	s.hub.Join(room, connID)
	s.broadcastPresence(room)
}

func (s *Session) handleSendMessage(ctx context.Context, connID string, payload json.RawMessage) {
	var req struct {
		Text      string `json:"text"`
		UserID    string `json:"userId"`
		UserName  string `json:"userName"`
		UserRole  string `json:"userRole"`
		CompanyID int    `json:"companyId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("send-message: bad payload from %s: %v", connID, err)
		return
	}

	msg, err := s.messages.CreateMessage(ctx, req.CompanyID, req.Text, req.UserID, req.UserName, req.UserRole)
	if err != nil {
		log.Printf("send-message: store error: %v", err)
		return
	}

	s.hub.Broadcast(CompanyRoom(msg.CompanyID), models.EventNewMessage, msg)
	if s.notifier != nil {
		s.notifier.Notify(ctx, msg, connID)
	}
}

func (s *Session) handleSendGroupMessage(ctx context.Context, connID string, payload json.RawMessage) {
	var req struct {
		Text      string           `json:"text"`
		UserID    string           `json:"userId"`
		UserName  string           `json:"userName"`
		UserRole  string           `json:"userRole"`
		UserEmail string           `json:"userEmail"`
		GroupID   int              `json:"groupId"`
		ReplyTo   *models.ReplyRef `json:"replyTo"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("send-group-message: bad payload from %s: %v", connID, err)
		return
	}

	msg := models.GroupMessage{
		GroupID:   req.GroupID,
		Text:      req.Text,
		UserID:    req.UserID,
		UserName:  req.UserName,
		UserRole:  req.UserRole,
		UserEmail: req.UserEmail,
		Mentions:  s.resolveMentions(ctx, req.Text),
		ReplyTo:   req.ReplyTo,
	}

	saved, err := s.groupMessages.CreateGroupMessage(ctx, msg)
	if err != nil {
		log.Printf("send-group-message: store error: %v", err)
		return
	}

	s.hub.Broadcast(GroupRoom(saved.GroupID), models.EventNewMessage, saved)
}

func (s *Session) resolveMentions(ctx context.Context, text string) models.Mentions {
	if !strings.Contains(text, "@") {
		return nil
	}
	roster, err := s.users.ListUsers(ctx)
	if err != nil {
		// unresolved mentions stay visible as plain text
		log.Printf("mention roster lookup failed: %v", err)
		return nil
	}
	return mentions.Resolve(text, roster)
}

func (s *Session) handleEditMessage(ctx context.Context, payload json.RawMessage) {
	var req struct {
		MessageID int    `json:"messageId"`
		NewText   string `json:"newText"`
		UserID    string `json:"userId"`
		CompanyID int    `json:"companyId"`
		GroupID   int    `json:"groupId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("edit-message: bad payload: %v", err)
		return
	}

	if req.GroupID != 0 {
		msg, err := s.groupMessages.EditGroupMessage(ctx, req.MessageID, req.UserID, req.NewText)
		if err != nil {
			log.Printf("edit-message: group %d message %d: %v", req.GroupID, req.MessageID, err)
			return
		}
		s.hub.Broadcast(GroupRoom(msg.GroupID), models.EventMessageEdited, editedPayload(msg.ID, msg.Text, msg.EditedAt))
		return
	}

	// route by the stored row, not the client payload
	msg, err := s.messages.EditMessage(ctx, req.MessageID, req.UserID, req.NewText)
	if err != nil {
		log.Printf("edit-message: message %d: %v", req.MessageID, err)
		return
	}
	s.hub.Broadcast(CompanyRoom(msg.CompanyID), models.EventMessageEdited, editedPayload(msg.ID, msg.Text, msg.EditedAt))
}

func (s *Session) handleDeleteMessage(ctx context.Context, payload json.RawMessage) {
	var req struct {
		MessageID int    `json:"messageId"`
		UserID    string `json:"userId"`
		CompanyID int    `json:"companyId"`
		GroupID   int    `json:"groupId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("delete-message: bad payload: %v", err)
		return
	}

	if req.GroupID != 0 {
		msg, err := s.groupMessages.GetGroupMessage(ctx, req.MessageID)
		if err != nil {
			log.Printf("delete-message: group message %d: %v", req.MessageID, err)
			return
		}
		if err := s.groupMessages.SoftDeleteGroupMessage(ctx, req.MessageID, req.UserID); err != nil {
			log.Printf("delete-message: group %d message %d: %v", msg.GroupID, req.MessageID, err)
			return
		}
		s.hub.Broadcast(GroupRoom(msg.GroupID), models.EventMessageDeleted, models.MessageDeleted{MessageID: req.MessageID})
		return
	}

	msg, err := s.messages.GetMessage(ctx, req.MessageID)
	if err != nil {
		log.Printf("delete-message: message %d: %v", req.MessageID, err)
		return
	}
	if err := s.messages.SoftDeleteMessage(ctx, req.MessageID, req.UserID); err != nil {
		log.Printf("delete-message: message %d: %v", req.MessageID, err)
		return
	}
	s.hub.Broadcast(CompanyRoom(msg.CompanyID), models.EventMessageDeleted, models.MessageDeleted{MessageID: req.MessageID})
}

// clear-*-chat over the socket only announces the clear; the deletion
// itself happens on the REST path.
func (s *Session) handleClearCompanyChat(payload json.RawMessage) {
	var req struct {
		CompanyID int    `json:"companyId"`
		UserID    string `json:"userId"`
		UserName  string `json:"userName"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("clear-company-chat: bad payload: %v", err)
		return
	}
	s.hub.Broadcast(CompanyRoom(req.CompanyID), models.EventChatCleared, models.ChatCleared{
		UserID:    req.UserID,
		UserName:  req.UserName,
		CompanyID: req.CompanyID,
		Scope:     "company",
	})
}

func (s *Session) handleClearGroupChat(payload json.RawMessage) {
	var req struct {
		GroupID  int    `json:"groupId"`
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("clear-group-chat: bad payload: %v", err)
		return
	}
	s.hub.Broadcast(GroupRoom(req.GroupID), models.EventChatCleared, models.ChatCleared{
		UserID:   req.UserID,
		UserName: req.UserName,
		GroupID:  req.GroupID,
		Scope:    "group",
	})
}

func (s *Session) broadcastPresence(room RoomKey) {
	kind, id, ok := parseRoom(room)
	if !ok {
		return
	}

	var infos []ConnInfo
	if kind == "group" {
		infos = s.registry.ListByGroup(id)
	} else {
		infos = s.registry.ListByCompany(id)
	}

	online := make([]models.OnlineUser, 0, len(infos))
	for _, info := range infos {
		online = append(online, models.OnlineUser{
			UserID:    info.UserID,
			UserName:  info.UserName,
			UserRole:  info.UserRole,
			CompanyID: info.CompanyID,
			GroupID:   info.GroupID,
		})
	}
	s.hub.Broadcast(room, models.EventOnlineUsers, online)
}

func parseRoom(room RoomKey) (string, int, bool) {
	kind, raw, found := strings.Cut(string(room), "_")
	if !found {
		return "", 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return "", 0, false
	}
	return kind, id, true
}

func editedPayload(id int, text string, editedAt *time.Time) models.MessageEdited {
	edited := models.MessageEdited{MessageID: id, Text: text, IsEdited: true}
	if editedAt != nil {
		edited.EditedAt = editedAt.UTC().Format(time.RFC3339Nano)
	}
	return edited
}

package models

import "encoding/json"

// Event names pushed to room subscribers.
const (
	EventNewMessage     = "new-message"
	EventMessageEdited  = "message-edited"
	EventMessageDeleted = "message-deleted"
	EventChatCleared    = "chat-cleared"
	EventOnlineUsers    = "online-users"
	EventHelpRequest    = "help-request-notification"
)

// ClientEvent is the envelope read from a websocket connection.
type ClientEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerEvent is the envelope written to websocket connections.
type ServerEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// OnlineUser is one entry of an online-users room snapshot.
type OnlineUser struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserRole  string `json:"userRole"`
	CompanyID int    `json:"companyId,omitempty"`
	GroupID   int    `json:"groupId,omitempty"`
}

// MessageEdited is broadcast after a successful edit.
type MessageEdited struct {
	MessageID int    `json:"messageId"`
	Text      string `json:"text"`
	IsEdited  bool   `json:"isEdited"`
	EditedAt  string `json:"editedAt"`
}

// MessageDeleted carries only the id of the soft-deleted message.
type MessageDeleted struct {
	MessageID int `json:"messageId"`
}

// ChatCleared identifies the actor so peers can tell self-initiated
// clears from remote ones.
type ChatCleared struct {
	UserID    string `json:"userId,omitempty"`
	UserName  string `json:"userName,omitempty"`
	CompanyID int    `json:"companyId,omitempty"`
	GroupID   int    `json:"groupId,omitempty"`
	Scope     string `json:"type,omitempty"`
}

// HelpRequest is the targeted notification sent to connected
// professionals of the author's company.
type HelpRequest struct {
	Message     Message `json:"message"`
	CompanyName string  `json:"companyName"`
	StudentName string  `json:"studentName"`
	Type        string  `json:"type"`
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Group is a private chat group. Members are user emails in insertion
// order; the creator is always a member.
type Group struct {
	ID          int            `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	Members     pq.StringArray `db:"members" json:"members"`
	Creator     string         `db:"creator" json:"creator"`
	Type        string         `db:"type" json:"type"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// Mention is a structured reference to a user resolved from @name text.
type Mention struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

// Mentions is stored as a JSONB column.
type Mentions []Mention

func (m Mentions) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

func (m *Mentions) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("mentions: cannot scan %T", src)
	}
	return json.Unmarshal(b, m)
}

// ReplyRef is a snapshot of the message being replied to, frozen at send
// time. It is a copy, not a reference: later edits or deletes of the
// original do not change it.
type ReplyRef struct {
	MessageID int    `json:"messageId"`
	Text      string `json:"text"`
	UserName  string `json:"userName"`
	UserID    string `json:"userId"`
}

func (r ReplyRef) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *ReplyRef) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("reply ref: cannot scan %T", src)
	}
	return json.Unmarshal(b, r)
}

// GroupMessage is a chat message in a group room.
type GroupMessage struct {
	ID        int        `db:"id" json:"id"`
	GroupID   int        `db:"group_id" json:"groupId"`
	Text      string     `db:"text" json:"text"`
	UserID    string     `db:"user_id" json:"userId"`
	UserName  string     `db:"user_name" json:"userName"`
	UserRole  string     `db:"user_role" json:"userRole"`
	UserEmail string     `db:"user_email" json:"userEmail"`
	Mentions  Mentions   `db:"mentions" json:"mentions"`
	ReplyTo   *ReplyRef  `db:"reply_to" json:"replyTo,omitempty"`
	IsEdited  bool       `db:"is_edited" json:"isEdited"`
	EditedAt  *time.Time `db:"edited_at" json:"editedAt,omitempty"`
	IsDeleted bool       `db:"is_deleted" json:"isDeleted,omitempty"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"timestamp"`
}

package models

import "time"

// User roles carried on connections and messages.
const (
	RoleStudent      = "student"
	RoleProfessional = "professional"
	RoleSystem       = "system"
)

// Message is a chat message in a company room.
type Message struct {
	ID        int        `db:"id" json:"id"`
	CompanyID int        `db:"company_id" json:"companyId"`
	Text      string     `db:"text" json:"text"`
	UserID    string     `db:"user_id" json:"userId"`
	UserName  string     `db:"user_name" json:"userName"`
	UserRole  string     `db:"user_role" json:"userRole"`
	IsEdited  bool       `db:"is_edited" json:"isEdited"`
	EditedAt  *time.Time `db:"edited_at" json:"editedAt,omitempty"`
	IsDeleted bool       `db:"is_deleted" json:"isDeleted,omitempty"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"timestamp"`
}

package models

import "time"

// User is a directory record consumed for mention rosters and
// help-request audience lookups.
type User struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Role        string    `db:"role" json:"role"`
	CompanyName string    `db:"company_name" json:"companyName"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Company scopes company rooms and messages.
type Company struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	MemberCount int       `db:"member_count" json:"memberCount"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

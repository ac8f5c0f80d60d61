package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"community-chat/internal/models"
)

// DefaultRecentLimit caps the read path for room history.
const DefaultRecentLimit = 100

// recentLimit clamps a requested history size to (0, DefaultRecentLimit].
func recentLimit(limit int) int {
	if limit <= 0 || limit > DefaultRecentLimit {
		return DefaultRecentLimit
	}
	return limit
}

// MessageRepository defines interactions for company messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, companyID int, text, userID, userName, userRole string) (models.Message, error)
	ListRecent(ctx context.Context, companyID int, limit int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	EditMessage(ctx context.Context, messageID int, userID, newText string) (models.Message, error)
	SoftDeleteMessage(ctx context.Context, messageID int, userID string) error
	ClearMessages(ctx context.Context, companyID int) (int64, error)
}

// MessageRepo is a sqlx-backed implementation.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage persists a company message.
func (r *MessageRepo) CreateMessage(ctx context.Context, companyID int, text, userID, userName, userRole string) (models.Message, error) {
	if strings.TrimSpace(text) == "" || userID == "" {
		return models.Message{}, ErrValidation
	}

	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (company_id, text, user_id, user_name, user_role) VALUES ($1, $2, $3, $4, $5)
         RETURNING id, company_id, text, user_id, user_name, user_role, is_edited, edited_at, is_deleted, deleted_at, created_at`,
		companyID, text, userID, userName, userRole).StructScan(&msg)
	return msg, err
}

// ListRecent returns up to limit messages ordered oldest first,
// excluding soft-deleted ones.
func (r *MessageRepo) ListRecent(ctx context.Context, companyID int, limit int) ([]models.Message, error) {
	limit = recentLimit(limit)
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, company_id, text, user_id, user_name, user_role, is_edited, edited_at, is_deleted, deleted_at, created_at
         FROM messages WHERE company_id=$1 AND is_deleted = FALSE ORDER BY created_at ASC LIMIT $2`,
		companyID, limit)
	return msgs, err
}

// GetMessage fetches a single message, soft-deleted ones included.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT id, company_id, text, user_id, user_name, user_role, is_edited, edited_at, is_deleted, deleted_at, created_at
         FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// EditMessage replaces the text of the author's own, not yet deleted
// message and marks it edited.
func (r *MessageRepo) EditMessage(ctx context.Context, messageID int, userID, newText string) (models.Message, error) {
	if strings.TrimSpace(newText) == "" || userID == "" {
		return models.Message{}, ErrValidation
	}

	msg, err := r.GetMessage(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if msg.UserID != userID {
		return models.Message{}, ErrNotMessageAuthor
	}
	if msg.IsDeleted {
		return models.Message{}, ErrMessageDeleted
	}

	err = r.db.QueryRowxContext(ctx,
		`UPDATE messages SET text=$1, is_edited=TRUE, edited_at=NOW() WHERE id=$2 AND is_deleted = FALSE
         RETURNING id, company_id, text, user_id, user_name, user_role, is_edited, edited_at, is_deleted, deleted_at, created_at`,
		newText, messageID).StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		// deleted between the read and the update
		return models.Message{}, ErrMessageDeleted
	}
	return msg, err
}

// SoftDeleteMessage marks the author's own message deleted. A second
// delete reports ErrMessageDeleted.
func (r *MessageRepo) SoftDeleteMessage(ctx context.Context, messageID int, userID string) error {
	msg, err := r.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.UserID != userID {
		return ErrNotMessageAuthor
	}
	if msg.IsDeleted {
		return ErrMessageDeleted
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_deleted=TRUE, deleted_at=NOW() WHERE id=$1 AND is_deleted = FALSE`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageDeleted
	}
	return nil
}

// ClearMessages hard-deletes every message for the company and returns
// the count. Irreversible.
func (r *MessageRepo) ClearMessages(ctx context.Context, companyID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE company_id=$1`, companyID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"community-chat/internal/models"
)

// GroupMessageRepository defines interactions for group messages.
type GroupMessageRepository interface {
	CreateGroupMessage(ctx context.Context, msg models.GroupMessage) (models.GroupMessage, error)
	ListRecent(ctx context.Context, groupID int, limit int) ([]models.GroupMessage, error)
	GetGroupMessage(ctx context.Context, messageID int) (models.GroupMessage, error)
	EditGroupMessage(ctx context.Context, messageID int, userID, newText string) (models.GroupMessage, error)
	SoftDeleteGroupMessage(ctx context.Context, messageID int, userID string) error
	ClearMessages(ctx context.Context, groupID int) (int64, error)
}

// GroupMessageRepo is a sqlx-backed implementation.
type GroupMessageRepo struct {
	db *sqlx.DB
}

// NewGroupMessageRepo constructs a GroupMessageRepo.
func NewGroupMessageRepo(db *sqlx.DB) *GroupMessageRepo {
	return &GroupMessageRepo{db: db}
}

const groupMessageColumns = `id, group_id, text, user_id, user_name, user_role, user_email, mentions, reply_to, is_edited, edited_at, is_deleted, deleted_at, created_at`

// CreateGroupMessage persists a group message with its mentions and
// reply snapshot.
func (r *GroupMessageRepo) CreateGroupMessage(ctx context.Context, msg models.GroupMessage) (models.GroupMessage, error) {
	if strings.TrimSpace(msg.Text) == "" || msg.UserID == "" {
		return models.GroupMessage{}, ErrValidation
	}

	var saved models.GroupMessage
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO group_messages (group_id, text, user_id, user_name, user_role, user_email, mentions, reply_to)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+groupMessageColumns,
		msg.GroupID, msg.Text, msg.UserID, msg.UserName, msg.UserRole, msg.UserEmail, msg.Mentions, msg.ReplyTo).
		StructScan(&saved)
	return saved, err
}

// ListRecent returns up to limit messages oldest first, excluding
// soft-deleted ones.
func (r *GroupMessageRepo) ListRecent(ctx context.Context, groupID int, limit int) ([]models.GroupMessage, error) {
	limit = recentLimit(limit)
	var msgs []models.GroupMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+groupMessageColumns+` FROM group_messages
         WHERE group_id=$1 AND is_deleted = FALSE ORDER BY created_at ASC LIMIT $2`,
		groupID, limit)
	return msgs, err
}

// GetGroupMessage fetches a single message.
func (r *GroupMessageRepo) GetGroupMessage(ctx context.Context, messageID int) (models.GroupMessage, error) {
	var msg models.GroupMessage
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+groupMessageColumns+` FROM group_messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GroupMessage{}, ErrMessageNotFound
	}
	return msg, err
}

// EditGroupMessage applies the same authorization rules as the company
// variant: author only, never on a soft-deleted message.
func (r *GroupMessageRepo) EditGroupMessage(ctx context.Context, messageID int, userID, newText string) (models.GroupMessage, error) {
	if strings.TrimSpace(newText) == "" || userID == "" {
		return models.GroupMessage{}, ErrValidation
	}

	msg, err := r.GetGroupMessage(ctx, messageID)
	if err != nil {
		return models.GroupMessage{}, err
	}
	if msg.UserID != userID {
		return models.GroupMessage{}, ErrNotMessageAuthor
	}
	if msg.IsDeleted {
		return models.GroupMessage{}, ErrMessageDeleted
	}

	err = r.db.QueryRowxContext(ctx,
		`UPDATE group_messages SET text=$1, is_edited=TRUE, edited_at=NOW() WHERE id=$2 AND is_deleted = FALSE
         RETURNING `+groupMessageColumns, newText, messageID).StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GroupMessage{}, ErrMessageDeleted
	}
	return msg, err
}

// SoftDeleteGroupMessage marks the author's message deleted; a repeat
// call reports ErrMessageDeleted.
func (r *GroupMessageRepo) SoftDeleteGroupMessage(ctx context.Context, messageID int, userID string) error {
	msg, err := r.GetGroupMessage(ctx, messageID)
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
		`UPDATE group_messages SET is_deleted=TRUE, deleted_at=NOW() WHERE id=$1 AND is_deleted = FALSE`, messageID)
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

// ClearMessages hard-deletes every message for the group.
func (r *GroupMessageRepo) ClearMessages(ctx context.Context, groupID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM group_messages WHERE group_id=$1`, groupID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

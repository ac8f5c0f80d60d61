package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"community-chat/internal/models"
)

// GroupRepository abstracts group persistence and membership rules.
type GroupRepository interface {
	CreateGroup(ctx context.Context, name, description, creator, groupType string, members []string) (models.Group, error)
	ListGroupsForUser(ctx context.Context, email string) ([]models.Group, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	IsMember(ctx context.Context, groupID int, email string) (bool, error)
	RenameGroup(ctx context.Context, groupID int, creator, name string) (models.Group, error)
	AddMembers(ctx context.Context, groupID int, actor string, members []string) (models.Group, error)
	LeaveGroup(ctx context.Context, groupID int, email string) (LeaveResult, error)
}

// LeaveResult reports the outcome of a leave operation.
type LeaveResult struct {
	// Deleted is true when the departing member was the last one and
	// the group (with all its messages) was removed.
	Deleted bool
	// Group is the post-leave state; zero when Deleted.
	Group models.Group
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

const groupColumns = `id, name, description, members, creator, type, created_at`

// CreateGroup creates a group. The creator is always a member; the
// member list keeps insertion order with duplicates removed.
func (r *GroupRepo) CreateGroup(ctx context.Context, name, description, creator, groupType string, members []string) (models.Group, error) {
	if strings.TrimSpace(name) == "" || creator == "" || len(members) == 0 {
		return models.Group{}, ErrValidation
	}
	if groupType == "" {
		groupType = "private"
	}

	ordered := dedupeMembers(append([]string{creator}, members...))

	var group models.Group
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO groups (name, description, members, creator, type) VALUES ($1, $2, $3, $4, $5)
         RETURNING `+groupColumns,
		name, description, pq.StringArray(ordered), creator, groupType).StructScan(&group)
	return group, err
}

// ListGroupsForUser returns groups containing the user, newest first.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, email string) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.SelectContext(ctx, &groups,
		`SELECT `+groupColumns+` FROM groups WHERE $1 = ANY(members) ORDER BY created_at DESC`, email)
	return groups, err
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT `+groupColumns+` FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID int, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM groups WHERE id=$1 AND $2 = ANY(members))`, groupID, email)
	return exists, err
}

// RenameGroup updates the name; creator only.
func (r *GroupRepo) RenameGroup(ctx context.Context, groupID int, creator, name string) (models.Group, error) {
	if strings.TrimSpace(name) == "" {
		return models.Group{}, ErrValidation
	}

	group, err := r.GetGroup(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if group.Creator != creator {
		return models.Group{}, ErrNotGroupCreator
	}

	err = r.db.QueryRowxContext(ctx,
		`UPDATE groups SET name=$1 WHERE id=$2 RETURNING `+groupColumns, name, groupID).StructScan(&group)
	return group, err
}

// AddMembers appends new members, skipping ones already present. Any
// current member may add.
func (r *GroupRepo) AddMembers(ctx context.Context, groupID int, actor string, members []string) (models.Group, error) {
	group, err := r.GetGroup(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if !containsMember(group.Members, actor) {
		return models.Group{}, ErrNotGroupMember
	}

	updated := dedupeMembers(append(append([]string{}, group.Members...), members...))
	err = r.db.QueryRowxContext(ctx,
		`UPDATE groups SET members=$1 WHERE id=$2 RETURNING `+groupColumns,
		pq.StringArray(updated), groupID).StructScan(&group)
	return group, err
}

// LeaveGroup removes the member. When the creator leaves and others
// remain, creator role moves to the first remaining member. When the
// last member leaves, the group and all its messages are deleted in
// one transaction.
func (r *GroupRepo) LeaveGroup(ctx context.Context, groupID int, email string) (LeaveResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return LeaveResult{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var group models.Group
	err = tx.QueryRowxContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id=$1 FOR UPDATE`, groupID).StructScan(&group)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrGroupNotFound
		return LeaveResult{}, err
	}
	if err != nil {
		return LeaveResult{}, err
	}
	if !containsMember(group.Members, email) {
		err = ErrNotGroupMember
		return LeaveResult{}, err
	}

	remaining, newCreator := transferOnLeave(group.Members, group.Creator, email)

	if len(remaining) == 0 {
		if _, err = tx.ExecContext(ctx, `DELETE FROM groups WHERE id=$1`, groupID); err != nil {
			return LeaveResult{}, err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM group_messages WHERE group_id=$1`, groupID); err != nil {
			return LeaveResult{}, err
		}
		if err = tx.Commit(); err != nil {
			return LeaveResult{}, err
		}
		return LeaveResult{Deleted: true}, nil
	}

	err = tx.QueryRowxContext(ctx,
		`UPDATE groups SET members=$1, creator=$2 WHERE id=$3 RETURNING `+groupColumns,
		pq.StringArray(remaining), newCreator, groupID).StructScan(&group)
	if err != nil {
		return LeaveResult{}, err
	}
	if err = tx.Commit(); err != nil {
		return LeaveResult{}, err
	}
	return LeaveResult{Group: group}, nil
}

// transferOnLeave removes the departing member from the list. When the
// creator departs and members remain, the creator role moves to the
// first remaining member in list order.
func transferOnLeave(members []string, creator, leaving string) ([]string, string) {
	remaining := make([]string, 0, len(members))
	for _, m := range members {
		if m != leaving {
			remaining = append(remaining, m)
		}
	}
	if creator == leaving && len(remaining) > 0 {
		creator = remaining[0]
	}
	return remaining, creator
}

func dedupeMembers(members []string) []string {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

func containsMember(members []string, email string) bool {
	for _, m := range members {
		if m == email {
			return true
		}
	}
	return false
}

package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"community-chat/internal/models"
)

// UserRepository is the user directory consumed for mention rosters
// and help-request audience lookups.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	FindByRoleAndCompany(ctx context.Context, role, companyName string) ([]models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

// UserRepo is a sqlx-backed implementation.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, email, role, company_name, created_at`

// ListUsers returns the full directory, used to build mention rosters.
func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY name ASC`)
	return users, err
}

// FindByRoleAndCompany matches the company name case-insensitively but
// exactly, per the notification audience rule.
func (r *UserRepo) FindByRoleAndCompany(ctx context.Context, role, companyName string) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE role=$1 AND LOWER(company_name)=LOWER($2)`, role, companyName)
	return users, err
}

// GetByEmail fetches a single directory record.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

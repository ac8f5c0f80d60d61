package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"community-chat/internal/models"
)

// CompanyRepository resolves company rooms to directory records.
type CompanyRepository interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	GetCompany(ctx context.Context, companyID int) (models.Company, error)
}

// CompanyRepo is a sqlx-backed implementation.
type CompanyRepo struct {
	db *sqlx.DB
}

// NewCompanyRepo constructs a CompanyRepo.
func NewCompanyRepo(db *sqlx.DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

const companyColumns = `id, name, description, member_count, created_at`

// ListCompanies returns all companies ordered by name.
func (r *CompanyRepo) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := r.db.SelectContext(ctx, &companies, `SELECT `+companyColumns+` FROM companies ORDER BY name ASC`)
	return companies, err
}

// GetCompany fetches a single company.
func (r *CompanyRepo) GetCompany(ctx context.Context, companyID int) (models.Company, error) {
	var company models.Company
	err := r.db.GetContext(ctx, &company, `SELECT `+companyColumns+` FROM companies WHERE id=$1`, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Company{}, ErrCompanyNotFound
	}
	return company, err
}

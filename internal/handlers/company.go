package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"community-chat/internal/models"
	"community-chat/internal/repositories"
)

// SeedFunc provisions the starter company list.
type SeedFunc func() error

// CompanyHandler serves the company directory.
type CompanyHandler struct {
	companies repositories.CompanyRepository
	seed      SeedFunc
}

func NewCompanyHandler(companies repositories.CompanyRepository, seed SeedFunc) *CompanyHandler {
	return &CompanyHandler{companies: companies, seed: seed}
}

// ListCompanies handles GET /api/companies.
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	companies, err := h.companies.ListCompanies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch companies"})
		return
	}
	if companies == nil {
		companies = []models.Company{}
	}
	c.JSON(http.StatusOK, companies)
}

// InitCompanies handles POST /api/companies/init: it seeds the starter
// companies when the table is empty and returns the resulting list.
func (h *CompanyHandler) InitCompanies(c *gin.Context) {
	if h.seed != nil {
		if err := h.seed(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to seed companies"})
			return
		}
	}

	companies, err := h.companies.ListCompanies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch companies"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Companies initialized",
		"companies": companies,
	})
}

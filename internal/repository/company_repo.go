package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LokalDeals/lokaldeals_api/internal/lifecycle"
	"github.com/LokalDeals/lokaldeals_api/internal/models"
)

// CompanyRepository provides data access methods for the companies table.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository creates a new CompanyRepository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

const companyColumns = `id, slug, owner_user_id, email, name, description, category, phone,
	whatsapp, website, facebook, instagram, tiktok, linkedin, location,
	logo_url, banner_url, status, created_at, updated_at`

// Create inserts a new company. The owning identity record is created first
// through the identity capability; the company insert itself is a single
// atomic row write. A unique-violation on the slug index must be handled by
// the caller by re-running slug allocation.
func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO companies (id, slug, owner_user_id, email, name, description, category, phone,
		        whatsapp, website, facebook, instagram, tiktok, linkedin, location,
		        logo_url, banner_url, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 RETURNING created_at, updated_at`,
		company.ID, company.Slug, company.OwnerUserID, company.Email, company.Name,
		company.Description, company.Category, company.Phone,
		company.Whatsapp, company.Website, company.Facebook, company.Instagram,
		company.Tiktok, company.Linkedin, company.Location,
		company.LogoURL, company.BannerURL, company.Status,
	).Scan(&company.CreatedAt, &company.UpdatedAt)
}

// GetByID finds a company by id.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	var c models.Company
	err := r.db.GetContext(ctx, &c,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByOwnerUserID finds the company owned by a user.
func (r *CompanyRepository) GetByOwnerUserID(ctx context.Context, userID string) (*models.Company, error) {
	var c models.Company
	err := r.db.GetContext(ctx, &c,
		`SELECT `+companyColumns+` FROM companies WHERE owner_user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetBySlug finds a company by slug.
func (r *CompanyRepository) GetBySlug(ctx context.Context, slug string) (*models.Company, error) {
	var c models.Company
	err := r.db.GetContext(ctx, &c,
		`SELECT `+companyColumns+` FROM companies WHERE slug = $1`, slug)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SlugExists reports whether a company slug is already taken.
func (r *CompanyRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM companies WHERE slug = $1)`, slug)
	return exists, err
}

// EmailExists reports whether a company is already registered under email.
func (r *CompanyRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM companies WHERE email = $1)`, email)
	return exists, err
}

// Update persists mutable profile fields. Slug, email, owner, and status are
// deliberately excluded; status moves only through UpdateStatus.
func (r *CompanyRepository) Update(ctx context.Context, c *models.Company) error {
	return r.db.QueryRowxContext(ctx,
		`UPDATE companies
		 SET name = $1, description = $2, category = $3, phone = $4,
		     whatsapp = $5, website = $6, facebook = $7, instagram = $8,
		     tiktok = $9, linkedin = $10, location = $11,
		     logo_url = $12, banner_url = $13, updated_at = NOW()
		 WHERE id = $14
		 RETURNING updated_at`,
		c.Name, c.Description, c.Category, c.Phone,
		c.Whatsapp, c.Website, c.Facebook, c.Instagram,
		c.Tiktok, c.Linkedin, c.Location,
		c.LogoURL, c.BannerURL, c.ID,
	).Scan(&c.UpdatedAt)
}

// UpdateStatus sets the stored lifecycle status.
func (r *CompanyRepository) UpdateStatus(ctx context.Context, id string, status lifecycle.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE companies SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("company %s not found", id)
	}
	return nil
}

// Delete removes a company; its offers go with it via ON DELETE CASCADE.
func (r *CompanyRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, id)
	return err
}

// ListPublic returns ACTIVE companies matching an optional case-insensitive
// substring query on name/description and an optional category, newest first.
func (r *CompanyRepository) ListPublic(ctx context.Context, query, category string) ([]*models.Company, error) {
	sql := `SELECT ` + companyColumns + ` FROM companies WHERE status = $1`
	args := []interface{}{lifecycle.StatusActive}

	if query != "" {
		args = append(args, "%"+query+"%")
		sql += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}
	if category != "" {
		args = append(args, category)
		sql += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	sql += ` ORDER BY created_at DESC`

	var companies []*models.Company
	if err := r.db.SelectContext(ctx, &companies, sql, args...); err != nil {
		return nil, err
	}
	return companies, nil
}

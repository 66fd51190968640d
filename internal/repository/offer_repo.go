package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LokalDeals/lokaldeals_api/internal/lifecycle"
	"github.com/LokalDeals/lokaldeals_api/internal/models"
)

// OfferRepository provides data access methods for the offers table.
type OfferRepository struct {
	db *sqlx.DB
}

// NewOfferRepository creates a new OfferRepository.
func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerColumns = `id, slug, company_id, title, description, terms, category, cover_image,
	start_date, end_date, cta_button_text, cta_button_link, cta_email,
	original_price, discount_percent, final_price, status, featured,
	created_at, updated_at`

// Create inserts a new offer. A unique-violation on the slug index must be
// handled by the caller by re-running slug allocation.
func (r *OfferRepository) Create(ctx context.Context, o *models.Offer) error {
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO offers (id, slug, company_id, title, description, terms, category, cover_image,
		        start_date, end_date, cta_button_text, cta_button_link, cta_email,
		        original_price, discount_percent, final_price, status, featured)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 RETURNING created_at, updated_at`,
		o.ID, o.Slug, o.CompanyID, o.Title, o.Description, o.Terms, o.Category, o.CoverImage,
		o.StartDate, o.EndDate, o.CTAButtonText, o.CTAButtonLink, o.CTAEmail,
		o.OriginalPrice, o.DiscountPercent, o.FinalPrice, o.Status, o.Featured,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
}

// GetByID finds an offer by id.
func (r *OfferRepository) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	var o models.Offer
	err := r.db.GetContext(ctx, &o,
		`SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetBySlug finds an offer by slug.
func (r *OfferRepository) GetBySlug(ctx context.Context, slug string) (*models.Offer, error) {
	var o models.Offer
	err := r.db.GetContext(ctx, &o,
		`SELECT `+offerColumns+` FROM offers WHERE slug = $1`, slug)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// SlugExists reports whether an offer slug is already taken.
func (r *OfferRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM offers WHERE slug = $1)`, slug)
	return exists, err
}

// Update persists owner-editable fields. Slug, company, status, and featured
// are deliberately excluded.
func (r *OfferRepository) Update(ctx context.Context, o *models.Offer) error {
	return r.db.QueryRowxContext(ctx,
		`UPDATE offers
		 SET title = $1, description = $2, terms = $3, category = $4, cover_image = $5,
		     start_date = $6, end_date = $7,
		     cta_button_text = $8, cta_button_link = $9, cta_email = $10,
		     original_price = $11, discount_percent = $12, final_price = $13,
		     updated_at = NOW()
		 WHERE id = $14
		 RETURNING updated_at`,
		o.Title, o.Description, o.Terms, o.Category, o.CoverImage,
		o.StartDate, o.EndDate,
		o.CTAButtonText, o.CTAButtonLink, o.CTAEmail,
		o.OriginalPrice, o.DiscountPercent, o.FinalPrice, o.ID,
	).Scan(&o.UpdatedAt)
}

// Delete removes an offer.
func (r *OfferRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM offers WHERE id = $1`, id)
	return err
}

// ListByCompany returns all offers owned by a company, newest first.
func (r *OfferRepository) ListByCompany(ctx context.Context, companyID string) ([]*models.Offer, error) {
	var offers []*models.Offer
	err := r.db.SelectContext(ctx, &offers,
		`SELECT `+offerColumns+` FROM offers WHERE company_id = $1 ORDER BY created_at DESC`,
		companyID)
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// UpdateStatus sets the stored lifecycle status.
func (r *OfferRepository) UpdateStatus(ctx context.Context, id string, status lifecycle.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE offers SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("offer %s not found", id)
	}
	return nil
}

// SetFeatured toggles the moderation-controlled featured flag.
func (r *OfferRepository) SetFeatured(ctx context.Context, id string, featured bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE offers SET featured = $1, updated_at = NOW() WHERE id = $2`,
		featured, id)
	return err
}

// ListPublic returns Live offers (ACTIVE and not yet past end_date) matching
// an optional substring query on title/description, an optional category,
// and optionally only featured ones. Featured offers sort first.
func (r *OfferRepository) ListPublic(ctx context.Context, query, category string, featuredOnly bool) ([]*models.Offer, error) {
	sql := `SELECT ` + offerColumns + ` FROM offers WHERE status = $1 AND end_date >= NOW()`
	args := []interface{}{lifecycle.StatusActive}

	if query != "" {
		args = append(args, "%"+query+"%")
		sql += fmt.Sprintf(` AND (title ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}
	if category != "" {
		args = append(args, category)
		sql += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if featuredOnly {
		sql += ` AND featured = TRUE`
	}
	sql += ` ORDER BY featured DESC, created_at DESC`

	var offers []*models.Offer
	if err := r.db.SelectContext(ctx, &offers, sql, args...); err != nil {
		return nil, err
	}
	return offers, nil
}

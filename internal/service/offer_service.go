package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/LokalDeals/lokaldeals_api/internal/apperr"
	"github.com/LokalDeals/lokaldeals_api/internal/lifecycle"
	"github.com/LokalDeals/lokaldeals_api/internal/models"
	"github.com/LokalDeals/lokaldeals_api/internal/repository"
	"github.com/LokalDeals/lokaldeals_api/internal/slug"
)

// offerStore is the slice of the offer repository the catalog service needs.
type offerStore interface {
	Create(ctx context.Context, o *models.Offer) error
	GetByID(ctx context.Context, id string) (*models.Offer, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, o *models.Offer) error
	Delete(ctx context.Context, id string) error
	ListByCompany(ctx context.Context, companyID string) ([]*models.Offer, error)
}

// listingInvalidator drops cached public listings after a write changes what
// the public can see.
type listingInvalidator interface {
	Invalidate(ctx context.Context, kind string) error
}

// OfferService orchestrates the offer catalog: field validation, pricing,
// slug allocation, ownership and immutability checks.
type OfferService struct {
	offers   offerStore
	listings listingInvalidator
	now      func() time.Time
}

// NewOfferService constructs an OfferService.
func NewOfferService(offers offerStore, listings listingInvalidator) *OfferService {
	return &OfferService{offers: offers, listings: listings, now: time.Now}
}

// OfferRequest carries the owner-supplied offer fields for create and update.
type OfferRequest struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Terms           *string          `json:"terms"`
	Category        string           `json:"category"`
	CoverImage      string           `json:"coverImage"`
	StartDate       time.Time        `json:"startDate"`
	EndDate         time.Time        `json:"endDate"`
	CTAButtonText   *string          `json:"ctaButtonText"`
	CTAButtonLink   *string          `json:"ctaButtonLink"`
	CTAEmail        *string          `json:"ctaEmail"`
	OriginalPrice   *decimal.Decimal `json:"originalPrice"`
	DiscountPercent *decimal.Decimal `json:"discountPercent"`
}

func hasValue(s *string) bool {
	return s != nil && *s != ""
}

// validate collects every violated field. requireFutureStart is enforced at
// creation only; an offer already running may still have its other fields
// edited while Pending.
func (r *OfferRequest) validate(now time.Time, requireFutureStart bool) *apperr.ValidationError {
	verr := apperr.NewValidation()
	if r.Title == "" {
		verr.Add("title", "title is required")
	}
	if r.Description == "" {
		verr.Add("description", "description is required")
	}
	if r.Category == "" {
		verr.Add("category", "category is required")
	} else if !models.IsValidCategory(r.Category) {
		verr.Add("category", "unknown category")
	}
	if r.CoverImage == "" {
		verr.Add("coverImage", "cover image is required")
	}
	switch {
	case r.StartDate.IsZero():
		verr.Add("startDate", "start date is required")
	case requireFutureStart && r.StartDate.Before(startOfDay(now)):
		verr.Add("startDate", "start date cannot be in the past")
	}
	switch {
	case r.EndDate.IsZero():
		verr.Add("endDate", "end date is required")
	case !r.StartDate.IsZero() && !r.EndDate.After(r.StartDate):
		verr.Add("endDate", "end date must be after start date")
	}
	if !hasValue(r.CTAButtonLink) && !hasValue(r.CTAEmail) {
		verr.Add("cta", "provide either a CTA link or an email for inquiries")
	}
	r.validatePricing(verr)
	return verr
}

// validatePricing checks the optional pricing block. With a discount in
// (0,100], finalPrice = originalPrice * (1 - discount/100); with no discount
// the final price equals the original.
func (r *OfferRequest) validatePricing(verr *apperr.ValidationError) {
	if r.OriginalPrice != nil && r.OriginalPrice.IsNegative() {
		verr.Add("originalPrice", "original price cannot be negative")
	}
	if r.DiscountPercent == nil {
		return
	}
	if r.OriginalPrice == nil {
		verr.Add("discountPercent", "discount requires an original price")
		return
	}
	if r.DiscountPercent.IsNegative() || r.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		verr.Add("discountPercent", "discount must be between 0 and 100")
	}
}

// finalPrice derives the final price from the validated pricing fields.
func (r *OfferRequest) finalPrice() *decimal.Decimal {
	if r.OriginalPrice == nil {
		return nil
	}
	if r.DiscountPercent == nil || r.DiscountPercent.IsZero() {
		p := r.OriginalPrice.Round(2)
		return &p
	}
	factor := decimal.NewFromInt(1).Sub(r.DiscountPercent.Div(decimal.NewFromInt(100)))
	p := r.OriginalPrice.Mul(factor).Round(2)
	return &p
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Create validates, prices, allocates a slug, and persists a new Pending
// offer for the company.
func (s *OfferService) Create(ctx context.Context, companyID string, req *OfferRequest) (*models.Offer, error) {
	if verr := req.validate(s.now(), true); verr.HasErrors() {
		return nil, verr
	}

	seed := 1
	for attempt := 0; attempt < slugCreateAttempts; attempt++ {
		allocated, err := slug.AllocateFrom(ctx, req.Title, seed, s.offers.SlugExists)
		if err != nil {
			if errors.Is(err, apperr.ErrInvalidName) {
				verr := apperr.NewValidation()
				verr.Add("title", "title must contain letters or digits")
				return nil, verr
			}
			if errors.Is(err, apperr.ErrSlugExhausted) {
				return nil, &apperr.ConflictError{Resource: "offer", Message: "could not allocate a unique slug"}
			}
			return nil, apperr.Upstream("offer.create", err)
		}

		offer := &models.Offer{
			ID:              uuid.New().String(),
			Slug:            allocated,
			CompanyID:       companyID,
			Title:           req.Title,
			Description:     req.Description,
			Terms:           req.Terms,
			Category:        req.Category,
			CoverImage:      req.CoverImage,
			StartDate:       req.StartDate,
			EndDate:         req.EndDate,
			CTAButtonText:   req.CTAButtonText,
			CTAButtonLink:   req.CTAButtonLink,
			CTAEmail:        req.CTAEmail,
			OriginalPrice:   req.OriginalPrice,
			DiscountPercent: req.DiscountPercent,
			FinalPrice:      req.finalPrice(),
			Status:          lifecycle.StatusPending,
			Featured:        false,
		}

		err = s.offers.Create(ctx, offer)
		if err == nil {
			log.Info().Str("offer_id", offer.ID).Str("slug", offer.Slug).Msg("offer created")
			offer.AttachDisplayStatus(s.now())
			return offer, nil
		}
		if repository.IsUniqueViolation(err, "offers_slug_key") {
			// Lost the slug race; probe again past the taken suffix.
			seed++
			continue
		}
		return nil, apperr.Upstream("offer.create", err)
	}
	return nil, &apperr.ConflictError{Resource: "offer", Message: "could not allocate a unique slug"}
}

// getOwned loads an offer and enforces ownership. The existence of an offer
// under a different owner is reported as Forbidden, never NotFound.
func (s *OfferService) getOwned(ctx context.Context, offerID, requesterCompanyID string) (*models.Offer, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Upstream("offer.get", err)
	}
	if offer.CompanyID != requesterCompanyID {
		return nil, apperr.ErrForbidden
	}
	return offer, nil
}

// Get returns an owned offer with its derived display status attached.
func (s *OfferService) Get(ctx context.Context, offerID, requesterCompanyID string) (*models.Offer, error) {
	offer, err := s.getOwned(ctx, offerID, requesterCompanyID)
	if err != nil {
		return nil, err
	}
	offer.AttachDisplayStatus(s.now())
	return offer, nil
}

// List returns all offers owned by the company, newest first, each with its
// derived display status.
func (s *OfferService) List(ctx context.Context, companyID string) ([]*models.Offer, error) {
	offers, err := s.offers.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, apperr.Upstream("offer.list", err)
	}
	now := s.now()
	for _, o := range offers {
		o.AttachDisplayStatus(now)
	}
	return offers, nil
}

// Update re-validates and persists owner edits. Only Pending offers are
// editable; the slug is never recomputed even when the title changes.
func (s *OfferService) Update(ctx context.Context, offerID, requesterCompanyID string, req *OfferRequest) (*models.Offer, error) {
	offer, err := s.getOwned(ctx, offerID, requesterCompanyID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanEdit(offer.Status) {
		return nil, apperr.ErrImmutableState
	}

	if verr := req.validate(s.now(), false); verr.HasErrors() {
		return nil, verr
	}

	offer.Title = req.Title
	offer.Description = req.Description
	offer.Terms = req.Terms
	offer.Category = req.Category
	offer.CoverImage = req.CoverImage
	offer.StartDate = req.StartDate
	offer.EndDate = req.EndDate
	offer.CTAButtonText = req.CTAButtonText
	offer.CTAButtonLink = req.CTAButtonLink
	offer.CTAEmail = req.CTAEmail
	offer.OriginalPrice = req.OriginalPrice
	offer.DiscountPercent = req.DiscountPercent
	offer.FinalPrice = req.finalPrice()

	if err := s.offers.Update(ctx, offer); err != nil {
		return nil, apperr.Upstream("offer.update", err)
	}
	offer.AttachDisplayStatus(s.now())
	return offer, nil
}

// Delete removes an owned offer. Any stored status is deletable.
func (s *OfferService) Delete(ctx context.Context, offerID, requesterCompanyID string) error {
	offer, err := s.getOwned(ctx, offerID, requesterCompanyID)
	if err != nil {
		return err
	}

	if err := s.offers.Delete(ctx, offer.ID); err != nil {
		return apperr.Upstream("offer.delete", err)
	}

	// A deleted Active offer disappears from public listings.
	if s.listings != nil && offer.Status == lifecycle.StatusActive {
		if err := s.listings.Invalidate(ctx, "offers"); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate offer listings after delete")
		}
	}
	return nil
}

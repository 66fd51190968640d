package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/LokalDeals/lokaldeals_api/internal/apperr"
	"github.com/LokalDeals/lokaldeals_api/internal/lifecycle"
	"github.com/LokalDeals/lokaldeals_api/internal/models"
)

// moderationCompanyStore is the slice of the company repository moderation needs.
type moderationCompanyStore interface {
	GetByID(ctx context.Context, id string) (*models.Company, error)
	UpdateStatus(ctx context.Context, id string, status lifecycle.Status) error
}

// moderationOfferStore is the slice of the offer repository moderation needs.
type moderationOfferStore interface {
	GetByID(ctx context.Context, id string) (*models.Offer, error)
	UpdateStatus(ctx context.Context, id string, status lifecycle.Status) error
	SetFeatured(ctx context.Context, id string, featured bool) error
}

// ModerationService is the approval workflow. Every operation here requires
// the admin role, enforced by middleware; entity owners have no path to any
// of these transitions.
type ModerationService struct {
	companies moderationCompanyStore
	offers    moderationOfferStore
	listings  listingInvalidator
}

// NewModerationService constructs a ModerationService.
func NewModerationService(companies moderationCompanyStore, offers moderationOfferStore, listings listingInvalidator) *ModerationService {
	return &ModerationService{companies: companies, offers: offers, listings: listings}
}

// transitionCompany applies a lifecycle event to a company's stored status.
func (s *ModerationService) transitionCompany(ctx context.Context, id string, event lifecycle.Event) (*models.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Upstream("moderation.company", err)
	}

	if event == lifecycle.EventApprove {
		if missing := company.ApprovalMissingFields(); len(missing) > 0 {
			verr := apperr.NewValidation()
			for _, field := range missing {
				verr.Add(field, "required before the company can be approved")
			}
			return nil, verr
		}
	}

	next, err := lifecycle.Apply(ctx, company.Status, event)
	if err != nil {
		var terr *lifecycle.TransitionError
		if errors.As(err, &terr) {
			return nil, fmt.Errorf("%w: %s", apperr.ErrImmutableState, terr.Error())
		}
		return nil, apperr.Upstream("moderation.company", err)
	}

	if err := s.companies.UpdateStatus(ctx, company.ID, next); err != nil {
		return nil, apperr.Upstream("moderation.company", err)
	}
	company.Status = next

	s.invalidate(ctx, "companies")
	log.Info().
		Str("company_id", company.ID).
		Str("event", string(event)).
		Str("status", string(next)).
		Msg("company moderated")
	return company, nil
}

// transitionOffer applies a lifecycle event to an offer's stored status.
func (s *ModerationService) transitionOffer(ctx context.Context, id string, event lifecycle.Event) (*models.Offer, error) {
	offer, err := s.offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Upstream("moderation.offer", err)
	}

	next, err := lifecycle.Apply(ctx, offer.Status, event)
	if err != nil {
		var terr *lifecycle.TransitionError
		if errors.As(err, &terr) {
			return nil, fmt.Errorf("%w: %s", apperr.ErrImmutableState, terr.Error())
		}
		return nil, apperr.Upstream("moderation.offer", err)
	}

	if err := s.offers.UpdateStatus(ctx, offer.ID, next); err != nil {
		return nil, apperr.Upstream("moderation.offer", err)
	}
	offer.Status = next

	s.invalidate(ctx, "offers")
	log.Info().
		Str("offer_id", offer.ID).
		Str("event", string(event)).
		Str("status", string(next)).
		Msg("offer moderated")
	return offer, nil
}

// ApproveCompany moves a Pending company to Active. All required profile
// fields must be populated first.
func (s *ModerationService) ApproveCompany(ctx context.Context, id string) (*models.Company, error) {
	return s.transitionCompany(ctx, id, lifecycle.EventApprove)
}

// DisableCompany moves a Pending or Active company to Disabled.
func (s *ModerationService) DisableCompany(ctx context.Context, id string) (*models.Company, error) {
	return s.transitionCompany(ctx, id, lifecycle.EventDisable)
}

// ReactivateCompany is the admin-only path out of Disabled.
func (s *ModerationService) ReactivateCompany(ctx context.Context, id string) (*models.Company, error) {
	return s.transitionCompany(ctx, id, lifecycle.EventReactivate)
}

// ApproveOffer moves a Pending offer to Active. Offers are auto-submitted at
// creation, so there is no precondition beyond creation-time validation.
func (s *ModerationService) ApproveOffer(ctx context.Context, id string) (*models.Offer, error) {
	return s.transitionOffer(ctx, id, lifecycle.EventApprove)
}

// DisableOffer moves a Pending or Active offer to Disabled.
func (s *ModerationService) DisableOffer(ctx context.Context, id string) (*models.Offer, error) {
	return s.transitionOffer(ctx, id, lifecycle.EventDisable)
}

// ReactivateOffer is the admin-only path out of Disabled.
func (s *ModerationService) ReactivateOffer(ctx context.Context, id string) (*models.Offer, error) {
	return s.transitionOffer(ctx, id, lifecycle.EventReactivate)
}

// SetOfferFeatured toggles the moderation-controlled featured flag.
func (s *ModerationService) SetOfferFeatured(ctx context.Context, id string, featured bool) (*models.Offer, error) {
	offer, err := s.offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Upstream("moderation.offer", err)
	}

	if err := s.offers.SetFeatured(ctx, offer.ID, featured); err != nil {
		return nil, apperr.Upstream("moderation.offer", err)
	}
	offer.Featured = featured

	s.invalidate(ctx, "offers")
	return offer, nil
}

func (s *ModerationService) invalidate(ctx context.Context, kind string) {
	if s.listings == nil {
		return
	}
	if err := s.listings.Invalidate(ctx, kind); err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("failed to invalidate public listings")
	}
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/LokalDeals/lokaldeals_api/internal/apperr"
	"github.com/LokalDeals/lokaldeals_api/internal/lifecycle"
	"github.com/LokalDeals/lokaldeals_api/internal/models"
)

// publicCompanyStore is the read-only company access the directory needs.
type publicCompanyStore interface {
	ListPublic(ctx context.Context, query, category string) ([]*models.Company, error)
	GetBySlug(ctx context.Context, slug string) (*models.Company, error)
}

// publicOfferStore is the read-only offer access the directory needs.
type publicOfferStore interface {
	ListPublic(ctx context.Context, query, category string, featuredOnly bool) ([]*models.Offer, error)
	GetBySlug(ctx context.Context, slug string) (*models.Offer, error)
}

// listingCache caches rendered listings keyed by kind and query.
type listingCache interface {
	Get(ctx context.Context, kind, query string, dest any) (bool, error)
	Set(ctx context.Context, kind, query string, value any) error
}

// DirectoryService serves the public, read-only side: browse and substring
// search over approved companies and live offers. Listings go through a
// short-TTL Redis cache; cache failures degrade to a direct read.
type DirectoryService struct {
	companies publicCompanyStore
	offers    publicOfferStore
	cache     listingCache
	now       func() time.Time
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(companies publicCompanyStore, offers publicOfferStore, cache listingCache) *DirectoryService {
	return &DirectoryService{companies: companies, offers: offers, cache: cache, now: time.Now}
}

// ListCompanies returns ACTIVE companies matching the optional substring
// query and category.
func (s *DirectoryService) ListCompanies(ctx context.Context, query, category string) ([]*models.Company, error) {
	cacheKey := fmt.Sprintf("%s|%s", query, category)

	if s.cache != nil {
		var cached []*models.Company
		hit, err := s.cache.Get(ctx, "companies", cacheKey, &cached)
		if err != nil {
			log.Warn().Err(err).Msg("company listing cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	companies, err := s.companies.ListPublic(ctx, query, category)
	if err != nil {
		return nil, apperr.Upstream("directory.companies", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, "companies", cacheKey, companies); err != nil {
			log.Warn().Err(err).Msg("company listing cache write failed")
		}
	}
	return companies, nil
}

// GetCompany returns an ACTIVE company by slug. Pending and Disabled
// companies are invisible to the public.
func (s *DirectoryService) GetCompany(ctx context.Context, slugValue string) (*models.Company, error) {
	company, err := s.companies.GetBySlug(ctx, slugValue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Upstream("directory.company", err)
	}
	if company.Status != lifecycle.StatusActive {
		return nil, apperr.ErrNotFound
	}
	return company, nil
}

// ListOffers returns Live offers matching the optional substring query and
// category, featured first.
func (s *DirectoryService) ListOffers(ctx context.Context, query, category string, featuredOnly bool) ([]*models.Offer, error) {
	cacheKey := fmt.Sprintf("%s|%s|%t", query, category, featuredOnly)

	if s.cache != nil {
		var cached []*models.Offer
		hit, err := s.cache.Get(ctx, "offers", cacheKey, &cached)
		if err != nil {
			log.Warn().Err(err).Msg("offer listing cache read failed")
		} else if hit {
			for _, o := range cached {
				o.AttachDisplayStatus(s.now())
			}
			return cached, nil
		}
	}

	offers, err := s.offers.ListPublic(ctx, query, category, featuredOnly)
	if err != nil {
		return nil, apperr.Upstream("directory.offers", err)
	}
	now := s.now()
	for _, o := range offers {
		o.AttachDisplayStatus(now)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, "offers", cacheKey, offers); err != nil {
			log.Warn().Err(err).Msg("offer listing cache write failed")
		}
	}
	return offers, nil
}

// GetOffer returns an approved offer by slug with its display status, which
// may read Expired once the end date has passed. Pending and Disabled offers
// are invisible to the public.
func (s *DirectoryService) GetOffer(ctx context.Context, slugValue string) (*models.Offer, error) {
	offer, err := s.offers.GetBySlug(ctx, slugValue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Upstream("directory.offer", err)
	}
	if offer.Status != lifecycle.StatusActive {
		return nil, apperr.ErrNotFound
	}
	offer.AttachDisplayStatus(s.now())
	return offer, nil
}

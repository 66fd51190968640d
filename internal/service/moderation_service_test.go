package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LokalDeals/lokaldeals_api/internal/apperr"
	"github.com/LokalDeals/lokaldeals_api/internal/lifecycle"
	"github.com/LokalDeals/lokaldeals_api/internal/models"
)

// --- Mocks ---

type mockModerationCompanies struct {
	companies map[string]*models.Company
}

func (m *mockModerationCompanies) GetByID(_ context.Context, id string) (*models.Company, error) {
	c, ok := m.companies[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *mockModerationCompanies) UpdateStatus(_ context.Context, id string, status lifecycle.Status) error {
	m.companies[id].Status = status
	return nil
}

type mockModerationOffers struct {
	offers map[string]*models.Offer
}

func (m *mockModerationOffers) GetByID(_ context.Context, id string) (*models.Offer, error) {
	o, ok := m.offers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (m *mockModerationOffers) UpdateStatus(_ context.Context, id string, status lifecycle.Status) error {
	m.offers[id].Status = status
	return nil
}

func (m *mockModerationOffers) SetFeatured(_ context.Context, id string, featured bool) error {
	m.offers[id].Featured = featured
	return nil
}

// --- Helpers ---

func completeCompany(status lifecycle.Status) *models.Company {
	return &models.Company{
		ID:          "comp-1",
		Slug:        "kopi-kita",
		Name:        "Kopi Kita",
		Description: "Neighborhood coffee roastery",
		Category:    "Food & Dining",
		Phone:       "+62 812 0000 1111",
		Location:    "Bandung",
		LogoURL:     "https://cdn.example.com/kopi-kita.png",
		Status:      status,
	}
}

func pendingOffer() *models.Offer {
	return &models.Offer{
		ID:        "offer-1",
		Slug:      "weekend-brunch-special",
		CompanyID: "comp-1",
		Title:     "Weekend Brunch Special",
		EndDate:   time.Now().Add(7 * 24 * time.Hour),
		Status:    lifecycle.StatusPending,
	}
}

func newModerationFixture(company *models.Company, offer *models.Offer) (*ModerationService, *mockModerationCompanies, *mockModerationOffers, *mockInvalidator) {
	companies := &mockModerationCompanies{companies: map[string]*models.Company{}}
	if company != nil {
		companies.companies[company.ID] = company
	}
	offers := &mockModerationOffers{offers: map[string]*models.Offer{}}
	if offer != nil {
		offers.offers[offer.ID] = offer
	}
	inv := &mockInvalidator{}
	return NewModerationService(companies, offers, inv), companies, offers, inv
}

// --- Companies ---

func TestApproveCompany(t *testing.T) {
	svc, companies, _, inv := newModerationFixture(completeCompany(lifecycle.StatusPending), nil)

	company, err := svc.ApproveCompany(context.Background(), "comp-1")
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusActive, company.Status)
	assert.Equal(t, lifecycle.StatusActive, companies.companies["comp-1"].Status)
	assert.Equal(t, []string{"companies"}, inv.kinds)
}

func TestApproveCompanyMissingFields(t *testing.T) {
	incomplete := completeCompany(lifecycle.StatusPending)
	incomplete.LogoURL = ""
	incomplete.Phone = ""
	svc, companies, _, _ := newModerationFixture(incomplete, nil)

	_, err := svc.ApproveCompany(context.Background(), "comp-1")

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "logoUrl")
	assert.Contains(t, verr.Fields, "phone")
	assert.Equal(t, lifecycle.StatusPending, companies.companies["comp-1"].Status)
}

func TestDisableActiveCompany(t *testing.T) {
	svc, _, _, _ := newModerationFixture(completeCompany(lifecycle.StatusActive), nil)

	company, err := svc.DisableCompany(context.Background(), "comp-1")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusDisabled, company.Status)
}

func TestReactivateDisabledCompany(t *testing.T) {
	svc, _, _, _ := newModerationFixture(completeCompany(lifecycle.StatusDisabled), nil)

	company, err := svc.ReactivateCompany(context.Background(), "comp-1")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusActive, company.Status)
}

func TestApproveActiveCompanyIsIllegal(t *testing.T) {
	svc, _, _, inv := newModerationFixture(completeCompany(lifecycle.StatusActive), nil)

	_, err := svc.ApproveCompany(context.Background(), "comp-1")
	assert.ErrorIs(t, err, apperr.ErrImmutableState)
	assert.Empty(t, inv.kinds)
}

func TestApproveUnknownCompany(t *testing.T) {
	svc, _, _, _ := newModerationFixture(nil, nil)

	_, err := svc.ApproveCompany(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// --- Offers ---

func TestApproveOffer(t *testing.T) {
	svc, _, offers, inv := newModerationFixture(nil, pendingOffer())

	offer, err := svc.ApproveOffer(context.Background(), "offer-1")
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusActive, offer.Status)
	assert.Equal(t, lifecycle.StatusActive, offers.offers["offer-1"].Status)
	assert.Equal(t, []string{"offers"}, inv.kinds)
}

func TestReactivatePendingOfferIsIllegal(t *testing.T) {
	svc, _, _, _ := newModerationFixture(nil, pendingOffer())

	_, err := svc.ReactivateOffer(context.Background(), "offer-1")
	assert.ErrorIs(t, err, apperr.ErrImmutableState)
}

func TestSetOfferFeatured(t *testing.T) {
	svc, _, offers, inv := newModerationFixture(nil, pendingOffer())

	offer, err := svc.SetOfferFeatured(context.Background(), "offer-1", true)
	require.NoError(t, err)
	assert.True(t, offer.Featured)
	assert.True(t, offers.offers["offer-1"].Featured)
	assert.Equal(t, []string{"offers"}, inv.kinds)

	offer, err = svc.SetOfferFeatured(context.Background(), "offer-1", false)
	require.NoError(t, err)
	assert.False(t, offer.Featured)
}

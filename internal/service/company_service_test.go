package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LokalDeals/lokaldeals_api/internal/apperr"
	"github.com/LokalDeals/lokaldeals_api/internal/lifecycle"
	"github.com/LokalDeals/lokaldeals_api/internal/models"
)

// --- Mocks ---

type mockCompanyStore struct {
	byID      map[string]*models.Company
	byOwner   map[string]*models.Company
	slugs     map[string]bool
	emails    map[string]bool
	createErr error
}

func newMockCompanyStore() *mockCompanyStore {
	return &mockCompanyStore{
		byID:    make(map[string]*models.Company),
		byOwner: make(map[string]*models.Company),
		slugs:   make(map[string]bool),
		emails:  make(map[string]bool),
	}
}

func (m *mockCompanyStore) Create(_ context.Context, c *models.Company) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *c
	m.byID[c.ID] = &cp
	m.byOwner[c.OwnerUserID] = &cp
	m.slugs[c.Slug] = true
	m.emails[c.Email] = true
	return nil
}

func (m *mockCompanyStore) GetByOwnerUserID(_ context.Context, userID string) (*models.Company, error) {
	c, ok := m.byOwner[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *mockCompanyStore) SlugExists(_ context.Context, slug string) (bool, error) {
	return m.slugs[slug], nil
}

func (m *mockCompanyStore) EmailExists(_ context.Context, email string) (bool, error) {
	return m.emails[email], nil
}

func (m *mockCompanyStore) Update(_ context.Context, c *models.Company) error {
	cp := *c
	m.byID[c.ID] = &cp
	m.byOwner[c.OwnerUserID] = &cp
	return nil
}

type mockIdentity struct {
	signUpErr error
	revoked   []string
}

func (m *mockIdentity) SignUp(_ context.Context, email, _, name, role string) (*models.User, error) {
	if m.signUpErr != nil {
		return nil, m.signUpErr
	}
	return &models.User{ID: uuid.New().String(), Email: email, Name: name, Role: role}, nil
}

func (m *mockIdentity) Revoke(_ context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

// --- Helpers ---

func validRegisterRequest() *RegisterRequest {
	return &RegisterRequest{
		Name:        "Budi Santoso",
		Email:       "budi@kopikita.id",
		Password:    "s3cret-pass",
		CompanyName: "Kopi Kita",
		Category:    "Food & Dining",
		Phone:       "+62 812 0000 1111",
		Location:    "Bandung",
		Description: "Neighborhood coffee roastery",
		LogoURL:     "https://cdn.example.com/kopi-kita.png",
	}
}

// --- Register ---

func TestRegister(t *testing.T) {
	store := newMockCompanyStore()
	identity := &mockIdentity{}
	svc := NewCompanyService(store, identity, nil)

	result, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	company := store.byID[result.CompanyID]
	require.NotNil(t, company)
	assert.Equal(t, "kopi-kita", company.Slug)
	assert.Equal(t, lifecycle.StatusPending, company.Status)
	assert.Equal(t, result.UserID, company.OwnerUserID)
	assert.Empty(t, identity.revoked)
}

func TestRegisterCollectsAllViolations(t *testing.T) {
	store := newMockCompanyStore()
	svc := NewCompanyService(store, &mockIdentity{}, nil)

	_, err := svc.Register(context.Background(), &RegisterRequest{Password: "short"})

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"name", "email", "password", "companyName", "category", "phone", "location", "description", "logoUrl"} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMockCompanyStore()
	store.emails["budi@kopikita.id"] = true
	svc := NewCompanyService(store, &mockIdentity{}, nil)

	_, err := svc.Register(context.Background(), validRegisterRequest())

	var cerr *apperr.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "company", cerr.Resource)
}

func TestRegisterSlugSuffixOnCollision(t *testing.T) {
	store := newMockCompanyStore()
	store.slugs["kopi-kita"] = true
	svc := NewCompanyService(store, &mockIdentity{}, nil)

	result, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	assert.Equal(t, "kopi-kita-1", store.byID[result.CompanyID].Slug)
}

func TestRegisterUnsluggableCompanyName(t *testing.T) {
	store := newMockCompanyStore()
	identity := &mockIdentity{}
	svc := NewCompanyService(store, identity, nil)

	req := validRegisterRequest()
	req.CompanyName = "!!!"
	_, err := svc.Register(context.Background(), req)

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "companyName")
	// The identity was created before slugging failed and must be revoked.
	assert.Len(t, identity.revoked, 1)
}

func TestRegisterRevokesIdentityOnPersistFailure(t *testing.T) {
	store := newMockCompanyStore()
	store.createErr = errors.New("disk on fire")
	identity := &mockIdentity{}
	svc := NewCompanyService(store, identity, nil)

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.Error(t, err)
	assert.Len(t, identity.revoked, 1)
}

func TestRegisterIdentityFailureStopsRegistration(t *testing.T) {
	store := newMockCompanyStore()
	identity := &mockIdentity{signUpErr: &apperr.AuthError{Message: "user with this email already exists"}}
	svc := NewCompanyService(store, identity, nil)

	_, err := svc.Register(context.Background(), validRegisterRequest())

	var aerr *apperr.AuthError
	require.ErrorAs(t, err, &aerr)
	assert.Empty(t, store.byID)
}

// --- Profile ---

func TestGetProfileNotFound(t *testing.T) {
	svc := NewCompanyService(newMockCompanyStore(), &mockIdentity{}, nil)

	_, err := svc.GetProfile(context.Background(), "nobody")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	store := newMockCompanyStore()
	svc := NewCompanyService(store, &mockIdentity{}, nil)

	result, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	userID := result.UserID

	updated, err := svc.UpdateProfile(context.Background(), userID, &UpdateProfileRequest{
		Name:        "Kopi Kita Roastery",
		Description: "Coffee roastery and cafe",
		Category:    "Food & Dining",
		Phone:       "+62 812 2222 3333",
		Location:    "Bandung",
	})
	require.NoError(t, err)

	assert.Equal(t, "Kopi Kita Roastery", updated.Name)
	// Renames never touch the slug or the email.
	assert.Equal(t, "kopi-kita", updated.Slug)
	assert.Equal(t, "budi@kopikita.id", updated.Email)
}

func TestUpdateProfileInvalidatesListingsWhenActive(t *testing.T) {
	store := newMockCompanyStore()
	inv := &mockInvalidator{}
	svc := NewCompanyService(store, &mockIdentity{}, inv)

	result, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	req := &UpdateProfileRequest{
		Name:        "Kopi Kita Roastery",
		Description: "Coffee roastery and cafe",
		Category:    "Food & Dining",
		Phone:       "+62 812 2222 3333",
		Location:    "Bandung",
	}

	// Pending edits are invisible to the public; no invalidation.
	_, err = svc.UpdateProfile(context.Background(), result.UserID, req)
	require.NoError(t, err)
	assert.Empty(t, inv.kinds)

	store.byOwner[result.UserID].Status = lifecycle.StatusActive
	_, err = svc.UpdateProfile(context.Background(), result.UserID, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"companies"}, inv.kinds)
}

func TestUpdateProfileValidation(t *testing.T) {
	store := newMockCompanyStore()
	svc := NewCompanyService(store, &mockIdentity{}, nil)

	result, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	_, err = svc.UpdateProfile(context.Background(), result.UserID, &UpdateProfileRequest{
		Category: "Underwater Basket Weaving",
	})

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"name", "description", "category", "phone", "location"} {
		assert.Contains(t, verr.Fields, field)
	}
}

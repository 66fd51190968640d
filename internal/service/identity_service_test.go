package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/LokalDeals/lokaldeals_api/internal/apperr"
	"github.com/LokalDeals/lokaldeals_api/internal/models"
	"github.com/LokalDeals/lokaldeals_api/internal/utils"
)

// --- Mocks ---

type mockUserStore struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (m *mockUserStore) Create(_ context.Context, u *models.User) error {
	cp := *u
	m.byID[u.ID] = &cp
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *mockUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.byID[id].PasswordHash = passwordHash
	m.byEmail[m.byID[id].Email].PasswordHash = passwordHash
	return nil
}

func (m *mockUserStore) Delete(_ context.Context, id string) error {
	if u, ok := m.byID[id]; ok {
		delete(m.byEmail, u.Email)
		delete(m.byID, id)
	}
	return nil
}

type mockSessionRevoker struct {
	revoked map[string]time.Duration
}

func (m *mockSessionRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if m.revoked == nil {
		m.revoked = make(map[string]time.Duration)
	}
	m.revoked[tokenID] = ttl
	return nil
}

// --- Tests ---

func TestSignUpAndSignIn(t *testing.T) {
	utils.InitJWT("test-secret")
	store := newMockUserStore()
	svc := NewIdentityService(store, &mockSessionRevoker{})

	user, err := svc.SignUp(context.Background(), "budi@kopikita.id", "s3cret-pass", "Budi", models.RoleCompany)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCompany, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	token, signedIn, err := svc.SignIn(context.Background(), "budi@kopikita.id", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, signedIn.ID)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	store := newMockUserStore()
	svc := NewIdentityService(store, &mockSessionRevoker{})

	_, err := svc.SignUp(context.Background(), "budi@kopikita.id", "s3cret-pass", "Budi", models.RoleCompany)
	require.NoError(t, err)

	_, err = svc.SignUp(context.Background(), "budi@kopikita.id", "other-pass", "Budi Again", models.RoleCompany)
	var aerr *apperr.AuthError
	require.ErrorAs(t, err, &aerr)
}

func TestSignInBadCredentialsAreIndistinguishable(t *testing.T) {
	store := newMockUserStore()
	svc := NewIdentityService(store, &mockSessionRevoker{})

	_, err := svc.SignUp(context.Background(), "budi@kopikita.id", "s3cret-pass", "Budi", models.RoleCompany)
	require.NoError(t, err)

	_, _, unknownErr := svc.SignIn(context.Background(), "nobody@example.com", "whatever")
	_, _, wrongPassErr := svc.SignIn(context.Background(), "budi@kopikita.id", "wrong")

	var a, b *apperr.AuthError
	require.ErrorAs(t, unknownErr, &a)
	require.ErrorAs(t, wrongPassErr, &b)
	assert.Equal(t, a.Message, b.Message)
}

func TestUpdatePassword(t *testing.T) {
	store := newMockUserStore()
	svc := NewIdentityService(store, &mockSessionRevoker{})

	user, err := svc.SignUp(context.Background(), "budi@kopikita.id", "s3cret-pass", "Budi", models.RoleCompany)
	require.NoError(t, err)

	err = svc.UpdatePassword(context.Background(), user.ID, "wrong-current", "new-pass-123")
	var aerr *apperr.AuthError
	require.ErrorAs(t, err, &aerr)

	require.NoError(t, svc.UpdatePassword(context.Background(), user.ID, "s3cret-pass", "new-pass-123"))
	hash := store.byID[user.ID].PasswordHash
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-pass-123")))
}

func TestSignOutRevokesToken(t *testing.T) {
	utils.InitJWT("test-secret")
	store := newMockUserStore()
	revoker := &mockSessionRevoker{}
	svc := NewIdentityService(store, revoker)

	_, err := svc.SignUp(context.Background(), "budi@kopikita.id", "s3cret-pass", "Budi", models.RoleCompany)
	require.NoError(t, err)

	token, _, err := svc.SignIn(context.Background(), "budi@kopikita.id", "s3cret-pass")
	require.NoError(t, err)
	claims, err := utils.ValidateJWT(token)
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(context.Background(), claims))
	ttl, ok := revoker.revoked[claims.ID]
	require.True(t, ok)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRevokeDeletesIdentity(t *testing.T) {
	store := newMockUserStore()
	svc := NewIdentityService(store, &mockSessionRevoker{})

	user, err := svc.SignUp(context.Background(), "budi@kopikita.id", "s3cret-pass", "Budi", models.RoleCompany)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), user.ID))
	_, err = svc.GetCurrentUser(context.Background(), user.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

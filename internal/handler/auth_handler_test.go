package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/LokalDeals/lokaldeals_api/internal/middleware"
	"github.com/LokalDeals/lokaldeals_api/internal/models"
	"github.com/LokalDeals/lokaldeals_api/internal/service"
	"github.com/LokalDeals/lokaldeals_api/internal/utils"
)

type fixedUserStore struct {
	user *models.User
}

func (s *fixedUserStore) Create(_ context.Context, _ *models.User) error { return nil }

func (s *fixedUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *fixedUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *fixedUserStore) UpdatePassword(_ context.Context, _, _ string) error { return nil }

func (s *fixedUserStore) Delete(_ context.Context, _ string) error { return nil }

func newLoginRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitJWT("test-secret")

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	store := &fixedUserStore{user: &models.User{
		ID:           "user-1",
		Email:        "budi@kopikita.id",
		PasswordHash: string(hash),
		Role:         models.RoleCompany,
	}}

	identitySvc := service.NewIdentityService(store, nil)
	h := NewAuthHandler(identitySvc, nil, middleware.NewInvalidAuthRateLimiter())

	router := gin.New()
	router.POST("/v1/auth/login", h.Login)
	return router
}

func postLogin(router *gin.Engine, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "1.2.3.4:5678"
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginSuccessesAreNotRateLimited(t *testing.T) {
	router := newLoginRouter(t)

	for i := 0; i < 10; i++ {
		rec := postLogin(router, `{"email":"budi@kopikita.id","password":"s3cret-pass"}`)
		assert.Equal(t, 200, rec.Code, "login %d", i+1)
	}
}

func TestLoginFailuresAreRateLimited(t *testing.T) {
	router := newLoginRouter(t)

	for i := 0; i < 5; i++ {
		rec := postLogin(router, `{"email":"budi@kopikita.id","password":"wrong"}`)
		assert.Equal(t, 401, rec.Code, "attempt %d", i+1)
	}

	rec := postLogin(router, `{"email":"budi@kopikita.id","password":"wrong"}`)
	assert.Equal(t, 429, rec.Code)
}

func TestLoginSucceedsAfterSomeFailures(t *testing.T) {
	router := newLoginRouter(t)

	for i := 0; i < 3; i++ {
		rec := postLogin(router, `{"email":"budi@kopikita.id","password":"wrong"}`)
		assert.Equal(t, 401, rec.Code)
	}

	rec := postLogin(router, `{"email":"budi@kopikita.id","password":"s3cret-pass"}`)
	assert.Equal(t, 200, rec.Code)
}

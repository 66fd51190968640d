package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/LokalDeals/lokaldeals_api/internal/apperr"
	"github.com/LokalDeals/lokaldeals_api/internal/models"
	"github.com/LokalDeals/lokaldeals_api/internal/repository"
	"github.com/LokalDeals/lokaldeals_api/internal/utils"
)

// userStore is the slice of the user repository the identity service needs.
type userStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// sessionRevoker abstracts the signout denylist.
type sessionRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// IdentityService is the local implementation of the identity capability:
// signUp, signIn, getCurrentUser, updatePassword, signOut. Credentials are
// bcrypt hashes in the users table; sessions are JWTs with a Redis-backed
// revocation list.
type IdentityService struct {
	users    userStore
	sessions sessionRevoker
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(users userStore, sessions sessionRevoker) *IdentityService {
	return &IdentityService{users: users, sessions: sessions}
}

// SignUp creates an identity record. Duplicate emails fail with an AuthError
// regardless of whether the race was caught by the pre-check or the unique
// index.
func (s *IdentityService) SignUp(ctx context.Context, email, password, name, role string) (*models.User, error) {
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, &apperr.AuthError{Message: "user with this email already exists"}
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Upstream("identity.signup", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Upstream("identity.signup", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err, "users_email_key") {
			return nil, &apperr.AuthError{Message: "user with this email already exists"}
		}
		return nil, apperr.Upstream("identity.signup", err)
	}

	log.Info().Str("user_id", user.ID).Msg("identity created")
	return user, nil
}

// SignIn verifies credentials and mints a session token. Bad email and bad
// password produce the same message so account existence does not leak.
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, &apperr.AuthError{Message: "invalid credentials"}
		}
		return "", nil, apperr.Upstream("identity.signin", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, &apperr.AuthError{Message: "invalid credentials"}
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, apperr.Upstream("identity.signin", err)
	}

	log.Info().Str("user_id", user.ID).Msg("signin successful")
	return token, user, nil
}

// GetCurrentUser resolves the user behind an authenticated session.
func (s *IdentityService) GetCurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Upstream("identity.current_user", err)
	}
	return user, nil
}

// UpdatePassword verifies the current password and replaces it.
func (s *IdentityService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrNotFound
		}
		return apperr.Upstream("identity.update_password", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return &apperr.AuthError{Message: "current password is incorrect"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Upstream("identity.update_password", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return apperr.Upstream("identity.update_password", err)
	}
	return nil
}

// SignOut revokes the session token until its natural expiry.
func (s *IdentityService) SignOut(ctx context.Context, claims *utils.SessionClaims) error {
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.sessions.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperr.Upstream("identity.signout", err)
	}
	return nil
}

// Revoke removes an identity record. Best-effort compensation when local
// persistence fails after signUp succeeded.
func (s *IdentityService) Revoke(ctx context.Context, userID string) error {
	return s.users.Delete(ctx, userID)
}

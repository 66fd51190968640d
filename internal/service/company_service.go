package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/LokalDeals/lokaldeals_api/internal/apperr"
	"github.com/LokalDeals/lokaldeals_api/internal/lifecycle"
	"github.com/LokalDeals/lokaldeals_api/internal/models"
	"github.com/LokalDeals/lokaldeals_api/internal/repository"
	"github.com/LokalDeals/lokaldeals_api/internal/slug"
)

// slugCreateAttempts bounds how many times a create is retried when the
// unique index catches a slug race the allocator's pre-check missed.
const slugCreateAttempts = 3

// companyStore is the slice of the company repository the profile service needs.
type companyStore interface {
	Create(ctx context.Context, c *models.Company) error
	GetByOwnerUserID(ctx context.Context, userID string) (*models.Company, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, c *models.Company) error
}

// identityProvider is the identity capability surface registration depends on.
type identityProvider interface {
	SignUp(ctx context.Context, email, password, name, role string) (*models.User, error)
	Revoke(ctx context.Context, userID string) error
}

// CompanyService handles registration and company profile management.
type CompanyService struct {
	companies companyStore
	identity  identityProvider
	listings  listingInvalidator
}

// NewCompanyService constructs a CompanyService.
func NewCompanyService(companies companyStore, identity identityProvider, listings listingInvalidator) *CompanyService {
	return &CompanyService{companies: companies, identity: identity, listings: listings}
}

// RegisterRequest carries the one-time registration payload.
type RegisterRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	CompanyName string  `json:"companyName"`
	Category    string  `json:"category"`
	Phone       string  `json:"phone"`
	Whatsapp    *string `json:"whatsapp"`
	Website     *string `json:"website"`
	Facebook    *string `json:"facebook"`
	Instagram   *string `json:"instagram"`
	Tiktok      *string `json:"tiktok"`
	Linkedin    *string `json:"linkedin"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
	LogoURL     string  `json:"logoUrl"`
}

// RegisterResult identifies the created identity and company.
type RegisterResult struct {
	UserID    string `json:"userId"`
	CompanyID string `json:"companyId"`
}

func (r *RegisterRequest) validate() *apperr.ValidationError {
	verr := apperr.NewValidation()
	if r.Name == "" {
		verr.Add("name", "name is required")
	}
	if r.Email == "" {
		verr.Add("email", "email is required")
	}
	if len(r.Password) < 8 {
		verr.Add("password", "password must be at least 8 characters")
	}
	if r.CompanyName == "" {
		verr.Add("companyName", "company name is required")
	}
	if r.Category == "" {
		verr.Add("category", "category is required")
	} else if !models.IsValidCategory(r.Category) {
		verr.Add("category", "unknown category")
	}
	if r.Phone == "" {
		verr.Add("phone", "phone is required")
	}
	if r.Location == "" {
		verr.Add("location", "location is required")
	}
	if r.Description == "" {
		verr.Add("description", "description is required")
	}
	if r.LogoURL == "" {
		verr.Add("logoUrl", "logo is required")
	}
	return verr
}

// Register performs the one-time registration: identity signUp, duplicate
// company check, slug allocation, company persistence. The identity write
// and the company write span two systems with no shared transaction; if the
// company row cannot be persisted the fresh identity is revoked best-effort
// and the reconcile worker sweeps anything the revoke missed.
func (s *CompanyService) Register(ctx context.Context, req *RegisterRequest) (*RegisterResult, error) {
	if verr := req.validate(); verr.HasErrors() {
		return nil, verr
	}

	exists, err := s.companies.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, apperr.Upstream("company.register", err)
	}
	if exists {
		return nil, &apperr.ConflictError{Resource: "company", Message: "a company with this email already exists"}
	}

	user, err := s.identity.SignUp(ctx, req.Email, req.Password, req.Name, models.RoleCompany)
	if err != nil {
		return nil, err
	}

	company, err := s.persistCompany(ctx, user.ID, req)
	if err != nil {
		if revokeErr := s.identity.Revoke(ctx, user.ID); revokeErr != nil {
			log.Error().Err(revokeErr).Str("user_id", user.ID).
				Msg("failed to revoke identity after registration failure; reconcile worker will sweep it")
		}
		return nil, err
	}

	log.Info().
		Str("company_id", company.ID).
		Str("slug", company.Slug).
		Msg("company registered")

	return &RegisterResult{UserID: user.ID, CompanyID: company.ID}, nil
}

// persistCompany allocates a slug and inserts the company, re-running
// allocation with an incremented seed when the unique index reports a race.
func (s *CompanyService) persistCompany(ctx context.Context, ownerUserID string, req *RegisterRequest) (*models.Company, error) {
	seed := 1
	for attempt := 0; attempt < slugCreateAttempts; attempt++ {
		allocated, err := slug.AllocateFrom(ctx, req.CompanyName, seed, s.companies.SlugExists)
		if err != nil {
			if errors.Is(err, apperr.ErrInvalidName) {
				verr := apperr.NewValidation()
				verr.Add("companyName", "company name must contain letters or digits")
				return nil, verr
			}
			if errors.Is(err, apperr.ErrSlugExhausted) {
				return nil, &apperr.ConflictError{Resource: "company", Message: "could not allocate a unique slug"}
			}
			return nil, apperr.Upstream("company.register", err)
		}

		company := &models.Company{
			ID:          uuid.New().String(),
			Slug:        allocated,
			OwnerUserID: ownerUserID,
			Email:       req.Email,
			Name:        req.CompanyName,
			Description: req.Description,
			Category:    req.Category,
			Phone:       req.Phone,
			Whatsapp:    req.Whatsapp,
			Website:     req.Website,
			Facebook:    req.Facebook,
			Instagram:   req.Instagram,
			Tiktok:      req.Tiktok,
			Linkedin:    req.Linkedin,
			Location:    req.Location,
			LogoURL:     req.LogoURL,
			Status:      lifecycle.StatusPending,
		}

		err = s.companies.Create(ctx, company)
		if err == nil {
			return company, nil
		}
		if repository.IsUniqueViolation(err, "companies_slug_key") {
			// Lost the slug race; probe again past the taken suffix.
			seed++
			continue
		}
		if repository.IsUniqueViolation(err, "") {
			return nil, &apperr.ConflictError{Resource: "company", Message: "a company with this email already exists"}
		}
		return nil, apperr.Upstream("company.register", err)
	}
	return nil, &apperr.ConflictError{Resource: "company", Message: "could not allocate a unique slug"}
}

// UpdateProfileRequest carries owner-editable profile fields. Email is
// deliberately absent: it is immutable after registration and the server
// never reads it from the request.
type UpdateProfileRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Phone       string  `json:"phone"`
	Whatsapp    *string `json:"whatsapp"`
	Website     *string `json:"website"`
	Facebook    *string `json:"facebook"`
	Instagram   *string `json:"instagram"`
	Tiktok      *string `json:"tiktok"`
	Linkedin    *string `json:"linkedin"`
	Location    string  `json:"location"`
	LogoURL     string  `json:"logoUrl"`
	BannerURL   *string `json:"bannerUrl"`
}

// GetProfile resolves the company owned by the user.
func (s *CompanyService) GetProfile(ctx context.Context, userID string) (*models.Company, error) {
	company, err := s.companies.GetByOwnerUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Upstream("company.get_profile", err)
	}
	return company, nil
}

// UpdateProfile validates and persists profile changes. Slug and status are
// untouched; email never changes.
func (s *CompanyService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.Company, error) {
	company, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	verr := apperr.NewValidation()
	if req.Name == "" {
		verr.Add("name", "name is required")
	}
	if req.Description == "" {
		verr.Add("description", "description is required")
	}
	if req.Category == "" {
		verr.Add("category", "category is required")
	} else if !models.IsValidCategory(req.Category) {
		verr.Add("category", "unknown category")
	}
	if req.Phone == "" {
		verr.Add("phone", "phone is required")
	}
	if req.Location == "" {
		verr.Add("location", "location is required")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	company.Name = req.Name
	company.Description = req.Description
	company.Category = req.Category
	company.Phone = req.Phone
	company.Whatsapp = req.Whatsapp
	company.Website = req.Website
	company.Facebook = req.Facebook
	company.Instagram = req.Instagram
	company.Tiktok = req.Tiktok
	company.Linkedin = req.Linkedin
	company.Location = req.Location
	if req.LogoURL != "" {
		company.LogoURL = req.LogoURL
	}
	company.BannerURL = req.BannerURL

	if err := s.companies.Update(ctx, company); err != nil {
		return nil, apperr.Upstream("company.update_profile", err)
	}

	// Edits to an Active company are publicly visible.
	if s.listings != nil && company.Status == lifecycle.StatusActive {
		if err := s.listings.Invalidate(ctx, "companies"); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate company listings after profile update")
		}
	}
	return company, nil
}

package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/LokalDeals/lokaldeals_api/internal/apperr"
	"github.com/LokalDeals/lokaldeals_api/internal/middleware"
	"github.com/LokalDeals/lokaldeals_api/internal/service"
	"github.com/LokalDeals/lokaldeals_api/internal/utils"
)

type AuthHandler struct {
	identityService *service.IdentityService
	companyService  *service.CompanyService
	rateLimiter     *middleware.InvalidAuthRateLimiter
}

func NewAuthHandler(identityService *service.IdentityService, companyService *service.CompanyService, rateLimiter *middleware.InvalidAuthRateLimiter) *AuthHandler {
	return &AuthHandler{
		identityService: identityService,
		companyService:  companyService,
		rateLimiter:     rateLimiter,
	}
}

// Register handles POST /v1/auth/register: the one-time combined identity
// and company registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.companyService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 201, "Registration submitted for review", result)
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	token, user, err := h.identityService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var aerr *apperr.AuthError
		if errors.As(err, &aerr) {
			// Only failed credential attempts count against the limit.
			if !h.rateLimiter.Allow(c.ClientIP()) {
				utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many failed attempts, try again later")
				return
			}
			utils.Error(c, 401, "INVALID_CREDENTIALS", aerr.Message)
			return
		}
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "Login successful", gin.H{
		"token": token,
		"user":  user,
	})
}

// Me handles GET /v1/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Missing session")
		return
	}

	user, err := h.identityService.GetCurrentUser(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "OK", user)
}

// ChangePassword handles POST /v1/auth/change-password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	claims := middleware.GetClaims(c)
	if claims == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Missing session")
		return
	}

	if err := h.identityService.UpdatePassword(c.Request.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		var aerr *apperr.AuthError
		if errors.As(err, &aerr) {
			utils.Error(c, 401, "INVALID_CREDENTIALS", aerr.Message)
			return
		}
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "Password updated", nil)
}

// SignOut handles POST /v1/auth/signout: revokes the presented session token.
func (h *AuthHandler) SignOut(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Missing session")
		return
	}

	if err := h.identityService.SignOut(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "Signed out", nil)
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/LokalDeals/lokaldeals_api/internal/middleware"
	"github.com/LokalDeals/lokaldeals_api/internal/service"
	"github.com/LokalDeals/lokaldeals_api/internal/utils"
)

type CompanyHandler struct {
	companyService *service.CompanyService
}

func NewCompanyHandler(companyService *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// GetProfile handles GET /v1/companies/profile.
func (h *CompanyHandler) GetProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Missing session")
		return
	}

	company, err := h.companyService.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "OK", company)
}

// UpdateProfile handles PUT /v1/companies/profile.
func (h *CompanyHandler) UpdateProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Missing session")
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	company, err := h.companyService.UpdateProfile(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "Profile updated", company)
}

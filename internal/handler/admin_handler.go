package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/LokalDeals/lokaldeals_api/internal/service"
	"github.com/LokalDeals/lokaldeals_api/internal/utils"
)

// AdminHandler exposes the moderation surface. All routes require the
// ADMIN role, enforced by middleware.
type AdminHandler struct {
	moderationService *service.ModerationService
}

func NewAdminHandler(moderationService *service.ModerationService) *AdminHandler {
	return &AdminHandler{moderationService: moderationService}
}

// ApproveCompany handles POST /v1/admin/companies/:id/approve.
func (h *AdminHandler) ApproveCompany(c *gin.Context) {
	company, err := h.moderationService.ApproveCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Company approved", company)
}

// DisableCompany handles POST /v1/admin/companies/:id/disable.
func (h *AdminHandler) DisableCompany(c *gin.Context) {
	company, err := h.moderationService.DisableCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Company disabled", company)
}

// ReactivateCompany handles POST /v1/admin/companies/:id/reactivate.
func (h *AdminHandler) ReactivateCompany(c *gin.Context) {
	company, err := h.moderationService.ReactivateCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Company reactivated", company)
}

// ApproveOffer handles POST /v1/admin/offers/:id/approve.
func (h *AdminHandler) ApproveOffer(c *gin.Context) {
	offer, err := h.moderationService.ApproveOffer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Offer approved", offer)
}

// DisableOffer handles POST /v1/admin/offers/:id/disable.
func (h *AdminHandler) DisableOffer(c *gin.Context) {
	offer, err := h.moderationService.DisableOffer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Offer disabled", offer)
}

// ReactivateOffer handles POST /v1/admin/offers/:id/reactivate.
func (h *AdminHandler) ReactivateOffer(c *gin.Context) {
	offer, err := h.moderationService.ReactivateOffer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Offer reactivated", offer)
}

// SetOfferFeatured handles PUT /v1/admin/offers/:id/featured.
func (h *AdminHandler) SetOfferFeatured(c *gin.Context) {
	var req struct {
		Featured *bool `json:"featured" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	offer, err := h.moderationService.SetOfferFeatured(c.Request.Context(), c.Param("id"), *req.Featured)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Offer featured flag updated", offer)
}

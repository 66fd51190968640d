package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/LokalDeals/lokaldeals_api/internal/apperr"
	"github.com/LokalDeals/lokaldeals_api/internal/middleware"
	"github.com/LokalDeals/lokaldeals_api/internal/service"
	"github.com/LokalDeals/lokaldeals_api/internal/utils"
)

type OfferHandler struct {
	offerService   *service.OfferService
	companyService *service.CompanyService
}

func NewOfferHandler(offerService *service.OfferService, companyService *service.CompanyService) *OfferHandler {
	return &OfferHandler{offerService: offerService, companyService: companyService}
}

// resolveCompanyID maps the session user to their company. Offer routes are
// only reachable for accounts that completed registration, so a missing
// company is a 404 rather than a validation problem.
func (h *OfferHandler) resolveCompanyID(c *gin.Context) (string, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Missing session")
		return "", false
	}

	company, err := h.companyService.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			utils.Error(c, 404, "NOT_FOUND", "No company associated with this account")
			return "", false
		}
		respondError(c, err)
		return "", false
	}
	return company.ID, true
}

// Create handles POST /v1/offers.
func (h *OfferHandler) Create(c *gin.Context) {
	companyID, ok := h.resolveCompanyID(c)
	if !ok {
		return
	}

	var req service.OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	offer, err := h.offerService.Create(c.Request.Context(), companyID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 201, "Offer submitted for review", offer)
}

// List handles GET /v1/offers: all offers belonging to the caller's company.
func (h *OfferHandler) List(c *gin.Context) {
	companyID, ok := h.resolveCompanyID(c)
	if !ok {
		return
	}

	offers, err := h.offerService.List(c.Request.Context(), companyID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "OK", offers)
}

// Get handles GET /v1/offers/:id.
func (h *OfferHandler) Get(c *gin.Context) {
	companyID, ok := h.resolveCompanyID(c)
	if !ok {
		return
	}

	offer, err := h.offerService.Get(c.Request.Context(), c.Param("id"), companyID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "OK", offer)
}

// Update handles PUT /v1/offers/:id.
func (h *OfferHandler) Update(c *gin.Context) {
	companyID, ok := h.resolveCompanyID(c)
	if !ok {
		return
	}

	var req service.OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	offer, err := h.offerService.Update(c.Request.Context(), c.Param("id"), companyID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "Offer updated", offer)
}

// Delete handles DELETE /v1/offers/:id.
func (h *OfferHandler) Delete(c *gin.Context) {
	companyID, ok := h.resolveCompanyID(c)
	if !ok {
		return
	}

	if err := h.offerService.Delete(c.Request.Context(), c.Param("id"), companyID); err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "Offer deleted", nil)
}

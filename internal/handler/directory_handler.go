package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/LokalDeals/lokaldeals_api/internal/models"
	"github.com/LokalDeals/lokaldeals_api/internal/service"
	"github.com/LokalDeals/lokaldeals_api/internal/utils"
)

// DirectoryHandler serves the unauthenticated browse surface.
type DirectoryHandler struct {
	directoryService *service.DirectoryService
}

func NewDirectoryHandler(directoryService *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directoryService: directoryService}
}

// ListCompanies handles GET /v1/directory/companies.
func (h *DirectoryHandler) ListCompanies(c *gin.Context) {
	companies, err := h.directoryService.ListCompanies(c.Request.Context(), c.Query("q"), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "OK", companies)
}

// GetCompany handles GET /v1/directory/companies/:slug.
func (h *DirectoryHandler) GetCompany(c *gin.Context) {
	company, err := h.directoryService.GetCompany(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "OK", company)
}

// ListOffers handles GET /v1/directory/offers.
func (h *DirectoryHandler) ListOffers(c *gin.Context) {
	featured := c.Query("featured") == "true"
	offers, err := h.directoryService.ListOffers(c.Request.Context(), c.Query("q"), c.Query("category"), featured)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "OK", offers)
}

// GetOffer handles GET /v1/directory/offers/:slug.
func (h *DirectoryHandler) GetOffer(c *gin.Context) {
	offer, err := h.directoryService.GetOffer(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, 200, "OK", offer)
}

// ListCategories handles GET /v1/categories.
func (h *DirectoryHandler) ListCategories(c *gin.Context) {
	utils.Success(c, 200, "OK", models.Categories)
}

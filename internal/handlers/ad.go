// internal/handlers/ad.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tubetrade/dealdesk/internal/i18n"
	"github.com/tubetrade/dealdesk/internal/models"
	"github.com/tubetrade/dealdesk/internal/services"
	"github.com/tubetrade/dealdesk/internal/utils"
)

type AdHandler struct {
	adService *services.AdService
}

func NewAdHandler(adService *services.AdService) *AdHandler {
	return &AdHandler{
		adService: adService,
	}
}

// GET /api/ads
func (h *AdHandler) ListAds(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdFilter{
		PaginationParams: params,
	}
	if platform := c.Query("platform"); platform != "" {
		p := models.Platform(platform)
		filter.Platform = &p
	}

	ads, total, err := h.adService.ListAds(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(ads, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /api/ads/:id
func (h *AdHandler) GetAd(c *gin.Context) {
	adID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	ad, err := h.adService.GetAd(adID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"ad": ad})
}

// GET /api/ads/mine
func (h *AdHandler) ListMyAds(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	ads, err := h.adService.ListMyAds(caller)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"ads": ads})
}

// POST /api/ads
func (h *AdHandler) CreateAd(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateAdRequest
	if !bindJSON(c, &req) {
		return
	}

	ad, err := h.adService.CreateAd(caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdCreated),
		"ad":      ad,
	})
}

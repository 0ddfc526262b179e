// internal/handlers/deal.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tubetrade/dealdesk/internal/i18n"
	"github.com/tubetrade/dealdesk/internal/services"
	"github.com/tubetrade/dealdesk/internal/utils"
)

// DealHandler serves the buyer and seller side of the deal workflow. Bodies
// keep the flat {message, deal} shape the web client reads.
type DealHandler struct {
	dealService *services.DealService
	feeService  *services.FeeService
}

func NewDealHandler(dealService *services.DealService, feeService *services.FeeService) *DealHandler {
	return &DealHandler{
		dealService: dealService,
		feeService:  feeService,
	}
}

// POST /api/deals
func (h *DealHandler) CreateDeal(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateDealRequest
	if !bindJSON(c, &req) {
		return
	}

	deal, err := h.dealService.CreateDeal(caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, http.StatusOK, i18n.T(lang, i18n.KeyDealCreated), gin.H{"deal": deal})
}

// GET /api/deals
func (h *DealHandler) GetDeals(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	deals, err := h.dealService.GetDeals(caller)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "deals": deals})
}

// GET /api/deals/:id
func (h *DealHandler) GetDeal(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	dealID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	deal, err := h.dealService.GetDeal(caller, dealID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "deal": deal})
}

// POST /api/deals/agree
func (h *DealHandler) AgreeToDeal(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req services.AgreeToDealRequest
	if !bindJSON(c, &req) {
		return
	}

	deal, err := h.dealService.AgreeToDeal(c.Request.Context(), caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, http.StatusOK, i18n.T(lang, i18n.KeyDealAgreed), gin.H{"deal": deal})
}

// POST /api/deals/:id/dispute
func (h *DealHandler) RaiseDispute(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	dealID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req services.DisputeRequest
	if !bindJSON(c, &req) {
		return
	}

	deal, err := h.dealService.RaiseDispute(c.Request.Context(), caller, dealID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, http.StatusOK, i18n.T(lang, i18n.KeyDealDisputed), gin.H{"deal": deal})
}

// POST /api/deals/:id/fee/intent
func (h *DealHandler) CreateFeeIntent(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	dealID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	intent, err := h.feeService.CreateFeeIntent(c.Request.Context(), caller, dealID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, http.StatusOK, i18n.T(lang, i18n.KeyDealFeeIntentCreated), gin.H{"payment": intent})
}

// POST /api/deals/:id/fee/confirm
func (h *DealHandler) ConfirmFee(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	dealID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	deal, err := h.feeService.ConfirmFee(c.Request.Context(), caller, dealID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, http.StatusOK, i18n.T(lang, i18n.KeyDealFeeConfirmed), gin.H{"deal": deal})
}

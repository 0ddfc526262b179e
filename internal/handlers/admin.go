// internal/handlers/admin.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tubetrade/dealdesk/internal/i18n"
	"github.com/tubetrade/dealdesk/internal/models"
	"github.com/tubetrade/dealdesk/internal/services"
	"github.com/tubetrade/dealdesk/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminDealService
}

func NewAdminHandler(adminService *services.AdminDealService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /api/admin/deals
func (h *AdminHandler) ListDeals(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminDealFilter{
		PaginationParams: params,
	}
	if stage := c.Query("stage"); stage != "" {
		s := models.WorkflowStage(stage)
		filter.Stage = &s
	}
	if status := c.Query("status"); status != "" {
		s := models.DealStatus(status)
		filter.Status = &s
	}

	deals, total, err := h.adminService.ListDeals(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(deals, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /api/admin/deals/:dealId
func (h *AdminHandler) GetDeal(c *gin.Context) {
	dealID, ok := uintParam(c, "dealId")
	if !ok {
		return
	}

	detail, err := h.adminService.GetDeal(dealID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deal": detail})
}

// GET /api/admin/deals/:dealId/history
func (h *AdminHandler) GetHistory(c *gin.Context) {
	dealID, ok := uintParam(c, "dealId")
	if !ok {
		return
	}

	history, err := h.adminService.GetHistory(dealID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"history": history})
}

type adminTransition func(ctx context.Context, admin *models.Caller, dealID uint) (*models.Deal, error)

// transition runs one admin step and writes the
// {success, message, deal_id, transaction_id} body.
func (h *AdminHandler) transition(c *gin.Context, run adminTransition, messageKey string) {
	lang := utils.GetLangFromContext(c)
	admin, ok := callerOrAbort(c)
	if !ok {
		return
	}
	dealID, ok := uintParam(c, "dealId")
	if !ok {
		return
	}

	deal, err := run(c.Request.Context(), admin, dealID)
	if err != nil {
		respondError(c, err)
		return
	}

	status, progress := deal.WorkflowStatus()
	utils.MessageResponse(c, http.StatusOK, i18n.T(lang, messageKey), gin.H{
		"deal_id":        deal.ID,
		"transaction_id": deal.TransactionID,
		"stage":          deal.WorkflowStage,
		"status":         status,
		"progress":       progress,
	})
}

// POST /api/admin/deals/:dealId/fee-paid
func (h *AdminHandler) MarkFeePaid(c *gin.Context) {
	h.transition(c, h.adminService.MarkFeePaid, i18n.KeyDealFeePaid)
}

// POST /api/admin/deals/:dealId/agent-email-sent
func (h *AdminHandler) MarkAgentEmailSent(c *gin.Context) {
	h.transition(c, h.adminService.MarkAgentEmailSent, i18n.KeyDealAgentEmailSent)
}

// POST /api/admin/deals/:dealId/rights-given
func (h *AdminHandler) ConfirmRightsGiven(c *gin.Context) {
	h.transition(c, h.adminService.ConfirmRightsGiven, i18n.KeyDealRightsGiven)
}

// POST /api/admin/deals/:dealId/timer-completed
func (h *AdminHandler) MarkTimerCompleted(c *gin.Context) {
	h.transition(c, h.adminService.MarkTimerCompleted, i18n.KeyDealTimerCompleted)
}

// POST /api/admin/deals/:dealId/confirm-primary-owner
func (h *AdminHandler) ConfirmPrimaryOwnerMade(c *gin.Context) {
	h.transition(c, h.adminService.ConfirmPrimaryOwnerMade, i18n.KeyDealPrimaryOwnerConfirmed)
}

// POST /api/admin/deals/:dealId/complete
func (h *AdminHandler) CompleteDeal(c *gin.Context) {
	h.transition(c, h.adminService.CompleteDeal, i18n.KeyDealCompleted)
}

// POST /api/admin/deals/:dealId/cancel
func (h *AdminHandler) CancelDeal(c *gin.Context) {
	var req services.CancelDealRequest
	if !bindJSON(c, &req) {
		return
	}
	h.transition(c, func(ctx context.Context, admin *models.Caller, dealID uint) (*models.Deal, error) {
		return h.adminService.CancelDeal(ctx, admin, dealID, &req)
	}, i18n.KeyDealCancelled)
}

// POST /api/admin/notifications/retry
func (h *AdminHandler) RetryNotifications(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	delivered, err := h.adminService.RetryNotifications(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, http.StatusOK, i18n.T(lang, i18n.KeyNotificationsDispatched), gin.H{
		"delivered": delivered,
	})
}

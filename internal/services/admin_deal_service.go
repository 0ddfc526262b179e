// internal/services/admin_deal_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tubetrade/dealdesk/internal/models"
	"github.com/tubetrade/dealdesk/internal/utils"
)

type AdminDealService struct {
	db            *gorm.DB
	workflow      *DealWorkflow
	notifications *NotificationService
}

type AdminDealFilter struct {
	utils.PaginationParams
	Stage  *models.WorkflowStage `json:"stage,omitempty"`
	Status *models.DealStatus    `json:"status,omitempty"`
}

type CancelDealRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// AdminDealView annotates a deal with its dashboard status and progress.
// Status shadows the deal's own status field in JSON; the raw value is kept
// as deal_status.
type AdminDealView struct {
	models.Deal
	Status     string            `json:"status"`
	Progress   int               `json:"progress"`
	DealStatus models.DealStatus `json:"deal_status"`
}

type AdminDealDetail struct {
	AdminDealView
	History       []models.DealHistory      `json:"history"`
	Notifications []models.DealNotification `json:"notifications"`
}

func NewAdminDealService(db *gorm.DB, workflow *DealWorkflow, notifications *NotificationService) *AdminDealService {
	return &AdminDealService{
		db:            db,
		workflow:      workflow,
		notifications: notifications,
	}
}

func newAdminDealView(deal models.Deal) AdminDealView {
	deal.FillUsernames()
	status, progress := deal.WorkflowStatus()
	return AdminDealView{
		Deal:       deal,
		Status:     status,
		Progress:   progress,
		DealStatus: deal.Status,
	}
}

func (s *AdminDealService) ListDeals(filter AdminDealFilter) ([]AdminDealView, int64, error) {
	query := s.db.Model(&models.Deal{})

	// Apply filters
	if filter.Stage != nil {
		query = query.Where("workflow_stage = ?", *filter.Stage)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		searchTerm := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(transaction_id) LIKE ? OR LOWER(channel_title) LIKE ? OR LOWER(buyer_email) LIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count deals: %w", err)
	}

	// Apply sorting and pagination
	allowedSortFields := []string{"created_at", "updated_at", "channel_price", "workflow_stage", "status"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var deals []models.Deal
	if err := query.Preload("Buyer").Preload("Seller").Find(&deals).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch deals: %w", err)
	}

	views := make([]AdminDealView, 0, len(deals))
	for _, deal := range deals {
		views = append(views, newAdminDealView(deal))
	}
	return views, total, nil
}

func (s *AdminDealService) GetDeal(dealID uint) (*AdminDealDetail, error) {
	var deal models.Deal
	if err := s.db.Preload("Buyer").Preload("Seller").First(&deal, dealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	history, err := s.GetHistory(dealID)
	if err != nil {
		return nil, err
	}
	notifications, err := s.notifications.ListForDeal(dealID)
	if err != nil {
		return nil, err
	}

	return &AdminDealDetail{
		AdminDealView: newAdminDealView(deal),
		History:       history,
		Notifications: notifications,
	}, nil
}

func (s *AdminDealService) GetHistory(dealID uint) ([]models.DealHistory, error) {
	var count int64
	if err := s.db.Model(&models.Deal{}).Where("id = ?", dealID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return nil, ErrDealNotFound
	}

	var history []models.DealHistory
	if err := s.db.Where("deal_id = ?", dealID).Order("created_at ASC").Order("id ASC").Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch deal history: %w", err)
	}
	return history, nil
}

func (s *AdminDealService) transition(ctx context.Context, admin *models.Caller, dealID uint, action models.DealAction) (*models.Deal, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.workflow.apply(ctx, transitionRequest{
		dealID:  dealID,
		action:  action,
		actorID: admin.UserID,
	})
}

func (s *AdminDealService) MarkFeePaid(ctx context.Context, admin *models.Caller, dealID uint) (*models.Deal, error) {
	return s.transition(ctx, admin, dealID, models.ActionFeePaid)
}

func (s *AdminDealService) MarkAgentEmailSent(ctx context.Context, admin *models.Caller, dealID uint) (*models.Deal, error) {
	return s.transition(ctx, admin, dealID, models.ActionAgentEmailSent)
}

func (s *AdminDealService) ConfirmRightsGiven(ctx context.Context, admin *models.Caller, dealID uint) (*models.Deal, error) {
	return s.transition(ctx, admin, dealID, models.ActionSellerGaveRights)
}

func (s *AdminDealService) MarkTimerCompleted(ctx context.Context, admin *models.Caller, dealID uint) (*models.Deal, error) {
	return s.transition(ctx, admin, dealID, models.ActionTimerCompleted)
}

// ConfirmPrimaryOwnerMade records that the agent holds primary ownership.
// The flag and the history row commit together; the chat notification is
// best-effort and retried from the outbox.
func (s *AdminDealService) ConfirmPrimaryOwnerMade(ctx context.Context, admin *models.Caller, dealID uint) (*models.Deal, error) {
	return s.transition(ctx, admin, dealID, models.ActionSellerMadePrimaryOwner)
}

func (s *AdminDealService) CompleteDeal(ctx context.Context, admin *models.Caller, dealID uint) (*models.Deal, error) {
	return s.transition(ctx, admin, dealID, models.ActionComplete)
}

func (s *AdminDealService) CancelDeal(ctx context.Context, admin *models.Caller, dealID uint, req *CancelDealRequest) (*models.Deal, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	return s.workflow.apply(ctx, transitionRequest{
		dealID:  dealID,
		action:  models.ActionCancel,
		actorID: admin.UserID,
		extra: func(deal *models.Deal) map[string]interface{} {
			deal.CancelReason = req.Reason
			return map[string]interface{}{"cancel_reason": req.Reason}
		},
		metadata: datatypes.JSONMap{"reason": req.Reason},
	})
}

// RetryNotifications delivers all pending notifications immediately.
func (s *AdminDealService) RetryNotifications(ctx context.Context) (int, error) {
	return s.notifications.RetryPending(ctx)
}

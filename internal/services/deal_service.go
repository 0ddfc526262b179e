// internal/services/deal_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tubetrade/dealdesk/internal/models"
	"github.com/tubetrade/dealdesk/internal/utils"
)

type DealService struct {
	db       *gorm.DB
	workflow *DealWorkflow
}

// Field order is the order in which missing fields are reported.
type CreateDealRequest struct {
	SellerID        uint                   `json:"sellerId" validate:"required"`
	AdID            uint                   `json:"adId" validate:"required"`
	TransactionID   string                 `json:"transactionId" validate:"required,max=100"`
	ChannelTitle    string                 `json:"channelTitle" validate:"required,max=255"`
	ChannelPrice    *decimal.Decimal       `json:"channelPrice" validate:"required,money"`
	EscrowFee       *decimal.Decimal       `json:"escrowFee" validate:"required,money"`
	BuyerEmail      string                 `json:"buyerEmail" validate:"required,email"`
	PaymentMethods  []models.PaymentMethod `json:"paymentMethods" validate:"required,min=1,dive"`
	TransactionType models.TransactionType `json:"transactionType" validate:"required,transaction_type"`
	BuyerName       string                 `json:"buyerName,omitempty" validate:"max=100"`
}

type AgreeToDealRequest struct {
	DealID              uint   `json:"dealId" validate:"required"`
	AgreedPaymentMethod string `json:"agreedPaymentMethod" validate:"required"`
}

type DisputeRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// DealView is a deal as seen by one of its parties.
type DealView struct {
	models.Deal
	UserRole string `json:"userRole"`
}

func NewDealService(db *gorm.DB, workflow *DealWorkflow) *DealService {
	return &DealService{db: db, workflow: workflow}
}

func (r *CreateDealRequest) normalize() {
	r.TransactionID = strings.TrimSpace(r.TransactionID)
	r.ChannelTitle = strings.TrimSpace(r.ChannelTitle)
	r.BuyerEmail = strings.TrimSpace(r.BuyerEmail)
	r.BuyerName = strings.TrimSpace(r.BuyerName)
	r.TransactionType = models.TransactionType(strings.TrimSpace(string(r.TransactionType)))
	for i := range r.PaymentMethods {
		r.PaymentMethods[i].ID = strings.TrimSpace(r.PaymentMethods[i].ID)
		r.PaymentMethods[i].Name = strings.TrimSpace(r.PaymentMethods[i].Name)
	}
}

func validatePaymentMethods(methods []models.PaymentMethod) error {
	seen := make(map[string]bool, len(methods))
	for _, pm := range methods {
		if seen[pm.ID] {
			return invalidField("paymentMethods", fmt.Sprintf("payment method id %q is listed twice", pm.ID))
		}
		seen[pm.ID] = true
	}
	return nil
}

// CreateDeal opens a pending deal for the caller as buyer. Checks run in a
// fixed order and the first failure is returned.
func (s *DealService) CreateDeal(caller *models.Caller, req *CreateDealRequest) (*models.Deal, error) {
	req.normalize()
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	if err := validatePaymentMethods(req.PaymentMethods); err != nil {
		return nil, err
	}

	if caller == nil || caller.UserID == 0 {
		return nil, ErrUnauthenticated
	}

	if caller.UserID == req.SellerID {
		return nil, ErrSelfDealNotAllowed
	}

	var ad models.Ad
	if err := s.db.First(&ad, req.AdID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdOwnershipMismatch
		}
		return nil, fmt.Errorf("failed to load ad: %w", err)
	}
	if ad.UserID != req.SellerID {
		return nil, ErrAdOwnershipMismatch
	}

	var count int64
	if err := s.db.Model(&models.Deal{}).Where("transaction_id = ?", req.TransactionID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check transaction id: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateTransactionID
	}

	var buyer models.User
	if err := s.db.First(&buyer, caller.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load buyer: %w", err)
	}

	buyerName := req.BuyerName
	if buyerName == "" {
		buyerName = buyer.DisplayName()
	}

	deal := &models.Deal{
		TransactionID:   req.TransactionID,
		BuyerID:         buyer.ID,
		SellerID:        req.SellerID,
		AdID:            ad.ID,
		ChannelTitle:    req.ChannelTitle,
		ChannelPrice:    *req.ChannelPrice,
		EscrowFee:       *req.EscrowFee,
		TransactionType: req.TransactionType,
		PaymentMethods:  datatypes.JSONSlice[models.PaymentMethod](req.PaymentMethods),
		BuyerEmail:      req.BuyerEmail,
		BuyerName:       buyerName,
		Status:          models.DealStatusPending,
		PlatformType:    ad.Platform,
		WorkflowStage:   models.StagePendingAgreement,
		Version:         1,
	}

	if err := s.db.Create(deal).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateTransactionID
		}
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}

	return s.loadDeal(deal.ID)
}

func (s *DealService) loadDeal(dealID uint) (*models.Deal, error) {
	var deal models.Deal
	if err := s.db.Preload("Buyer").Preload("Seller").First(&deal, dealID).Error; err != nil {
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	deal.FillUsernames()
	return &deal, nil
}

// GetDeals lists every deal the caller is a party to, newest first.
func (s *DealService) GetDeals(caller *models.Caller) ([]DealView, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	var deals []models.Deal
	err := s.db.Preload("Buyer").Preload("Seller").
		Where("buyer_id = ? OR seller_id = ?", caller.UserID, caller.UserID).
		Order("created_at DESC").Order("id DESC").
		Find(&deals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}

	views := make([]DealView, 0, len(deals))
	for _, deal := range deals {
		deal.FillUsernames()
		views = append(views, DealView{Deal: deal, UserRole: deal.RoleOf(caller.UserID)})
	}
	return views, nil
}

func (s *DealService) GetDeal(caller *models.Caller, dealID uint) (*DealView, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	var deal models.Deal
	if err := s.db.Preload("Buyer").Preload("Seller").First(&deal, dealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}

	role := deal.RoleOf(caller.UserID)
	if role == "" && !caller.IsAdmin() {
		return nil, ErrNotParticipant
	}

	deal.FillUsernames()
	return &DealView{Deal: deal, UserRole: role}, nil
}

// AgreeToDeal records the seller's acceptance and the chosen payment method,
// stored by its canonical name.
func (s *DealService) AgreeToDeal(ctx context.Context, caller *models.Caller, req *AgreeToDealRequest) (*models.Deal, error) {
	req.AgreedPaymentMethod = strings.TrimSpace(req.AgreedPaymentMethod)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	var method string
	return s.workflow.apply(ctx, transitionRequest{
		dealID:   req.DealID,
		action:   models.ActionSellerAgreed,
		actorID:  caller.UserID,
		notFound: ErrNotSellerOrNotFound,
		conflict: ErrInvalidStateForTransition,
		guard: func(deal *models.Deal) error {
			if deal.SellerID != caller.UserID {
				return ErrNotSellerOrNotFound
			}
			if deal.Status != models.DealStatusPending {
				return ErrInvalidStateForTransition
			}
			name, ok := deal.MatchPaymentMethod(req.AgreedPaymentMethod)
			if !ok {
				return ErrPaymentMethodNotOffered
			}
			method = name
			return nil
		},
		extra: func(deal *models.Deal) map[string]interface{} {
			deal.SellerAgreedPaymentMethod = method
			return map[string]interface{}{"seller_agreed_payment_method": method}
		},
		metadata: datatypes.JSONMap{"payment_method": req.AgreedPaymentMethod},
	})
}

// RaiseDispute lets either party freeze an agreed deal for review.
func (s *DealService) RaiseDispute(ctx context.Context, caller *models.Caller, dealID uint, req *DisputeRequest) (*models.Deal, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	return s.workflow.apply(ctx, transitionRequest{
		dealID:   dealID,
		action:   models.ActionDispute,
		actorID:  caller.UserID,
		notFound: ErrNotParticipant,
		guard: func(deal *models.Deal) error {
			if deal.RoleOf(caller.UserID) == "" {
				return ErrNotParticipant
			}
			return nil
		},
		extra: func(deal *models.Deal) map[string]interface{} {
			deal.DisputeReason = req.Reason
			return map[string]interface{}{"dispute_reason": req.Reason}
		},
		metadata: datatypes.JSONMap{"reason": req.Reason},
	})
}

// internal/services/fee_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tubetrade/dealdesk/internal/models"
)

// FeeIntent is the provider-neutral view of a payment for an escrow fee.
type FeeIntent struct {
	ID           string `json:"payment_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

func (i *FeeIntent) Succeeded() bool {
	return i.Status == string(stripe.PaymentIntentStatusSucceeded)
}

type FeeGateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*FeeIntent, error)
	GetIntent(ctx context.Context, id string) (*FeeIntent, error)
}

// StripeFeeGateway charges escrow fees with Stripe PaymentIntents.
type StripeFeeGateway struct{}

func NewStripeFeeGateway(secretKey string) *StripeFeeGateway {
	stripe.Key = secretKey
	return &StripeFeeGateway{}
}

func (g *StripeFeeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*FeeIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	// Add metadata
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return stripeFeeIntent(pi), nil
}

func (g *StripeFeeGateway) GetIntent(ctx context.Context, id string) (*FeeIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}
	return stripeFeeIntent(pi), nil
}

func stripeFeeIntent(pi *stripe.PaymentIntent) *FeeIntent {
	return &FeeIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}

// FeeService lets the buyer pay the escrow fee online. A confirmed payment
// takes the same transition as the admin fee-paid action.
type FeeService struct {
	db       *gorm.DB
	workflow *DealWorkflow
	gateway  FeeGateway
	currency string
}

func NewFeeService(db *gorm.DB, workflow *DealWorkflow, gateway FeeGateway, currency string) *FeeService {
	if currency == "" {
		currency = "usd"
	}
	return &FeeService{
		db:       db,
		workflow: workflow,
		gateway:  gateway,
		currency: currency,
	}
}

func (s *FeeService) loadBuyerDeal(caller *models.Caller, dealID uint) (*models.Deal, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	var deal models.Deal
	if err := s.db.First(&deal, dealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	if deal.BuyerID != caller.UserID {
		return nil, ErrNotParticipant
	}
	return &deal, nil
}

// CreateFeeIntent starts a payment for the deal's escrow fee and stores the
// intent id on the deal.
func (s *FeeService) CreateFeeIntent(ctx context.Context, caller *models.Caller, dealID uint) (*FeeIntent, error) {
	if s.gateway == nil {
		return nil, ErrFeePaymentsDisabled
	}

	deal, err := s.loadBuyerDeal(caller, dealID)
	if err != nil {
		return nil, err
	}
	if deal.IsClosed() {
		return nil, ErrDealClosed
	}
	if deal.WorkflowStage != models.StageAwaitingFee {
		return nil, ErrInvalidStateForTransition
	}

	amount := deal.EscrowFee.Shift(2).Round(0).IntPart()
	if amount <= 0 {
		return nil, invalidField("escrowFee", "escrow fee must be greater than zero to pay online")
	}

	intent, err := s.gateway.CreateIntent(ctx, amount, s.currency, map[string]string{
		"deal_id":        strconv.FormatUint(uint64(deal.ID), 10),
		"transaction_id": deal.TransactionID,
		"type":           "escrow_fee",
	})
	if err != nil {
		return nil, err
	}

	res := s.db.Model(&models.Deal{}).
		Where("id = ? AND version = ?", deal.ID, deal.Version).
		Updates(map[string]interface{}{
			"fee_payment_reference": intent.ID,
			"version":               gorm.Expr("version + ?", 1),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to store payment reference: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrConcurrentModification
	}
	return intent, nil
}

// ConfirmFee checks the stored intent with the provider and, when it has
// succeeded, marks the fee as paid.
func (s *FeeService) ConfirmFee(ctx context.Context, caller *models.Caller, dealID uint) (*models.Deal, error) {
	if s.gateway == nil {
		return nil, ErrFeePaymentsDisabled
	}

	deal, err := s.loadBuyerDeal(caller, dealID)
	if err != nil {
		return nil, err
	}
	if deal.FeePaymentReference == "" {
		return nil, ErrFeeNotPaid
	}

	intent, err := s.gateway.GetIntent(ctx, deal.FeePaymentReference)
	if err != nil {
		return nil, err
	}
	if !intent.Succeeded() {
		return nil, ErrFeeNotPaid
	}

	return s.workflow.apply(ctx, transitionRequest{
		dealID:   deal.ID,
		action:   models.ActionFeePaid,
		actorID:  caller.UserID,
		notFound: ErrNotParticipant,
		guard: func(d *models.Deal) error {
			if d.FeePaymentReference != intent.ID {
				return ErrFeeNotPaid
			}
			return nil
		},
		metadata: datatypes.JSONMap{"payment_id": intent.ID, "amount": intent.Amount, "currency": intent.Currency},
	})
}

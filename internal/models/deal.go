// internal/models/deal.go
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentMethod is one payment option proposed by the buyer.
type PaymentMethod struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

type Deal struct {
	BaseModel
	TransactionID   string                             `json:"transactionId" gorm:"size:100;not null;uniqueIndex"`
	BuyerID         uint                               `json:"buyerId" gorm:"not null;index"`
	SellerID        uint                               `json:"sellerId" gorm:"not null;index"`
	AdID            uint                               `json:"adId" gorm:"not null;index"`
	ChannelTitle    string                             `json:"channelTitle" gorm:"size:255;not null"`
	ChannelPrice    decimal.Decimal                    `json:"channelPrice" gorm:"type:decimal(12,2);not null"`
	EscrowFee       decimal.Decimal                    `json:"escrowFee" gorm:"type:decimal(12,2);not null"`
	TransactionType TransactionType                    `json:"transactionType" gorm:"type:varchar(20);not null"`
	PaymentMethods  datatypes.JSONSlice[PaymentMethod] `json:"paymentMethods" gorm:"not null"`
	BuyerEmail      string                             `json:"buyerEmail" gorm:"size:255;not null"`
	BuyerName       string                             `json:"buyerName" gorm:"size:100"`
	Status          DealStatus                         `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	SellerAgreedAt            *time.Time `json:"sellerAgreedAt"`
	SellerAgreedPaymentMethod string     `json:"sellerAgreedPaymentMethod" gorm:"size:100"`

	PlatformType             Platform   `json:"platformType" gorm:"type:varchar(20)"`
	TransactionFeePaid       bool       `json:"transactionFeePaid" gorm:"not null;default:false"`
	TransactionFeePaidAt     *time.Time `json:"transactionFeePaidAt"`
	AgentEmailSent           bool       `json:"agentEmailSent" gorm:"not null;default:false"`
	AgentEmailSentAt         *time.Time `json:"agentEmailSentAt"`
	SellerGaveRights         bool       `json:"sellerGaveRights" gorm:"not null;default:false"`
	SellerGaveRightsAt       *time.Time `json:"sellerGaveRightsAt"`
	SellerMadePrimaryOwner   bool       `json:"sellerMadePrimaryOwner" gorm:"not null;default:false"`
	SellerMadePrimaryOwnerAt *time.Time `json:"sellerMadePrimaryOwnerAt"`
	TimerCompleted           bool       `json:"timerCompleted" gorm:"not null;default:false"`
	TimerCompletedAt         *time.Time `json:"timerCompletedAt"`

	WorkflowStage       WorkflowStage `json:"workflowStage" gorm:"type:varchar(40);not null;default:'pending_agreement';index"`
	Version             int           `json:"version" gorm:"not null;default:1"`
	FeePaymentReference string        `json:"feePaymentReference,omitempty" gorm:"size:255"`
	CancelReason        string        `json:"cancelReason,omitempty" gorm:"type:text"`
	DisputeReason       string        `json:"disputeReason,omitempty" gorm:"type:text"`
	CompletedAt         *time.Time    `json:"completedAt"`
	CancelledAt         *time.Time    `json:"cancelledAt"`
	DisputedAt          *time.Time    `json:"disputedAt"`

	BuyerUsername  string `json:"buyerUsername,omitempty" gorm:"-"`
	SellerUsername string `json:"sellerUsername,omitempty" gorm:"-"`

	// Relationships
	Buyer  *User `json:"-" gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE"`
	Seller *User `json:"-" gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE"`
	Ad     *Ad   `json:"-" gorm:"foreignKey:AdID;constraint:OnDelete:CASCADE"`
}

// FillUsernames copies the preloaded party usernames onto the response fields.
func (d *Deal) FillUsernames() {
	if d.Buyer != nil {
		d.BuyerUsername = d.Buyer.Username
	}
	if d.Seller != nil {
		d.SellerUsername = d.Seller.Username
	}
}

// MatchPaymentMethod resolves input against the offered methods, first by id
// and then by display name, and returns the canonical display name.
func (d *Deal) MatchPaymentMethod(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	for _, pm := range d.PaymentMethods {
		if pm.ID == input {
			return pm.Name, true
		}
	}
	for _, pm := range d.PaymentMethods {
		if strings.EqualFold(strings.TrimSpace(pm.Name), input) {
			return pm.Name, true
		}
	}
	return "", false
}

// RoleOf reports whether userID is the buyer or the seller of the deal.
func (d *Deal) RoleOf(userID uint) string {
	switch userID {
	case d.BuyerID:
		return "buyer"
	case d.SellerID:
		return "seller"
	}
	return ""
}

func (d *Deal) IsClosed() bool {
	return d.WorkflowStage.IsTerminal()
}

// internal/services/deal_messages.go
package services

import (
	"fmt"

	"github.com/tubetrade/dealdesk/internal/models"
)

// dealEventMessage renders the system chat message posted for an event.
func dealEventMessage(deal *models.Deal, event models.DealAction) string {
	switch event {
	case models.ActionSellerAgreed:
		return fmt.Sprintf(
			"The seller agreed to deal %s with payment method %s. The buyer can now pay the escrow fee of %s.",
			deal.TransactionID, deal.SellerAgreedPaymentMethod, deal.EscrowFee.StringFixed(2),
		)
	case models.ActionFeePaid:
		return fmt.Sprintf(
			"The escrow fee for deal %s has been received. Our agent will e-mail the seller with access instructions shortly.",
			deal.TransactionID,
		)
	case models.ActionAgentEmailSent:
		return "Our agent has e-mailed the seller. Seller: please grant our agent access to the channel as described in the e-mail."
	case models.ActionSellerGaveRights:
		if deal.PlatformType == models.PlatformYouTube && !deal.TimerCompleted {
			return "The seller has granted our agent access. YouTube requires a waiting period before ownership can be transferred; we will post here once it ends."
		}
		return "The seller has granted our agent access to the channel. Seller: please make our agent the primary owner."
	case models.ActionTimerCompleted:
		return "The YouTube waiting period has ended. Seller: please make our agent the primary owner of the channel."
	case models.ActionSellerMadePrimaryOwner:
		return fmt.Sprintf(
			"Our agent is now the primary owner of %q. Buyer: please pay the seller %s via %s and post the payment screenshots in this chat. Seller: confirm here once you receive the payment.",
			deal.ChannelTitle, deal.ChannelPrice.StringFixed(2), paymentMethodLabel(deal),
		)
	case models.ActionComplete:
		return fmt.Sprintf("Deal %s is complete. Channel ownership is being handed over to the buyer.", deal.TransactionID)
	case models.ActionCancel:
		if deal.CancelReason != "" {
			return fmt.Sprintf("Deal %s has been cancelled: %s", deal.TransactionID, deal.CancelReason)
		}
		return fmt.Sprintf("Deal %s has been cancelled.", deal.TransactionID)
	case models.ActionDispute:
		if deal.DisputeReason != "" {
			return fmt.Sprintf("A dispute was raised on deal %s: %s. Our team will review it.", deal.TransactionID, deal.DisputeReason)
		}
		return fmt.Sprintf("A dispute was raised on deal %s. Our team will review it.", deal.TransactionID)
	}
	return fmt.Sprintf("Deal %s was updated.", deal.TransactionID)
}

func paymentMethodLabel(deal *models.Deal) string {
	if deal.SellerAgreedPaymentMethod != "" {
		return deal.SellerAgreedPaymentMethod
	}
	return "the agreed payment method"
}

// dealActionDescription is the history text for an action.
func dealActionDescription(event models.DealAction) string {
	switch event {
	case models.ActionSellerAgreed:
		return "Seller agreed to the deal"
	case models.ActionFeePaid:
		return "Transaction fee paid"
	case models.ActionAgentEmailSent:
		return "Agent e-mail sent to seller"
	case models.ActionSellerGaveRights:
		return "Seller gave rights to agent"
	case models.ActionTimerCompleted:
		return "YouTube ownership timer completed"
	case models.ActionSellerMadePrimaryOwner:
		return "Seller made agent primary owner"
	case models.ActionComplete:
		return "Deal completed"
	case models.ActionCancel:
		return "Deal cancelled"
	case models.ActionDispute:
		return "Dispute raised"
	}
	return string(event)
}

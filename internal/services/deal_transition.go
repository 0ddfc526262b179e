// internal/services/deal_transition.go
package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/tubetrade/dealdesk/internal/models"
)

// Transition validates action against the deal's current stage, applies it to
// deal in memory and returns the column changes to persist. It performs no
// I/O. The version bump is included in the changes.
func Transition(deal *models.Deal, action models.DealAction, now time.Time) (map[string]interface{}, error) {
	if action == models.ActionSellerMadePrimaryOwner {
		if !deal.SellerGaveRights {
			return nil, ErrRightsNotYetGiven
		}
		if deal.SellerMadePrimaryOwner {
			return nil, ErrAlreadyConfirmed
		}
	}

	if deal.WorkflowStage.IsTerminal() {
		return nil, ErrDealClosed
	}

	changes := map[string]interface{}{}
	from := deal.WorkflowStage
	var to models.WorkflowStage

	switch action {
	case models.ActionSellerAgreed:
		if from != models.StagePendingAgreement || deal.Status != models.DealStatusPending {
			return nil, ErrInvalidStateForTransition
		}
		to = models.StageAwaitingFee
		deal.Status = models.DealStatusSellerAgreed
		deal.SellerAgreedAt = &now
		changes["status"] = deal.Status
		changes["seller_agreed_at"] = now

	case models.ActionFeePaid:
		if from != models.StageAwaitingFee {
			return nil, ErrInvalidStateForTransition
		}
		to = models.StageFeePaid
		deal.Status = models.DealStatusInProgress
		deal.TransactionFeePaid = true
		deal.TransactionFeePaidAt = &now
		changes["status"] = deal.Status
		changes["transaction_fee_paid"] = true
		changes["transaction_fee_paid_at"] = now

	case models.ActionAgentEmailSent:
		if from != models.StageFeePaid {
			return nil, ErrInvalidStateForTransition
		}
		to = models.StageAgentEmailSent
		deal.AgentEmailSent = true
		deal.AgentEmailSentAt = &now
		changes["agent_email_sent"] = true
		changes["agent_email_sent_at"] = now

	case models.ActionSellerGaveRights:
		if from != models.StageAgentEmailSent {
			return nil, ErrInvalidStateForTransition
		}
		to = models.StageRightsGiven
		if deal.PlatformType == models.PlatformYouTube && !deal.TimerCompleted {
			to = models.StageTimerRunning
		}
		deal.SellerGaveRights = true
		deal.SellerGaveRightsAt = &now
		changes["seller_gave_rights"] = true
		changes["seller_gave_rights_at"] = now

	case models.ActionTimerCompleted:
		if from != models.StageTimerRunning {
			return nil, ErrInvalidStateForTransition
		}
		to = models.StageRightsGiven
		deal.TimerCompleted = true
		deal.TimerCompletedAt = &now
		changes["timer_completed"] = true
		changes["timer_completed_at"] = now

	case models.ActionSellerMadePrimaryOwner:
		// A running YouTube timer does not block the confirmation.
		if from != models.StageRightsGiven && from != models.StageTimerRunning {
			return nil, ErrInvalidStateForTransition
		}
		to = models.StagePrimaryOwnerConfirmed
		deal.SellerMadePrimaryOwner = true
		deal.SellerMadePrimaryOwnerAt = &now
		changes["seller_made_primary_owner"] = true
		changes["seller_made_primary_owner_at"] = now

	case models.ActionComplete:
		if from != models.StagePrimaryOwnerConfirmed {
			return nil, ErrInvalidStateForTransition
		}
		to = models.StageCompleted
		deal.Status = models.DealStatusCompleted
		deal.CompletedAt = &now
		changes["status"] = deal.Status
		changes["completed_at"] = now

	case models.ActionCancel:
		to = models.StageCancelled
		deal.Status = models.DealStatusCancelled
		deal.CancelledAt = &now
		changes["status"] = deal.Status
		changes["cancelled_at"] = now

	case models.ActionDispute:
		if from == models.StagePendingAgreement {
			return nil, ErrInvalidStateForTransition
		}
		to = models.StageDisputed
		deal.Status = models.DealStatusDisputed
		deal.DisputedAt = &now
		changes["status"] = deal.Status
		changes["disputed_at"] = now

	default:
		return nil, ErrInvalidStateForTransition
	}

	deal.WorkflowStage = to
	deal.UpdatedAt = now
	deal.Version++
	changes["workflow_stage"] = to
	changes["updated_at"] = now
	changes["version"] = gorm.Expr("version + ?", 1)

	return changes, nil
}

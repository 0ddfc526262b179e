// internal/models/workflow.go
package models

// WorkflowStage is the single ordered position of a deal in the ownership
// transfer workflow.
type WorkflowStage string

const (
	StagePendingAgreement      WorkflowStage = "pending_agreement"
	StageAwaitingFee           WorkflowStage = "awaiting_fee"
	StageFeePaid               WorkflowStage = "fee_paid"
	StageAgentEmailSent        WorkflowStage = "agent_email_sent"
	StageTimerRunning          WorkflowStage = "timer_running"
	StageRightsGiven           WorkflowStage = "rights_given"
	StagePrimaryOwnerConfirmed WorkflowStage = "primary_owner_confirmed"
	StageCompleted             WorkflowStage = "completed"
	StageCancelled             WorkflowStage = "cancelled"
	StageDisputed              WorkflowStage = "disputed"
)

// DealAction names a state change. It doubles as history action type and
// notification event type.
type DealAction string

const (
	ActionSellerAgreed           DealAction = "seller_agreed"
	ActionFeePaid                DealAction = "fee_paid"
	ActionAgentEmailSent         DealAction = "agent_email_sent"
	ActionSellerGaveRights       DealAction = "seller_gave_rights"
	ActionTimerCompleted         DealAction = "timer_completed"
	ActionSellerMadePrimaryOwner DealAction = "seller_made_primary_owner"
	ActionComplete               DealAction = "completed"
	ActionCancel                 DealAction = "cancelled"
	ActionDispute                DealAction = "disputed"
)

type stageInfo struct {
	order    int
	display  string
	progress int
}

var stages = map[WorkflowStage]stageInfo{
	StagePendingAgreement:      {0, "Pending Seller Agreement", 10},
	StageAwaitingFee:           {1, "Seller Agreed - Awaiting Payment", 25},
	StageFeePaid:               {2, "Fee Paid - Sending Agent Email", 40},
	StageAgentEmailSent:        {3, "Waiting for Agent Access", 55},
	StageTimerRunning:          {4, "YouTube Timer Running", 65},
	StageRightsGiven:           {5, "Agent Access Confirmed", 75},
	StagePrimaryOwnerConfirmed: {6, "Primary Owner Confirmed", 100},
	StageCompleted:             {7, "Completed", 100},
	StageCancelled:             {-1, "Cancelled", 0},
	StageDisputed:              {-1, "Disputed", 0},
}

func (s WorkflowStage) Valid() bool {
	_, ok := stages[s]
	return ok
}

// Order is the position in the happy path; side states return -1.
func (s WorkflowStage) Order() int {
	if info, ok := stages[s]; ok {
		return info.order
	}
	return -1
}

func (s WorkflowStage) Display() string {
	return stages[s].display
}

func (s WorkflowStage) Progress() int {
	return stages[s].progress
}

func (s WorkflowStage) IsTerminal() bool {
	return s == StageCompleted || s == StageCancelled || s == StageDisputed
}

// DeriveStage computes the stage from the legacy flags, checking the most
// advanced flag first.
func DeriveStage(d *Deal) WorkflowStage {
	switch {
	case d.SellerMadePrimaryOwner:
		return StagePrimaryOwnerConfirmed
	case d.SellerGaveRights:
		if d.PlatformType == PlatformYouTube && !d.TimerCompleted {
			return StageTimerRunning
		}
		return StageRightsGiven
	case d.AgentEmailSent:
		return StageAgentEmailSent
	case d.TransactionFeePaid:
		return StageFeePaid
	case d.SellerAgreedAt != nil || d.Status == DealStatusSellerAgreed:
		return StageAwaitingFee
	default:
		return StagePendingAgreement
	}
}

// WorkflowStatus returns the admin display string and progress percentage.
// Open deals are reported from their flags, so out-of-band flag edits show
// up before the next write. Disputed deals keep the progress of the stage
// they reached.
func (d *Deal) WorkflowStatus() (string, int) {
	switch d.WorkflowStage {
	case StageCancelled:
		return StageCancelled.Display(), 0
	case StageDisputed:
		return StageDisputed.Display(), DeriveStage(d).Progress()
	case StageCompleted:
		return StageCompleted.Display(), StageCompleted.Progress()
	}
	stage := DeriveStage(d)
	return stage.Display(), stage.Progress()
}

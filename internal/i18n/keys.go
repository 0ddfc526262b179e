// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthUserSuspended      = "auth.user_suspended"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAdminAccessDenied      = "admin.access_denied"

	// Ads
	KeyAdCreated  = "ad.created"
	KeyAdNotFound = "ad.not_found"

	// Chats
	KeyChatOpened      = "chat.opened"
	KeyChatNotFound    = "chat.not_found"
	KeyChatMessageSent = "chat.message_sent"

	// Deals
	KeyDealCreated               = "deal.created"
	KeyDealAgreed                = "deal.agreed"
	KeyDealDisputed              = "deal.disputed"
	KeyDealFeeIntentCreated      = "deal.fee_intent_created"
	KeyDealFeeConfirmed          = "deal.fee_confirmed"
	KeyDealFeePaid               = "deal.fee_paid"
	KeyDealAgentEmailSent        = "deal.agent_email_sent"
	KeyDealRightsGiven           = "deal.rights_given"
	KeyDealTimerCompleted        = "deal.timer_completed"
	KeyDealPrimaryOwnerConfirmed = "deal.primary_owner_confirmed"
	KeyDealCompleted             = "deal.completed"
	KeyDealCancelled             = "deal.cancelled"
	KeyNotificationsDispatched   = "notification.dispatched"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// Errors
	KeyErrorInternal        = "error.internal"
	KeyErrorNotFound        = "error.not_found"
	KeyErrorRateLimitExceed = "error.rate_limit_exceeded"
)

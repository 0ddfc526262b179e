// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/tubetrade/dealdesk/internal/utils"
)

type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindNotFound        ErrorKind = "not_found"
	KindConflict        ErrorKind = "conflict"
	KindInternal        ErrorKind = "internal"
)

// ServiceError is returned by every service for failures the caller can act
// on. Two errors match under errors.Is when their codes are equal.
type ServiceError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Field   string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	return ok && t.Code == e.Code
}

func newError(kind ErrorKind, code, message string) *ServiceError {
	return &ServiceError{Kind: kind, Code: code, Message: message}
}

var (
	ErrMissingField              = newError(KindValidation, "MISSING_FIELD", "a required field is missing")
	ErrInvalidField              = newError(KindValidation, "INVALID_FIELD", "a field is invalid")
	ErrSelfDealNotAllowed        = newError(KindValidation, "SELF_DEAL_NOT_ALLOWED", "You cannot create a deal with yourself")
	ErrAdOwnershipMismatch       = newError(KindValidation, "AD_OWNERSHIP_MISMATCH", "Ad not found or does not belong to the seller")
	ErrDuplicateTransactionID    = newError(KindValidation, "DUPLICATE_TRANSACTION_ID", "A deal with this transaction ID already exists")
	ErrPaymentMethodNotOffered   = newError(KindValidation, "PAYMENT_METHOD_NOT_OFFERED", "The selected payment method was not offered by the buyer")
	ErrInvalidStateForTransition = newError(KindValidation, "INVALID_STATE_FOR_TRANSITION", "The deal is not in a state that allows this action")
	ErrAlreadyConfirmed          = newError(KindValidation, "ALREADY_CONFIRMED", "Primary owner status has already been confirmed")
	ErrRightsNotYetGiven         = newError(KindValidation, "RIGHTS_NOT_YET_GIVEN", "The seller has not given rights to the agent yet")
	ErrDealClosed                = newError(KindValidation, "DEAL_CLOSED", "The deal is already closed")
	ErrFeeNotPaid                = newError(KindValidation, "FEE_NOT_PAID", "The escrow fee has not been paid")
	ErrFeePaymentsDisabled       = newError(KindValidation, "FEE_PAYMENTS_DISABLED", "Online escrow fee payment is not available")
	ErrNotSellerOrNotFound       = newError(KindValidation, "NOT_SELLER_OR_NOT_FOUND", "Deal not found or you are not the seller")
	ErrNotParticipant            = newError(KindValidation, "NOT_PARTICIPANT", "Deal not found or you are not a participant")
	ErrAdNotFound                = newError(KindNotFound, "AD_NOT_FOUND", "Ad not found")
	ErrChatNotFound              = newError(KindNotFound, "CHAT_NOT_FOUND", "Chat not found")
	ErrSelfChatNotAllowed        = newError(KindValidation, "SELF_CHAT_NOT_ALLOWED", "You cannot open a chat on your own ad")
	ErrUserExists                = newError(KindValidation, "USER_EXISTS", "A user with this email or username already exists")
	ErrInvalidCredentials        = newError(KindUnauthenticated, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrAccountSuspended          = newError(KindForbidden, "ACCOUNT_SUSPENDED", "This account has been suspended")
	ErrUnauthenticated           = newError(KindUnauthenticated, "UNAUTHENTICATED", "Authentication required")
	ErrForbidden                 = newError(KindForbidden, "FORBIDDEN", "Admin access required")
	ErrDealNotFound              = newError(KindNotFound, "DEAL_NOT_FOUND", "Deal not found")
	ErrConcurrentModification    = newError(KindConflict, "CONCURRENT_MODIFICATION", "The deal was modified by another request, please retry")
	ErrLockTimeout               = newError(KindConflict, "DEAL_LOCKED", "The deal is being updated by another request, please retry")
)

func missingField(field string) error {
	return &ServiceError{
		Kind:    KindValidation,
		Code:    ErrMissingField.Code,
		Message: fmt.Sprintf("%s is required", field),
		Field:   field,
	}
}

func invalidField(field, message string) error {
	return &ServiceError{
		Kind:    KindValidation,
		Code:    ErrInvalidField.Code,
		Message: message,
		Field:   field,
	}
}

// validationError turns validator failures into a ServiceError. A missing
// field is reported before any format error.
func validationError(err error) error {
	errs := utils.GetValidationErrors(err)
	if len(errs) == 0 {
		return invalidField("", err.Error())
	}
	for _, e := range errs {
		if e.Missing {
			return missingField(e.Field)
		}
	}
	return invalidField(errs[0].Field, errs[0].Message)
}

// KindOf returns the kind of err, or KindInternal for unknown errors.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

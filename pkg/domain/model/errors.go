package model

import "errors"

// Error kinds. Every domain error unwraps to exactly one of these, so callers
// classify failures with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
)

type DomainError struct {
	kind error
	msg  string
}

func (e *DomainError) Error() string { return e.msg }
func (e *DomainError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &DomainError{kind: kind, msg: msg}
}

var (
	ErrUserNotFound          = newError(ErrNotFound, "user not found")
	ErrProductNotFound       = newError(ErrNotFound, "product not found")
	ErrOrderNotFound         = newError(ErrNotFound, "order not found")
	ErrEvaluationNotFound    = newError(ErrNotFound, "evaluation not found")
	ErrReturnRequestNotFound = newError(ErrNotFound, "return request not found")
	ErrCreditEntryNotFound   = newError(ErrNotFound, "credit entry not found")

	ErrActionNotPermitted = newError(ErrNotAuthorized, "caller is not allowed to perform this action")
	ErrNotOrderBuyer      = newError(ErrNotAuthorized, "caller is not the buyer of this order")
	ErrNotOrderParty      = newError(ErrNotAuthorized, "caller is neither buyer, seller nor staff")
	ErrStaffOnly          = newError(ErrNotAuthorized, "operation requires a staff account")

	ErrProductNotActive   = newError(ErrInvalidState, "product is not available for sale")
	ErrInvalidTransition  = newError(ErrInvalidState, "transition is not allowed from the current state")
	ErrOrderNotCompleted  = newError(ErrInvalidState, "order is not completed")
	ErrReturnNotEligible  = newError(ErrInvalidState, "order is not eligible for a return")
	ErrOptimisticLock     = newError(ErrConflict, "entity has been modified by another transaction")
	ErrEvaluationExists   = newError(ErrConflict, "order has already been evaluated")
	ErrActiveReturnExists = newError(ErrConflict, "order already has an active return request")

	ErrInvalidQuantity    = newError(ErrValidation, "quantity must be a positive number")
	ErrOwnProduct         = newError(ErrValidation, "buyer cannot order their own product")
	ErrReasonRequired     = newError(ErrValidation, "reason is required")
	ErrTextTooLong        = newError(ErrValidation, "text exceeds the maximum length")
	ErrInvalidRating      = newError(ErrValidation, "rating must be between 1 and 5")
	ErrInvalidReasonCode  = newError(ErrValidation, "unknown return reason code")
	ErrInvalidDecision    = newError(ErrValidation, "unknown resolution decision")
	ErrInvalidCreditDelta = newError(ErrValidation, "credit adjustment is out of range")
	ErrInvalidTradeTime   = newError(ErrValidation, "trade time is required")
	ErrInvalidQuery       = newError(ErrValidation, "invalid listing query")
)

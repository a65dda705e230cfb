package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ReturnStatus int

const (
	AwaitingSeller ReturnStatus = iota
	SellerAgreed
	SellerRejected
	AwaitingAdminIntervention
	AdminResolvedRefund
	AdminResolvedDeclined
	ReturnClosed
)

var returnStatusNames = map[ReturnStatus]string{
	AwaitingSeller:            "AwaitingSeller",
	SellerAgreed:              "SellerAgreed",
	SellerRejected:            "SellerRejected",
	AwaitingAdminIntervention: "AwaitingAdminIntervention",
	AdminResolvedRefund:       "AdminResolved-Refund",
	AdminResolvedDeclined:     "AdminResolved-Declined",
	ReturnClosed:              "Closed",
}

func (s ReturnStatus) String() string {
	if name, ok := returnStatusNames[s]; ok {
		return name
	}
	return "Unknown"
}

func ParseReturnStatus(s string) (ReturnStatus, error) {
	for status, name := range returnStatusNames {
		if strings.EqualFold(name, s) {
			return status, nil
		}
	}
	return 0, ErrInvalidQuery
}

// IsActive reports whether the request still blocks a new one for the same order.
func (s ReturnStatus) IsActive() bool {
	return s == AwaitingSeller || s == SellerRejected || s == AwaitingAdminIntervention
}

type ReturnReasonCode string

const (
	ReasonDefective         ReturnReasonCode = "DEFECTIVE"
	ReasonWrongItemReceived ReturnReasonCode = "WRONG_ITEM_RECEIVED"
	ReasonNotAsDescribed    ReturnReasonCode = "NOT_AS_DESCRIBED"
	ReasonChangedMind       ReturnReasonCode = "CHANGED_MIND"
	ReasonOther             ReturnReasonCode = "OTHER"
)

func ParseReturnReasonCode(s string) (ReturnReasonCode, error) {
	code := ReturnReasonCode(strings.ToUpper(strings.TrimSpace(s)))
	switch code {
	case ReasonDefective, ReasonWrongItemReceived, ReasonNotAsDescribed, ReasonChangedMind, ReasonOther:
		return code, nil
	case "":
		return ReasonOther, nil
	}
	return "", ErrInvalidReasonCode
}

type ReturnAction int

const (
	ReturnOpen ReturnAction = iota
	ReturnAgree
	ReturnDisagree
	ReturnEscalate
	ReturnRefund
	ReturnDecline
	ReturnWithdraw
)

func (a ReturnAction) String() string {
	switch a {
	case ReturnOpen:
		return "opened"
	case ReturnAgree:
		return "seller_agreed"
	case ReturnDisagree:
		return "seller_rejected"
	case ReturnEscalate:
		return "escalated"
	case ReturnRefund:
		return "admin_refund"
	case ReturnDecline:
		return "admin_declined"
	case ReturnWithdraw:
		return "withdrawn"
	}
	return "unknown"
}

func ParseResolutionDecision(s string) (ReturnAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "refund", "refund_approved":
		return ReturnRefund, nil
	case "decline", "refund_declined":
		return ReturnDecline, nil
	}
	return 0, ErrInvalidDecision
}

type ReturnTransition struct {
	To          ReturnStatus
	Restock     bool
	OrderReturn ReturnState
}

var returnTransitions = map[ReturnStatus]map[ReturnAction]ReturnTransition{
	AwaitingSeller: {
		ReturnAgree:    {To: SellerAgreed, Restock: true, OrderReturn: Returned},
		ReturnDisagree: {To: SellerRejected, OrderReturn: ReturnInProgress},
		ReturnWithdraw: {To: ReturnClosed, OrderReturn: ReturnNone},
	},
	SellerRejected: {
		ReturnEscalate: {To: AwaitingAdminIntervention, OrderReturn: ReturnInProgress},
		ReturnWithdraw: {To: ReturnClosed, OrderReturn: ReturnNone},
	},
	AwaitingAdminIntervention: {
		ReturnRefund:  {To: AdminResolvedRefund, Restock: true, OrderReturn: Returned},
		ReturnDecline: {To: AdminResolvedDeclined, OrderReturn: ReturnRefused},
	},
}

var returnActionRoles = map[ReturnAction]ActorRole{
	ReturnOpen:     RoleBuyer,
	ReturnAgree:    RoleSeller,
	ReturnDisagree: RoleSeller,
	ReturnEscalate: RoleBuyer,
	ReturnRefund:   RoleAdmin,
	ReturnDecline:  RoleAdmin,
	ReturnWithdraw: RoleBuyer,
}

func NextReturnState(from ReturnStatus, action ReturnAction) (ReturnTransition, error) {
	transition, ok := returnTransitions[from][action]
	if !ok {
		return ReturnTransition{}, ErrInvalidTransition
	}
	return transition, nil
}

type ReturnRequest struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	BuyerID       uuid.UUID
	SellerID      uuid.UUID
	ProductID     uuid.UUID
	Quantity      int
	Reason        string
	ReasonCode    ReturnReasonCode
	Status        ReturnStatus
	Log           []ResolutionEntry
	SellerActedAt *time.Time
	AdminActedAt  *time.Time
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ResolutionEntry is one immutable line of a return request's history.
type ResolutionEntry struct {
	ID              uuid.UUID
	ReturnRequestID uuid.UUID
	ActorID         uuid.UUID
	ActorRole       ActorRole
	Action          ReturnAction
	Notes           string
	CreatedAt       time.Time
}

// RoleFor returns the role the actor must hold to take the action, or false
// when the actor has no such relationship to the request.
func (r *ReturnRequest) RoleFor(action ReturnAction, actor Actor) (ActorRole, bool) {
	required := returnActionRoles[action]
	switch required {
	case RoleBuyer:
		return required, actor.ID == r.BuyerID
	case RoleSeller:
		return required, actor.ID == r.SellerID
	case RoleAdmin:
		return required, actor.Staff
	}
	return required, false
}

func (r *ReturnRequest) VisibleTo(actor Actor) bool {
	return actor.ID == r.BuyerID || actor.ID == r.SellerID || actor.Staff
}

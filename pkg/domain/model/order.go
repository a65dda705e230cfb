package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxReasonLength = 1000

type OrderStatus int

const (
	PendingSellerConfirmation OrderStatus = iota
	ConfirmedBySeller
	Completed
	Cancelled
	Rejected
)

var orderStatusNames = map[OrderStatus]string{
	PendingSellerConfirmation: "PendingSellerConfirmation",
	ConfirmedBySeller:         "ConfirmedBySeller",
	Completed:                 "Completed",
	Cancelled:                 "Cancelled",
	Rejected:                  "Rejected",
}

func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return "Unknown"
}

func (s OrderStatus) IsTerminal() bool {
	return s == Completed || s == Cancelled || s == Rejected
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for status, name := range orderStatusNames {
		if strings.EqualFold(name, s) {
			return status, nil
		}
	}
	return 0, ErrInvalidQuery
}

// ReturnState tracks the return workflow of a completed order without touching
// its lifecycle status.
type ReturnState int

const (
	ReturnNone ReturnState = iota
	ReturnInProgress
	Returned
	ReturnRefused
)

func (s ReturnState) String() string {
	switch s {
	case ReturnInProgress:
		return "InProgress"
	case Returned:
		return "Returned"
	case ReturnRefused:
		return "Refused"
	}
	return "None"
}

type Order struct {
	ID             uuid.UUID
	BuyerID        uuid.UUID
	SellerID       uuid.UUID
	ProductID      uuid.UUID
	Quantity       int
	TotalCents     int64
	TradeTime      time.Time
	TradeLocation  string
	Status         OrderStatus
	StockCommitted bool
	ReturnState    ReturnState
	CancelReason   string
	CancelledBy    *uuid.UUID
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
	CancelledAt    *time.Time
}

// RoleOf reports how the actor relates to the order. Staff who are not a
// party to the order act as admin.
func (o *Order) RoleOf(actor Actor) (ActorRole, bool) {
	switch {
	case actor.IsSystem():
		return RoleSystem, true
	case actor.ID == o.BuyerID:
		return RoleBuyer, true
	case actor.ID == o.SellerID:
		return RoleSeller, true
	case actor.Staff:
		return RoleAdmin, true
	}
	return 0, false
}

func (o *Order) VisibleTo(actor Actor) bool {
	role, ok := o.RoleOf(actor)
	return ok && role != RoleSystem
}

func ValidateReason(reason string, required bool) error {
	reason = strings.TrimSpace(reason)
	if required && reason == "" {
		return ErrReasonRequired
	}
	if len([]rune(reason)) > MaxReasonLength {
		return ErrTextTooLong
	}
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

const MaxManualAdjustment = 1000

type CreditReason int

const (
	CreditCompletionBonus CreditReason = iota
	CreditEvaluationAdjustment
	CreditAdminAdjustment
)

func (r CreditReason) String() string {
	switch r {
	case CreditCompletionBonus:
		return "completion_bonus"
	case CreditEvaluationAdjustment:
		return "evaluation_adjustment"
	case CreditAdminAdjustment:
		return "admin_adjustment"
	}
	return "unknown"
}

// CreditEntry records one mutation of a user's credit score. Reason and
// ReferenceID together identify the triggering fact, so a fact is applied once.
type CreditEntry struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Reason      CreditReason
	ReferenceID uuid.UUID
	Delta       int
	Applied     int
	Balance     int
	Note        string
	CreatedAt   time.Time
}

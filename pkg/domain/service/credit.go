package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"campustrade/pkg/domain/model"
)

type CreditPolicy struct {
	CompletionBonus int
	// EvaluationStep is the credit change per rating point away from the neutral 3.
	EvaluationStep int
}

func DefaultCreditPolicy() CreditPolicy {
	return CreditPolicy{CompletionBonus: 5, EvaluationStep: 2}
}

func (p CreditPolicy) EvaluationDelta(rating int) int {
	return (rating - (model.MinRating+model.MaxRating)/2) * p.EvaluationStep
}

// CreditLedger owns every mutation of a user's credit score. One ledger entry
// is written per triggering fact; replaying a fact returns the original entry.
type CreditLedger interface {
	ApplyCompletionBonus(ctx context.Context, repos model.RepositoryProvider, sellerID, orderID uuid.UUID) (*model.CreditEntry, error)
	ApplyEvaluationAdjustment(ctx context.Context, repos model.RepositoryProvider, sellerID, orderID uuid.UUID, rating int) (*model.CreditEntry, error)
	AdjustCredit(ctx context.Context, adminID, userID uuid.UUID, delta int, note string) (*model.CreditEntry, error)
}

func NewCreditLedger(uow model.UnitOfWork, policy CreditPolicy, dispatcher EventDispatcher, logger log.FieldLogger) CreditLedger {
	return &creditLedger{uow: uow, policy: policy, dispatcher: dispatcher, logger: logger}
}

type creditLedger struct {
	uow        model.UnitOfWork
	policy     CreditPolicy
	dispatcher EventDispatcher
	logger     log.FieldLogger
}

func (l *creditLedger) ApplyCompletionBonus(ctx context.Context, repos model.RepositoryProvider, sellerID, orderID uuid.UUID) (*model.CreditEntry, error) {
	return l.apply(ctx, repos, sellerID, model.CreditCompletionBonus, orderID, l.policy.CompletionBonus, "")
}

func (l *creditLedger) ApplyEvaluationAdjustment(ctx context.Context, repos model.RepositoryProvider, sellerID, orderID uuid.UUID, rating int) (*model.CreditEntry, error) {
	if err := model.ValidateRating(rating); err != nil {
		return nil, err
	}
	return l.apply(ctx, repos, sellerID, model.CreditEvaluationAdjustment, orderID, l.policy.EvaluationDelta(rating), "")
}

func (l *creditLedger) AdjustCredit(ctx context.Context, adminID, userID uuid.UUID, delta int, note string) (*model.CreditEntry, error) {
	if delta == 0 || delta < -model.MaxManualAdjustment || delta > model.MaxManualAdjustment {
		return nil, model.ErrInvalidCreditDelta
	}
	if err := model.ValidateReason(note, true); err != nil {
		return nil, err
	}

	var entry *model.CreditEntry
	err := l.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		if err := requireStaff(ctx, repos, adminID); err != nil {
			return err
		}

		referenceID, err := repos.Credits().NextID()
		if err != nil {
			return err
		}
		entry, err = l.apply(ctx, repos, userID, model.CreditAdminAdjustment, referenceID, delta, strings.TrimSpace(note))
		return err
	})
	if err != nil {
		return nil, err
	}

	pendingEvents{creditAdjusted(entry)}.dispatch(l.dispatcher, l.logger)
	return entry, nil
}

func (l *creditLedger) apply(ctx context.Context, repos model.RepositoryProvider, userID uuid.UUID, reason model.CreditReason, referenceID uuid.UUID, delta int, note string) (*model.CreditEntry, error) {
	existing, err := repos.Credits().FindByReference(ctx, reason, referenceID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, model.ErrCreditEntryNotFound):
		return nil, err
	}

	user, err := repos.Users().FindForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	entryID, err := repos.Credits().NextID()
	if err != nil {
		return nil, err
	}

	balance := model.ClampCredit(user.Credit + delta)
	now := time.Now().UTC()
	entry := &model.CreditEntry{
		ID:          entryID,
		UserID:      userID,
		Reason:      reason,
		ReferenceID: referenceID,
		Delta:       delta,
		Applied:     balance - user.Credit,
		Balance:     balance,
		Note:        note,
		CreatedAt:   now,
	}

	if err := repos.Credits().Append(ctx, entry); err != nil {
		return nil, err
	}

	user.Credit = balance
	user.Version++
	user.UpdatedAt = now
	if err := repos.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return entry, nil
}

func creditAdjusted(entry *model.CreditEntry) model.CreditAdjusted {
	return model.CreditAdjusted{
		UserID:      entry.UserID,
		Reason:      entry.Reason,
		ReferenceID: entry.ReferenceID,
		Applied:     entry.Applied,
		Balance:     entry.Balance,
	}
}

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

type EvaluationService interface {
	CreateEvaluation(ctx context.Context, orderID, buyerID uuid.UUID, rating int, content string) (*model.Evaluation, error)
	// DeleteEvaluation removes an evaluation on behalf of staff. The credit
	// change it caused stays in the ledger and the order cannot be evaluated again.
	DeleteEvaluation(ctx context.Context, evaluationID, adminID uuid.UUID) error
	GetEvaluation(ctx context.Context, evaluationID uuid.UUID) (*model.Evaluation, error)
	// ListEvaluations lists what query.UserID made or received. ListAll is staff only.
	ListEvaluations(ctx context.Context, query model.EvaluationQuery) ([]*model.Evaluation, int, error)
}

func NewEvaluationService(uow model.UnitOfWork, credit CreditLedger, dispatcher EventDispatcher, logger log.FieldLogger) EvaluationService {
	return &evaluationService{uow: uow, credit: credit, dispatcher: dispatcher, logger: logger}
}

type evaluationService struct {
	uow        model.UnitOfWork
	credit     CreditLedger
	dispatcher EventDispatcher
	logger     log.FieldLogger
}

func (s *evaluationService) CreateEvaluation(ctx context.Context, orderID, buyerID uuid.UUID, rating int, content string) (*model.Evaluation, error) {
	var evaluation *model.Evaluation
	var events pendingEvents
	err := s.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		events.reset()

		order, err := repos.Orders().FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != buyerID {
			return model.ErrNotOrderBuyer
		}
		if order.Status != model.Completed {
			return model.ErrOrderNotCompleted
		}

		_, err = repos.Evaluations().FindByOrder(ctx, orderID)
		switch {
		case err == nil:
			return model.ErrEvaluationExists
		case !errors.Is(err, model.ErrEvaluationNotFound):
			return err
		}
		// A deleted evaluation leaves its credit entry behind.
		_, err = repos.Credits().FindByReference(ctx, model.CreditEvaluationAdjustment, orderID)
		switch {
		case err == nil:
			return model.ErrEvaluationExists
		case !errors.Is(err, model.ErrCreditEntryNotFound):
			return err
		}

		if err := model.ValidateRating(rating); err != nil {
			return err
		}
		content = strings.TrimSpace(content)
		if len([]rune(content)) > model.MaxContentLength {
			return model.ErrTextTooLong
		}

		evaluationID, err := repos.Evaluations().NextID()
		if err != nil {
			return err
		}
		evaluation = &model.Evaluation{
			ID:        evaluationID,
			OrderID:   orderID,
			BuyerID:   order.BuyerID,
			SellerID:  order.SellerID,
			Rating:    rating,
			Content:   content,
			CreatedAt: time.Now().UTC(),
		}
		if err := repos.Evaluations().Create(ctx, evaluation); err != nil {
			return err
		}

		entry, err := s.credit.ApplyEvaluationAdjustment(ctx, repos, order.SellerID, orderID, rating)
		if err != nil {
			return err
		}

		events.add(
			model.EvaluationCreated{EvaluationID: evaluationID, OrderID: orderID, SellerID: order.SellerID, Rating: rating},
			creditAdjusted(entry),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.dispatch(s.dispatcher, s.logger)
	return evaluation, nil
}

func (s *evaluationService) DeleteEvaluation(ctx context.Context, evaluationID, adminID uuid.UUID) error {
	err := s.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		if err := requireStaff(ctx, repos, adminID); err != nil {
			return err
		}
		if _, err := repos.Evaluations().Find(ctx, evaluationID); err != nil {
			return err
		}
		return repos.Evaluations().Delete(ctx, evaluationID)
	})
	if err != nil {
		return err
	}

	pendingEvents{model.EvaluationDeleted{EvaluationID: evaluationID, DeletedBy: adminID}}.dispatch(s.dispatcher, s.logger)
	return nil
}

func (s *evaluationService) GetEvaluation(ctx context.Context, evaluationID uuid.UUID) (*model.Evaluation, error) {
	var evaluation *model.Evaluation
	err := s.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		var err error
		evaluation, err = repos.Evaluations().Find(ctx, evaluationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return evaluation, nil
}

func (s *evaluationService) ListEvaluations(ctx context.Context, query model.EvaluationQuery) ([]*model.Evaluation, int, error) {
	if err := query.Normalize(); err != nil {
		return nil, 0, err
	}

	var evaluations []*model.Evaluation
	var total int
	err := s.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		if query.Role == model.ListAll {
			if err := requireStaff(ctx, repos, query.UserID); err != nil {
				return err
			}
		}
		var err error
		evaluations, total, err = repos.Evaluations().List(ctx, query)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return evaluations, total, nil
}

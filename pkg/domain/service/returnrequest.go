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

type ReturnRequestService interface {
	CreateReturnRequest(ctx context.Context, orderID, buyerID uuid.UUID, reason string, code model.ReturnReasonCode) (*model.ReturnRequest, error)
	SellerDecide(ctx context.Context, requestID, sellerID uuid.UUID, agree bool, notes string) (*model.ReturnRequest, error)
	RequestIntervention(ctx context.Context, requestID, buyerID uuid.UUID, reason string) (*model.ReturnRequest, error)
	AdminResolve(ctx context.Context, requestID, adminID uuid.UUID, decision model.ReturnAction, notes string) (*model.ReturnRequest, error)
	// CloseReturnRequest lets the buyer withdraw a request the seller has not accepted.
	CloseReturnRequest(ctx context.Context, requestID, buyerID uuid.UUID, notes string) (*model.ReturnRequest, error)
	GetReturnRequest(ctx context.Context, requestID, actorID uuid.UUID) (*model.ReturnRequest, error)
	// ListReturnRequests lists requests of query.UserID without their logs.
	// ListAll lists every request and is staff only.
	ListReturnRequests(ctx context.Context, query model.ReturnRequestQuery) ([]*model.ReturnRequest, int, error)
}

func NewReturnRequestService(uow model.UnitOfWork, inventory InventoryLedger, dispatcher EventDispatcher, logger log.FieldLogger) ReturnRequestService {
	return &returnRequestService{uow: uow, inventory: inventory, dispatcher: dispatcher, logger: logger}
}

type returnRequestService struct {
	uow        model.UnitOfWork
	inventory  InventoryLedger
	dispatcher EventDispatcher
	logger     log.FieldLogger
}

func (s *returnRequestService) CreateReturnRequest(ctx context.Context, orderID, buyerID uuid.UUID, reason string, code model.ReturnReasonCode) (*model.ReturnRequest, error) {
	if err := model.ValidateReason(reason, true); err != nil {
		return nil, err
	}
	code, err := model.ParseReturnReasonCode(string(code))
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)

	var request *model.ReturnRequest
	var events pendingEvents
	err = s.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		events.reset()

		order, err := repos.Orders().FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != buyerID {
			return model.ErrNotOrderBuyer
		}
		if order.Status != model.Completed || order.ReturnState == model.Returned || order.ReturnState == model.ReturnRefused {
			return model.ErrReturnNotEligible
		}

		_, err = repos.ReturnRequests().FindActiveByOrder(ctx, orderID)
		switch {
		case err == nil:
			return model.ErrActiveReturnExists
		case !errors.Is(err, model.ErrReturnRequestNotFound):
			return err
		}

		requestID, err := repos.ReturnRequests().NextID()
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		request = &model.ReturnRequest{
			ID:         requestID,
			OrderID:    orderID,
			BuyerID:    order.BuyerID,
			SellerID:   order.SellerID,
			ProductID:  order.ProductID,
			Quantity:   order.Quantity,
			Reason:     reason,
			ReasonCode: code,
			Status:     model.AwaitingSeller,
			Version:    1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := repos.ReturnRequests().Create(ctx, request); err != nil {
			return err
		}
		if err := s.appendLog(ctx, repos, request, buyerID, model.RoleBuyer, model.ReturnOpen, reason, now); err != nil {
			return err
		}

		order.ReturnState = model.ReturnInProgress
		order.Version++
		order.UpdatedAt = now
		if err := repos.Orders().Update(ctx, order); err != nil {
			return err
		}

		events.add(model.ReturnRequested{
			ReturnRequestID: requestID,
			OrderID:         orderID,
			SellerID:        order.SellerID,
			ReasonCode:      code,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.dispatch(s.dispatcher, s.logger)
	return request, nil
}

func (s *returnRequestService) SellerDecide(ctx context.Context, requestID, sellerID uuid.UUID, agree bool, notes string) (*model.ReturnRequest, error) {
	action := model.ReturnDisagree
	if agree {
		action = model.ReturnAgree
	}
	return s.act(ctx, requestID, sellerID, action, notes, false)
}

func (s *returnRequestService) RequestIntervention(ctx context.Context, requestID, buyerID uuid.UUID, reason string) (*model.ReturnRequest, error) {
	return s.act(ctx, requestID, buyerID, model.ReturnEscalate, reason, true)
}

func (s *returnRequestService) AdminResolve(ctx context.Context, requestID, adminID uuid.UUID, decision model.ReturnAction, notes string) (*model.ReturnRequest, error) {
	if decision != model.ReturnRefund && decision != model.ReturnDecline {
		return nil, model.ErrInvalidDecision
	}
	return s.act(ctx, requestID, adminID, decision, notes, false)
}

func (s *returnRequestService) CloseReturnRequest(ctx context.Context, requestID, buyerID uuid.UUID, notes string) (*model.ReturnRequest, error) {
	return s.act(ctx, requestID, buyerID, model.ReturnWithdraw, notes, false)
}

func (s *returnRequestService) GetReturnRequest(ctx context.Context, requestID, actorID uuid.UUID) (*model.ReturnRequest, error) {
	var request *model.ReturnRequest
	err := s.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		actor, err := repos.Users().Find(ctx, actorID)
		if err != nil {
			return err
		}
		request, err = repos.ReturnRequests().Find(ctx, requestID)
		if err != nil {
			return err
		}
		if !request.VisibleTo(model.ActorOf(actor)) {
			return model.ErrNotOrderParty
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *returnRequestService) ListReturnRequests(ctx context.Context, query model.ReturnRequestQuery) ([]*model.ReturnRequest, int, error) {
	if err := query.Normalize(); err != nil {
		return nil, 0, err
	}

	var requests []*model.ReturnRequest
	var total int
	err := s.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		if query.Role == model.ListAll {
			if err := requireStaff(ctx, repos, query.UserID); err != nil {
				return err
			}
		}
		var err error
		requests, total, err = repos.ReturnRequests().List(ctx, query)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (s *returnRequestService) act(ctx context.Context, requestID, actorID uuid.UUID, action model.ReturnAction, notes string, notesRequired bool) (*model.ReturnRequest, error) {
	if err := model.ValidateReason(notes, notesRequired); err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)

	var request *model.ReturnRequest
	var events pendingEvents
	err := s.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		events.reset()

		user, err := repos.Users().Find(ctx, actorID)
		if err != nil {
			return err
		}
		actor := model.ActorOf(user)

		current, err := repos.ReturnRequests().Find(ctx, requestID)
		if err != nil {
			return err
		}
		role, ok := current.RoleFor(action, actor)
		if !ok {
			return model.ErrActionNotPermitted
		}

		// Lock order before request, the same order creation uses.
		order, err := repos.Orders().FindForUpdate(ctx, current.OrderID)
		if err != nil {
			return err
		}
		request, err = repos.ReturnRequests().FindForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		transition, err := model.NextReturnState(request.Status, action)
		if err != nil {
			return err
		}

		if transition.Restock {
			change, err := s.inventory.IncrementStock(ctx, repos, request.ProductID, request.Quantity)
			if err != nil {
				return err
			}
			events.add(change)
		}

		now := time.Now().UTC()
		from := request.Status
		request.Status = transition.To
		switch role {
		case model.RoleSeller:
			request.SellerActedAt = &now
		case model.RoleAdmin:
			request.AdminActedAt = &now
		}
		request.Version++
		request.UpdatedAt = now
		if err := repos.ReturnRequests().Update(ctx, request); err != nil {
			return err
		}
		if err := s.appendLog(ctx, repos, request, actorID, role, action, notes, now); err != nil {
			return err
		}

		order.ReturnState = transition.OrderReturn
		order.Version++
		order.UpdatedAt = now
		if err := repos.Orders().Update(ctx, order); err != nil {
			return err
		}

		events.add(model.ReturnStatusChanged{
			ReturnRequestID: request.ID,
			OrderID:         request.OrderID,
			Action:          action.String(),
			From:            from.String(),
			To:              request.Status.String(),
			ActorID:         actorID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.dispatch(s.dispatcher, s.logger)
	return request, nil
}

func (s *returnRequestService) appendLog(ctx context.Context, repos model.RepositoryProvider, request *model.ReturnRequest, actorID uuid.UUID, role model.ActorRole, action model.ReturnAction, notes string, at time.Time) error {
	entryID, err := repos.ReturnRequests().NextID()
	if err != nil {
		return err
	}
	entry := model.ResolutionEntry{
		ID:              entryID,
		ReturnRequestID: request.ID,
		ActorID:         actorID,
		ActorRole:       role,
		Action:          action,
		Notes:           notes,
		CreatedAt:       at,
	}
	if err := repos.ReturnRequests().AppendLog(ctx, &entry); err != nil {
		return err
	}
	request.Log = append(request.Log, entry)
	return nil
}

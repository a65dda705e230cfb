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

const expiredReason = "expired: seller did not confirm in time"

type OrderService interface {
	CreateOrder(ctx context.Context, buyerID, productID uuid.UUID, quantity int, tradeTime time.Time, tradeLocation string) (*model.Order, error)
	ConfirmOrder(ctx context.Context, orderID, sellerID uuid.UUID) (*model.Order, error)
	RejectOrder(ctx context.Context, orderID, sellerID uuid.UUID, reason string) (*model.Order, error)
	CompleteOrder(ctx context.Context, orderID, actorID uuid.UUID) (*model.Order, error)
	CancelOrder(ctx context.Context, orderID, actorID uuid.UUID, reason string) (*model.Order, error)

	// ExpireStaleOrders cancels orders left pending for longer than ttl and
	// returns how many were cancelled.
	ExpireStaleOrders(ctx context.Context, ttl time.Duration) (int, error)

	GetOrder(ctx context.Context, orderID, actorID uuid.UUID) (*model.Order, error)
	// ListOrders lists the orders of query.UserID. ListAll lists every order
	// and is staff only.
	ListOrders(ctx context.Context, query model.OrderQuery) ([]*model.Order, int, error)
}

func NewOrderService(
	uow model.UnitOfWork,
	inventory InventoryLedger,
	credit CreditLedger,
	dispatcher EventDispatcher,
	logger log.FieldLogger,
) OrderService {
	return &orderService{
		uow:        uow,
		inventory:  inventory,
		credit:     credit,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type orderService struct {
	uow        model.UnitOfWork
	inventory  InventoryLedger
	credit     CreditLedger
	dispatcher EventDispatcher
	logger     log.FieldLogger
}

func (s *orderService) CreateOrder(ctx context.Context, buyerID, productID uuid.UUID, quantity int, tradeTime time.Time, tradeLocation string) (*model.Order, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}
	if tradeTime.IsZero() {
		return nil, model.ErrInvalidTradeTime
	}
	tradeLocation = strings.TrimSpace(tradeLocation)
	if len([]rune(tradeLocation)) > model.MaxReasonLength {
		return nil, model.ErrTextTooLong
	}

	var order *model.Order
	var events pendingEvents
	err := s.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		events.reset()

		if _, err := repos.Users().Find(ctx, buyerID); err != nil {
			return err
		}

		product, err := repos.Products().Find(ctx, productID)
		if err != nil {
			return err
		}
		if product.OwnerID == buyerID {
			return model.ErrOwnProduct
		}
		if product.Status != model.ProductActive {
			return model.ErrProductNotActive
		}
		if product.Quantity < quantity {
			return model.ErrInsufficientStock
		}

		orderID, err := repos.Orders().NextID()
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		order = &model.Order{
			ID:            orderID,
			BuyerID:       buyerID,
			SellerID:      product.OwnerID,
			ProductID:     productID,
			Quantity:      quantity,
			TotalCents:    product.PriceCents * int64(quantity),
			TradeTime:     tradeTime.UTC(),
			TradeLocation: tradeLocation,
			Status:        model.PendingSellerConfirmation,
			Version:       1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}

		events.add(model.OrderCreated{
			OrderID:   orderID,
			BuyerID:   buyerID,
			SellerID:  order.SellerID,
			ProductID: productID,
			Quantity:  quantity,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.dispatch(s.dispatcher, s.logger)
	return order, nil
}

func (s *orderService) ConfirmOrder(ctx context.Context, orderID, sellerID uuid.UUID) (*model.Order, error) {
	return s.fire(ctx, orderID, sellerID, model.OrderConfirm, "")
}

func (s *orderService) RejectOrder(ctx context.Context, orderID, sellerID uuid.UUID, reason string) (*model.Order, error) {
	return s.fire(ctx, orderID, sellerID, model.OrderReject, reason)
}

func (s *orderService) CompleteOrder(ctx context.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
	return s.fire(ctx, orderID, actorID, model.OrderComplete, "")
}

func (s *orderService) CancelOrder(ctx context.Context, orderID, actorID uuid.UUID, reason string) (*model.Order, error) {
	return s.fire(ctx, orderID, actorID, model.OrderCancel, reason)
}

func (s *orderService) ExpireStaleOrders(ctx context.Context, ttl time.Duration) (int, error) {
	var ids []uuid.UUID
	err := s.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		var err error
		ids, err = repos.Orders().FindStalePending(ctx, time.Now().UTC().Add(-ttl), 100)
		return err
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		// The order may have been confirmed or cancelled since it was listed.
		if _, err := s.fire(ctx, id, uuid.Nil, model.OrderExpire, expiredReason); err != nil {
			if errors.Is(err, model.ErrInvalidState) {
				continue
			}
			s.logger.WithError(err).WithField("order", id).Error("failed to expire order")
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
	var order *model.Order
	err := s.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		actor, err := s.resolveActor(ctx, repos, actorID)
		if err != nil {
			return err
		}
		order, err = repos.Orders().Find(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.VisibleTo(actor) {
			return model.ErrNotOrderParty
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, query model.OrderQuery) ([]*model.Order, int, error) {
	if err := query.Normalize(); err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	var total int
	err := s.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		if query.Role == model.ListAll {
			if err := requireStaff(ctx, repos, query.UserID); err != nil {
				return err
			}
		}
		var err error
		orders, total, err = repos.Orders().List(ctx, query)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// fire moves the order through one transition of the state machine and runs
// the transition's side effects in the same unit of work.
func (s *orderService) fire(ctx context.Context, orderID, actorID uuid.UUID, event model.OrderEvent, reason string) (*model.Order, error) {
	if err := model.ValidateReason(reason, event.RequiresReason()); err != nil {
		return nil, err
	}

	var order *model.Order
	var events pendingEvents
	err := s.uow.Execute(ctx, func(repos model.RepositoryProvider) error {
		events.reset()

		var err error
		order, err = repos.Orders().FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		actor, err := s.resolveActor(ctx, repos, actorID)
		if err != nil {
			return err
		}
		if !order.Permits(event, actor) {
			return model.ErrActionNotPermitted
		}

		transition, err := model.NextOrderState(order.Status, event)
		if err != nil {
			return err
		}

		for _, effect := range transition.Effects {
			if err := s.runEffect(ctx, repos, order, effect, &events); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		order.Status = transition.To
		switch transition.To {
		case model.Completed:
			order.CompletedAt = &now
		case model.Cancelled, model.Rejected:
			order.CancelledAt = &now
			order.CancelReason = strings.TrimSpace(reason)
			if !actor.IsSystem() {
				order.CancelledBy = &actor.ID
			}
		}

		if err := s.updateOrder(ctx, repos, order, now); err != nil {
			return err
		}

		events.add(orderEvent(order, event))
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.dispatch(s.dispatcher, s.logger)
	return order, nil
}

func (s *orderService) runEffect(ctx context.Context, repos model.RepositoryProvider, order *model.Order, effect model.Effect, events *pendingEvents) error {
	switch effect {
	case model.EffectDecrementStock:
		change, err := s.inventory.DecrementStock(ctx, repos, order.ProductID, order.Quantity)
		if err != nil {
			return err
		}
		order.StockCommitted = true
		events.add(change)
	case model.EffectRestoreStock:
		if !order.StockCommitted {
			return nil
		}
		change, err := s.inventory.IncrementStock(ctx, repos, order.ProductID, order.Quantity)
		if err != nil {
			return err
		}
		order.StockCommitted = false
		events.add(change)
	case model.EffectCompletionBonus:
		entry, err := s.credit.ApplyCompletionBonus(ctx, repos, order.SellerID, order.ID)
		if err != nil {
			return err
		}
		events.add(creditAdjusted(entry))
	}
	return nil
}

func (s *orderService) resolveActor(ctx context.Context, repos model.RepositoryProvider, actorID uuid.UUID) (model.Actor, error) {
	if actorID == uuid.Nil {
		return model.Actor{}, nil
	}
	user, err := repos.Users().Find(ctx, actorID)
	if err != nil {
		return model.Actor{}, err
	}
	return model.ActorOf(user), nil
}

func (s *orderService) updateOrder(ctx context.Context, repos model.RepositoryProvider, order *model.Order, now time.Time) error {
	order.Version++
	order.UpdatedAt = now
	return repos.Orders().Update(ctx, order)
}

func orderEvent(order *model.Order, event model.OrderEvent) Event {
	switch event {
	case model.OrderConfirm:
		return model.OrderConfirmed{OrderID: order.ID, BuyerID: order.BuyerID, SellerID: order.SellerID}
	case model.OrderReject:
		return model.OrderRejected{OrderID: order.ID, BuyerID: order.BuyerID, Reason: order.CancelReason}
	case model.OrderComplete:
		return model.OrderCompleted{OrderID: order.ID, BuyerID: order.BuyerID, SellerID: order.SellerID}
	}
	return model.OrderCancelled{
		OrderID: order.ID,
		BuyerID: order.BuyerID,
		Reason:  order.CancelReason,
		Expired: event == model.OrderExpire,
	}
}

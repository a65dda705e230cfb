package transport

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campustrade/pkg/domain/model"
	"campustrade/pkg/domain/service"
)

type call struct {
	method  string
	id      uuid.UUID
	actorID uuid.UUID
	text    string
}

type stubOrders struct {
	service.OrderService
	order *model.Order
	err   error
	calls []call
	query model.OrderQuery
}

func (s *stubOrders) record(method string, id, actorID uuid.UUID, text string) (*model.Order, error) {
	s.calls = append(s.calls, call{method: method, id: id, actorID: actorID, text: text})
	return s.order, s.err
}

func (s *stubOrders) CreateOrder(_ context.Context, buyerID, productID uuid.UUID, _ int, _ time.Time, location string) (*model.Order, error) {
	return s.record("create", productID, buyerID, location)
}

func (s *stubOrders) ConfirmOrder(_ context.Context, orderID, sellerID uuid.UUID) (*model.Order, error) {
	return s.record("confirm", orderID, sellerID, "")
}

func (s *stubOrders) RejectOrder(_ context.Context, orderID, sellerID uuid.UUID, reason string) (*model.Order, error) {
	return s.record("reject", orderID, sellerID, reason)
}

func (s *stubOrders) CompleteOrder(_ context.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
	return s.record("complete", orderID, actorID, "")
}

func (s *stubOrders) CancelOrder(_ context.Context, orderID, actorID uuid.UUID, reason string) (*model.Order, error) {
	return s.record("cancel", orderID, actorID, reason)
}

func (s *stubOrders) GetOrder(_ context.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
	return s.record("get", orderID, actorID, "")
}

func (s *stubOrders) ListOrders(_ context.Context, query model.OrderQuery) ([]*model.Order, int, error) {
	s.query = query
	if s.err != nil {
		return nil, 0, s.err
	}
	if s.order == nil {
		return nil, 0, nil
	}
	return []*model.Order{s.order}, 1, nil
}

type stubEvaluations struct {
	service.EvaluationService
	evaluation *model.Evaluation
	err        error
	calls      []call
	query      model.EvaluationQuery
}

func (s *stubEvaluations) CreateEvaluation(_ context.Context, orderID, buyerID uuid.UUID, _ int, content string) (*model.Evaluation, error) {
	s.calls = append(s.calls, call{method: "create", id: orderID, actorID: buyerID, text: content})
	return s.evaluation, s.err
}

func (s *stubEvaluations) DeleteEvaluation(_ context.Context, evaluationID, adminID uuid.UUID) error {
	s.calls = append(s.calls, call{method: "delete", id: evaluationID, actorID: adminID})
	return s.err
}

func (s *stubEvaluations) GetEvaluation(_ context.Context, evaluationID uuid.UUID) (*model.Evaluation, error) {
	s.calls = append(s.calls, call{method: "get", id: evaluationID})
	return s.evaluation, s.err
}

func (s *stubEvaluations) ListEvaluations(_ context.Context, query model.EvaluationQuery) ([]*model.Evaluation, int, error) {
	s.query = query
	if s.err != nil || s.evaluation == nil {
		return nil, 0, s.err
	}
	return []*model.Evaluation{s.evaluation}, 1, nil
}

type stubReturns struct {
	service.ReturnRequestService
	request  *model.ReturnRequest
	err      error
	calls    []call
	code     model.ReturnReasonCode
	agree    bool
	decision model.ReturnAction
	query    model.ReturnRequestQuery
}

func (s *stubReturns) record(method string, id, actorID uuid.UUID, text string) (*model.ReturnRequest, error) {
	s.calls = append(s.calls, call{method: method, id: id, actorID: actorID, text: text})
	return s.request, s.err
}

func (s *stubReturns) CreateReturnRequest(_ context.Context, orderID, buyerID uuid.UUID, reason string, code model.ReturnReasonCode) (*model.ReturnRequest, error) {
	s.code = code
	return s.record("create", orderID, buyerID, reason)
}

func (s *stubReturns) SellerDecide(_ context.Context, requestID, sellerID uuid.UUID, agree bool, notes string) (*model.ReturnRequest, error) {
	s.agree = agree
	return s.record("decide", requestID, sellerID, notes)
}

func (s *stubReturns) RequestIntervention(_ context.Context, requestID, buyerID uuid.UUID, reason string) (*model.ReturnRequest, error) {
	return s.record("escalate", requestID, buyerID, reason)
}

func (s *stubReturns) AdminResolve(_ context.Context, requestID, adminID uuid.UUID, decision model.ReturnAction, notes string) (*model.ReturnRequest, error) {
	s.decision = decision
	return s.record("resolve", requestID, adminID, notes)
}

func (s *stubReturns) CloseReturnRequest(_ context.Context, requestID, buyerID uuid.UUID, notes string) (*model.ReturnRequest, error) {
	return s.record("close", requestID, buyerID, notes)
}

func (s *stubReturns) GetReturnRequest(_ context.Context, requestID, actorID uuid.UUID) (*model.ReturnRequest, error) {
	return s.record("get", requestID, actorID, "")
}

func (s *stubReturns) ListReturnRequests(_ context.Context, query model.ReturnRequestQuery) ([]*model.ReturnRequest, int, error) {
	s.query = query
	if s.err != nil || s.request == nil {
		return nil, 0, s.err
	}
	return []*model.ReturnRequest{s.request}, 1, nil
}

type stubCredit struct {
	service.CreditLedger
	entry *model.CreditEntry
	err   error
	calls []call
	delta int
}

func (s *stubCredit) AdjustCredit(_ context.Context, adminID, userID uuid.UUID, delta int, note string) (*model.CreditEntry, error) {
	s.delta = delta
	s.calls = append(s.calls, call{method: "adjust", id: userID, actorID: adminID, text: note})
	return s.entry, s.err
}

type stubPinger struct{ err error }

func (p *stubPinger) PingContext(context.Context) error { return p.err }

package transport

import (
	"time"

	"github.com/google/uuid"

	"campustrade/pkg/domain/model"
)

type orderResponse struct {
	ID            uuid.UUID  `json:"id"`
	BuyerID       uuid.UUID  `json:"buyerId"`
	SellerID      uuid.UUID  `json:"sellerId"`
	ProductID     uuid.UUID  `json:"productId"`
	Quantity      int        `json:"quantity"`
	TotalCents    int64      `json:"totalCents"`
	TradeTime     time.Time  `json:"tradeTime"`
	TradeLocation string     `json:"tradeLocation"`
	Status        string     `json:"status"`
	ReturnState   string     `json:"returnState"`
	CancelReason  string     `json:"cancelReason,omitempty"`
	CancelledBy   *uuid.UUID `json:"cancelledBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
}

func newOrderResponse(o *model.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		BuyerID:       o.BuyerID,
		SellerID:      o.SellerID,
		ProductID:     o.ProductID,
		Quantity:      o.Quantity,
		TotalCents:    o.TotalCents,
		TradeTime:     o.TradeTime,
		TradeLocation: o.TradeLocation,
		Status:        o.Status.String(),
		ReturnState:   o.ReturnState.String(),
		CancelReason:  o.CancelReason,
		CancelledBy:   o.CancelledBy,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		CompletedAt:   o.CompletedAt,
		CancelledAt:   o.CancelledAt,
	}
}

type listResponse[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func newListResponse[M any, T any](items []M, total, page, pageSize int, convert func(M) T) listResponse[T] {
	resp := listResponse[T]{Items: make([]T, 0, len(items)), Total: total, Page: page, PageSize: pageSize}
	for _, item := range items {
		resp.Items = append(resp.Items, convert(item))
	}
	return resp
}

type evaluationResponse struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"orderId"`
	BuyerID   uuid.UUID `json:"buyerId"`
	SellerID  uuid.UUID `json:"sellerId"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func newEvaluationResponse(e *model.Evaluation) evaluationResponse {
	return evaluationResponse{
		ID:        e.ID,
		OrderID:   e.OrderID,
		BuyerID:   e.BuyerID,
		SellerID:  e.SellerID,
		Rating:    e.Rating,
		Content:   e.Content,
		CreatedAt: e.CreatedAt,
	}
}

type resolutionEntryResponse struct {
	ActorID   uuid.UUID `json:"actorId"`
	ActorRole string    `json:"actorRole"`
	Action    string    `json:"action"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type returnRequestResponse struct {
	ID            uuid.UUID                 `json:"id"`
	OrderID       uuid.UUID                 `json:"orderId"`
	BuyerID       uuid.UUID                 `json:"buyerId"`
	SellerID      uuid.UUID                 `json:"sellerId"`
	Reason        string                    `json:"reason"`
	ReasonCode    string                    `json:"reasonCode"`
	Status        string                    `json:"status"`
	SellerActedAt *time.Time                `json:"sellerActedAt,omitempty"`
	AdminActedAt  *time.Time                `json:"adminActedAt,omitempty"`
	CreatedAt     time.Time                 `json:"createdAt"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
	Log           []resolutionEntryResponse `json:"log"`
}

func newReturnRequestResponse(rr *model.ReturnRequest) returnRequestResponse {
	resp := returnRequestResponse{
		ID:            rr.ID,
		OrderID:       rr.OrderID,
		BuyerID:       rr.BuyerID,
		SellerID:      rr.SellerID,
		Reason:        rr.Reason,
		ReasonCode:    string(rr.ReasonCode),
		Status:        rr.Status.String(),
		SellerActedAt: rr.SellerActedAt,
		AdminActedAt:  rr.AdminActedAt,
		CreatedAt:     rr.CreatedAt,
		UpdatedAt:     rr.UpdatedAt,
		Log:           make([]resolutionEntryResponse, 0, len(rr.Log)),
	}
	for _, e := range rr.Log {
		resp.Log = append(resp.Log, resolutionEntryResponse{
			ActorID:   e.ActorID,
			ActorRole: e.ActorRole.String(),
			Action:    e.Action.String(),
			Notes:     e.Notes,
			CreatedAt: e.CreatedAt,
		})
	}
	return resp
}

type creditEntryResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Reason      string    `json:"reason"`
	ReferenceID uuid.UUID `json:"referenceId"`
	Delta       int       `json:"delta"`
	Applied     int       `json:"applied"`
	Balance     int       `json:"balance"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newCreditEntryResponse(e *model.CreditEntry) creditEntryResponse {
	return creditEntryResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Reason:      e.Reason.String(),
		ReferenceID: e.ReferenceID,
		Delta:       e.Delta,
		Applied:     e.Applied,
		Balance:     e.Balance,
		Note:        e.Note,
		CreatedAt:   e.CreatedAt,
	}
}

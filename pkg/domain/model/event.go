package model

import "github.com/google/uuid"

type OrderCreated struct {
	OrderID   uuid.UUID `json:"order_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

func (e OrderCreated) Type() string { return "OrderCreated" }

type OrderConfirmed struct {
	OrderID  uuid.UUID `json:"order_id"`
	BuyerID  uuid.UUID `json:"buyer_id"`
	SellerID uuid.UUID `json:"seller_id"`
}

func (e OrderConfirmed) Type() string { return "OrderConfirmed" }

type OrderRejected struct {
	OrderID uuid.UUID `json:"order_id"`
	BuyerID uuid.UUID `json:"buyer_id"`
	Reason  string    `json:"reason"`
}

func (e OrderRejected) Type() string { return "OrderRejected" }

type OrderCompleted struct {
	OrderID  uuid.UUID `json:"order_id"`
	BuyerID  uuid.UUID `json:"buyer_id"`
	SellerID uuid.UUID `json:"seller_id"`
}

func (e OrderCompleted) Type() string { return "OrderCompleted" }

type OrderCancelled struct {
	OrderID uuid.UUID `json:"order_id"`
	BuyerID uuid.UUID `json:"buyer_id"`
	Reason  string    `json:"reason"`
	Expired bool      `json:"expired"`
}

func (e OrderCancelled) Type() string { return "OrderCancelled" }

type StockChanged struct {
	ProductID    uuid.UUID     `json:"product_id"`
	ChangeAmount int           `json:"change_amount"`
	NewQuantity  int           `json:"new_quantity"`
	Status       ProductStatus `json:"status"`
}

func (e StockChanged) Type() string { return "StockChanged" }

type CreditAdjusted struct {
	UserID      uuid.UUID    `json:"user_id"`
	Reason      CreditReason `json:"reason"`
	ReferenceID uuid.UUID    `json:"reference_id"`
	Applied     int          `json:"applied"`
	Balance     int          `json:"balance"`
}

func (e CreditAdjusted) Type() string { return "CreditAdjusted" }

type EvaluationCreated struct {
	EvaluationID uuid.UUID `json:"evaluation_id"`
	OrderID      uuid.UUID `json:"order_id"`
	SellerID     uuid.UUID `json:"seller_id"`
	Rating       int       `json:"rating"`
}

func (e EvaluationCreated) Type() string { return "EvaluationCreated" }

type EvaluationDeleted struct {
	EvaluationID uuid.UUID `json:"evaluation_id"`
	DeletedBy    uuid.UUID `json:"deleted_by"`
}

func (e EvaluationDeleted) Type() string { return "EvaluationDeleted" }

type ReturnRequested struct {
	ReturnRequestID uuid.UUID        `json:"return_request_id"`
	OrderID         uuid.UUID        `json:"order_id"`
	SellerID        uuid.UUID        `json:"seller_id"`
	ReasonCode      ReturnReasonCode `json:"reason_code"`
}

func (e ReturnRequested) Type() string { return "ReturnRequested" }

// ReturnStatusChanged covers every move after the request was opened.
type ReturnStatusChanged struct {
	ReturnRequestID uuid.UUID `json:"return_request_id"`
	OrderID         uuid.UUID `json:"order_id"`
	Action          string    `json:"action"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	ActorID         uuid.UUID `json:"actor_id"`
}

func (e ReturnStatusChanged) Type() string { return "ReturnStatusChanged" }

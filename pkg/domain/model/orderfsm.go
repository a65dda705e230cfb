package model

type OrderEvent int

const (
	OrderConfirm OrderEvent = iota
	OrderReject
	OrderComplete
	OrderCancel
	OrderExpire
)

func (e OrderEvent) String() string {
	switch e {
	case OrderConfirm:
		return "confirm"
	case OrderReject:
		return "reject"
	case OrderComplete:
		return "complete"
	case OrderCancel:
		return "cancel"
	case OrderExpire:
		return "expire"
	}
	return "unknown"
}

// Effect is a side effect the order service performs inside the transaction
// that moves the order.
type Effect int

const (
	EffectDecrementStock Effect = iota + 1
	EffectRestoreStock
	EffectCompletionBonus
)

type OrderTransition struct {
	To      OrderStatus
	Effects []Effect
}

// Terminal states have no row, so every event on them is rejected.
var orderTransitions = map[OrderStatus]map[OrderEvent]OrderTransition{
	PendingSellerConfirmation: {
		OrderConfirm: {To: ConfirmedBySeller, Effects: []Effect{EffectDecrementStock}},
		OrderReject:  {To: Rejected, Effects: []Effect{EffectRestoreStock}},
		OrderCancel:  {To: Cancelled, Effects: []Effect{EffectRestoreStock}},
		OrderExpire:  {To: Cancelled, Effects: []Effect{EffectRestoreStock}},
	},
	ConfirmedBySeller: {
		OrderComplete: {To: Completed, Effects: []Effect{EffectCompletionBonus}},
		OrderCancel:   {To: Cancelled, Effects: []Effect{EffectRestoreStock}},
	},
}

var orderEventRoles = map[OrderEvent][]ActorRole{
	OrderConfirm:  {RoleSeller},
	OrderReject:   {RoleSeller},
	OrderComplete: {RoleBuyer, RoleAdmin},
	OrderCancel:   {RoleBuyer, RoleSeller},
	OrderExpire:   {RoleSystem},
}

func NextOrderState(from OrderStatus, event OrderEvent) (OrderTransition, error) {
	transition, ok := orderTransitions[from][event]
	if !ok {
		return OrderTransition{}, ErrInvalidTransition
	}
	return transition, nil
}

// Permits reports whether the actor may fire the event on the order. Staff who
// also happen to be the buyer complete as buyer, which is allowed either way.
func (o *Order) Permits(event OrderEvent, actor Actor) bool {
	role, ok := o.RoleOf(actor)
	if !ok {
		return false
	}
	for _, allowed := range orderEventRoles[event] {
		if allowed == role {
			return true
		}
	}
	return event == OrderComplete && actor.Staff
}

func (e OrderEvent) RequiresReason() bool {
	return e == OrderReject || e == OrderCancel || e == OrderExpire
}

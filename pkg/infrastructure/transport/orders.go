package transport

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"campustrade/pkg/domain/model"
)

type createOrderRequest struct {
	ProductID     uuid.UUID `json:"productId"`
	Quantity      int       `json:"quantity"`
	TradeTime     time.Time `json:"tradeTime"`
	TradeLocation string    `json:"tradeLocation"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, errMalformedID
	}
	return id, nil
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	order, err := h.services.Orders.CreateOrder(r.Context(), actorFrom(r.Context()), req.ProductID, req.Quantity, req.TradeTime, req.TradeLocation)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderResponse(order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	h.serveOrderList(w, r, false)
}

// listAllOrders is the staff view over every order. The service rejects
// callers who are not staff.
func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	h.serveOrderList(w, r, true)
}

func (h *Handler) serveOrderList(w http.ResponseWriter, r *http.Request, all bool) {
	query, err := parseOrderQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	query.UserID = actorFrom(r.Context())
	if all {
		query.Role = model.ListAll
	}

	orders, total, err := h.services.Orders.ListOrders(r.Context(), query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(orders, total, query.Page, query.PageSize, newOrderResponse))
}

func parseOrderQuery(values url.Values) (model.OrderQuery, error) {
	var q model.OrderQuery
	var err error

	if q.Role, err = model.ParseListRole(values.Get("role")); err != nil {
		return q, err
	}
	if s := values.Get("status"); s != "" {
		status, err := model.ParseOrderStatus(s)
		if err != nil {
			return q, err
		}
		q.Status = &status
	}
	if q.Page, q.PageSize, err = parsePage(values); err != nil {
		return q, err
	}
	q.SortBy = model.OrderSortField(values.Get("sort"))
	if s := values.Get("desc"); s != "" {
		desc, err := strconv.ParseBool(s)
		if err != nil {
			return q, model.ErrInvalidQuery
		}
		q.Descending = &desc
	}
	return q, q.Normalize()
}

func parsePage(values url.Values) (page, pageSize int, err error) {
	if page, err = optionalInt(values.Get("page")); err != nil {
		return 0, 0, err
	}
	if pageSize, err = optionalInt(values.Get("pageSize")); err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, model.ErrInvalidQuery
	}
	return n, nil
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	order, err := h.services.Orders.GetOrder(r.Context(), id, actorFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(r *http.Request, id, actorID uuid.UUID, _ string) (*model.Order, error) {
		return h.services.Orders.ConfirmOrder(r.Context(), id, actorID)
	}, false)
}

func (h *Handler) rejectOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(r *http.Request, id, actorID uuid.UUID, reason string) (*model.Order, error) {
		return h.services.Orders.RejectOrder(r.Context(), id, actorID, reason)
	}, true)
}

func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(r *http.Request, id, actorID uuid.UUID, _ string) (*model.Order, error) {
		return h.services.Orders.CompleteOrder(r.Context(), id, actorID)
	}, false)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(r *http.Request, id, actorID uuid.UUID, reason string) (*model.Order, error) {
		return h.services.Orders.CancelOrder(r.Context(), id, actorID, reason)
	}, true)
}

type orderActionFunc func(r *http.Request, orderID, actorID uuid.UUID, reason string) (*model.Order, error)

func (h *Handler) orderAction(w http.ResponseWriter, r *http.Request, action orderActionFunc, withReason bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req reasonRequest
	if withReason {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}

	order, err := action(r, id, actorFrom(r.Context()), req.Reason)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}

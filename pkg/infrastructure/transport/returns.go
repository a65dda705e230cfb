package transport

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"campustrade/pkg/domain/model"
)

type createReturnRequestRequest struct {
	OrderID    uuid.UUID `json:"orderId"`
	Reason     string    `json:"reason"`
	ReasonCode string    `json:"reasonCode"`
}

type sellerDecisionRequest struct {
	Agree *bool  `json:"agree"`
	Notes string `json:"notes"`
}

type adminResolveRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) createReturnRequest(w http.ResponseWriter, r *http.Request) {
	var req createReturnRequestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	code, err := model.ParseReturnReasonCode(req.ReasonCode)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rr, err := h.services.Returns.CreateReturnRequest(r.Context(), req.OrderID, actorFrom(r.Context()), req.Reason, code)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newReturnRequestResponse(rr))
}

func (h *Handler) getReturnRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rr, err := h.services.Returns.GetReturnRequest(r.Context(), id, actorFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newReturnRequestResponse(rr))
}

func (h *Handler) listReturnRequests(w http.ResponseWriter, r *http.Request) {
	h.serveReturnRequestList(w, r, false)
}

func (h *Handler) listAllReturnRequests(w http.ResponseWriter, r *http.Request) {
	h.serveReturnRequestList(w, r, true)
}

func (h *Handler) serveReturnRequestList(w http.ResponseWriter, r *http.Request, all bool) {
	query, err := parseReturnRequestQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	query.UserID = actorFrom(r.Context())
	if all {
		query.Role = model.ListAll
	}

	requests, total, err := h.services.Returns.ListReturnRequests(r.Context(), query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(requests, total, query.Page, query.PageSize, newReturnRequestResponse))
}

// parseReturnRequestQuery lists both sides of the caller's trades unless a
// role narrows it.
func parseReturnRequestQuery(values url.Values) (model.ReturnRequestQuery, error) {
	q := model.ReturnRequestQuery{Role: model.ListAsParty}
	var err error

	if s := values.Get("role"); s != "" {
		if q.Role, err = model.ParseListRole(s); err != nil {
			return q, err
		}
	}
	if s := values.Get("status"); s != "" {
		status, err := model.ParseReturnStatus(s)
		if err != nil {
			return q, err
		}
		q.Status = &status
	}
	if q.Page, q.PageSize, err = parsePage(values); err != nil {
		return q, err
	}
	return q, q.Normalize()
}

func (h *Handler) sellerDecide(w http.ResponseWriter, r *http.Request) {
	var req sellerDecisionRequest
	h.returnAction(w, r, &req, func(r *http.Request, id, actorID uuid.UUID) (*model.ReturnRequest, error) {
		if req.Agree == nil {
			return nil, model.ErrInvalidDecision
		}
		return h.services.Returns.SellerDecide(r.Context(), id, actorID, *req.Agree, req.Notes)
	})
}

func (h *Handler) escalateReturnRequest(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	h.returnAction(w, r, &req, func(r *http.Request, id, actorID uuid.UUID) (*model.ReturnRequest, error) {
		return h.services.Returns.RequestIntervention(r.Context(), id, actorID, req.Reason)
	})
}

func (h *Handler) adminResolve(w http.ResponseWriter, r *http.Request) {
	var req adminResolveRequest
	h.returnAction(w, r, &req, func(r *http.Request, id, actorID uuid.UUID) (*model.ReturnRequest, error) {
		decision, err := model.ParseResolutionDecision(req.Decision)
		if err != nil {
			return nil, err
		}
		return h.services.Returns.AdminResolve(r.Context(), id, actorID, decision, req.Notes)
	})
}

func (h *Handler) closeReturnRequest(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	h.returnAction(w, r, &req, func(r *http.Request, id, actorID uuid.UUID) (*model.ReturnRequest, error) {
		return h.services.Returns.CloseReturnRequest(r.Context(), id, actorID, req.Notes)
	})
}

func (h *Handler) returnAction(w http.ResponseWriter, r *http.Request, body interface{}, action func(r *http.Request, id, actorID uuid.UUID) (*model.ReturnRequest, error)) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := decodeBody(r, body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rr, err := action(r, id, actorFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newReturnRequestResponse(rr))
}

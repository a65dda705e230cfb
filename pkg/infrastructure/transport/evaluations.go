package transport

import (
	"net/http"

	"github.com/google/uuid"

	"campustrade/pkg/domain/model"
)

type createEvaluationRequest struct {
	OrderID uuid.UUID `json:"orderId"`
	Rating  int       `json:"rating"`
	Content string    `json:"content"`
}

func (h *Handler) createEvaluation(w http.ResponseWriter, r *http.Request) {
	var req createEvaluationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	evaluation, err := h.services.Evaluations.CreateEvaluation(r.Context(), req.OrderID, actorFrom(r.Context()), req.Rating, req.Content)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newEvaluationResponse(evaluation))
}

func (h *Handler) deleteEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.services.Evaluations.DeleteEvaluation(r.Context(), id, actorFrom(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	evaluation, err := h.services.Evaluations.GetEvaluation(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newEvaluationResponse(evaluation))
}

// evaluationList serves the evaluations the caller made, received, or, for
// staff, all of them.
func (h *Handler) evaluationList(role model.ListRole) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := model.EvaluationQuery{UserID: actorFrom(r.Context()), Role: role}
		var err error
		if query.Page, query.PageSize, err = parsePage(r.URL.Query()); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if err = query.Normalize(); err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		evaluations, total, err := h.services.Evaluations.ListEvaluations(r.Context(), query)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newListResponse(evaluations, total, query.Page, query.PageSize, newEvaluationResponse))
	}
}

package transport

import "net/http"

type adjustCreditRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

func (h *Handler) adjustCredit(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req adjustCreditRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entry, err := h.services.Credit.AdjustCredit(r.Context(), actorFrom(r.Context()), userID, req.Delta, req.Reason)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newCreditEntryResponse(entry))
}

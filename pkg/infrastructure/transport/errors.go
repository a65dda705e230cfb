package transport

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"campustrade/pkg/domain/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

var kindStatus = []struct {
	kind   error
	status int
}{
	{model.ErrNotFound, http.StatusNotFound},
	{model.ErrNotAuthorized, http.StatusForbidden},
	{model.ErrInvalidState, http.StatusConflict},
	{model.ErrInsufficientStock, http.StatusConflict},
	{model.ErrValidation, http.StatusBadRequest},
	{model.ErrConflict, http.StatusConflict},
}

func statusFor(err error) int {
	for _, ks := range kindStatus {
		if errors.Is(err, ks.kind) {
			return ks.status
		}
	}
	return http.StatusInternalServerError
}

// writeError reports domain errors as they are. Anything unclassified is
// logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger log.FieldLogger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"url":    r.URL.String(),
		}).Error("request failed")
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

var (
	errMalformedBody = errors.Wrap(model.ErrValidation, "malformed request body")
	errMalformedID   = errors.Wrap(model.ErrValidation, "malformed identifier")
)

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errMalformedBody
	}
	return nil
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
)

type apiError struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
}

type apiResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    any       `json:"data"`
	Error   *apiError `json:"error,omitempty"`
}

func writeRawJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if status >= 400 {
		writeRawJSON(w, status, apiResponse{
			Status:  "error",
			Message: "",
			Data:    payload,
			Error: &apiError{
				Code:   status,
				Status: http.StatusText(status),
			},
		})
		return
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "ok",
		Message: "",
		Data:    payload,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "error",
		Message: message,
		Data:    nil,
		Error: &apiError{
			Code:   status,
			Status: http.StatusText(status),
		},
	})
}

// writeDomainError maps ledger-core errors to distinct statuses and
// user-facing messages. Only store failures get a generic message.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyReversed):
		writeError(w, http.StatusConflict, "this transaction was already undone")
	case errors.Is(err, domain.ErrReversalWindowExpired):
		writeError(w, http.StatusUnprocessableEntity, "too old to undo yourself, contact a treasurer")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "you are not allowed to undo this transaction")
	case errors.Is(err, domain.ErrInsufficientBalance):
		writeError(w, http.StatusUnprocessableEntity, "insufficient balance, top up first")
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusUnprocessableEntity, "item is out of stock")
	case errors.Is(err, domain.ErrAccountInactive):
		writeError(w, http.StatusUnprocessableEntity, "account is inactive")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflicting update, try again")
	default:
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}

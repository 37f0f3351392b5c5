package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/EmielEDW/chiro-sub000/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

// AdjustmentHandler records manual balance corrections. Treasurer-only;
// every adjustment needs a reason for the audit trail.
type AdjustmentHandler struct {
	Ledger   repository.LedgerRepository
	Accounts repository.AccountRepository
}

func (h AdjustmentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/adjustments", h.create)
	r.Get("/accounts/{id}/adjustments", h.listByAccount)
}

func (h AdjustmentHandler) create(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())

	var req struct {
		AccountID int64  `json:"accountId"`
		Delta     int64  `json:"delta"`
		Reason    string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Delta == 0 {
		writeError(w, http.StatusBadRequest, "delta must be non-zero")
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required")
		return
	}
	if _, err := h.Accounts.GetByID(r.Context(), req.AccountID); err != nil {
		writeDomainError(w, err)
		return
	}

	actingID := current.ID
	adjustment, err := h.Ledger.CreateAdjustment(r.Context(), repository.CreateAdjustmentInput{
		AccountID: req.AccountID,
		Delta:     req.Delta,
		Reason:    req.Reason,
		CreatedBy: &actingID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, adjustmentPayload(*adjustment))
}

func (h AdjustmentHandler) listByAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if _, err := h.Accounts.GetByID(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	adjustments, err := h.Ledger.ListAdjustments(r.Context(), id, 200)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(adjustments))
	for _, a := range adjustments {
		resp = append(resp, adjustmentPayload(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func adjustmentPayload(a domain.Adjustment) map[string]any {
	payload := map[string]any{
		"id":        strconv.FormatInt(a.ID, 10),
		"accountId": strconv.FormatInt(a.AccountID, 10),
		"delta":     a.Delta,
		"reason":    a.Reason,
		"createdAt": a.CreatedAt.Format(time.RFC3339),
	}
	if a.CreatedBy != nil {
		payload["createdBy"] = strconv.FormatInt(*a.CreatedBy, 10)
	}
	return payload
}

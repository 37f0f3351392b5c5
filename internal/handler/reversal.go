package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/EmielEDW/chiro-sub000/internal/server/authctx"
	"github.com/EmielEDW/chiro-sub000/internal/service"
	"github.com/go-chi/chi/v5"
)

// ReversalHandler exposes the undo flow. The service enforces who may
// reverse what; the handler only parses and renders.
type ReversalHandler struct {
	Service   service.ReversalService
	Reversals repository.ReversalRepository
}

func (h ReversalHandler) RegisterRoutes(r chi.Router) {
	r.Post("/reversals", h.create)
	r.Get("/reversals", h.listOwn)
}

func (h ReversalHandler) create(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())

	var req struct {
		EventID   int64  `json:"eventId"`
		EventType string `json:"eventType"`
		Reason    string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	eventType := domain.EventType(req.EventType)
	if eventType != domain.EventConsumption && eventType != domain.EventTopUp {
		writeError(w, http.StatusBadRequest, "eventType must be consumption or topup")
		return
	}

	reversal, err := h.Service.Reverse(r.Context(), req.EventID, eventType, current.ID, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reversalPayload(*reversal))
}

func (h ReversalHandler) listOwn(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())
	reversals, err := h.Reversals.ListByAccount(r.Context(), current.ID, 200)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(reversals))
	for _, rev := range reversals {
		resp = append(resp, reversalPayload(rev))
	}
	writeJSON(w, http.StatusOK, resp)
}

func reversalPayload(rev domain.Reversal) map[string]any {
	payload := map[string]any{
		"id":                strconv.FormatInt(rev.ID, 10),
		"accountId":         strconv.FormatInt(rev.AccountID, 10),
		"originalEventId":   strconv.FormatInt(rev.OriginalEventID, 10),
		"originalEventType": string(rev.OriginalEventType),
		"reason":            rev.Reason,
		"createdAt":         rev.CreatedAt.Format(time.RFC3339),
	}
	if rev.ReversedBy != nil {
		payload["reversedBy"] = strconv.FormatInt(*rev.ReversedBy, 10)
	}
	return payload
}

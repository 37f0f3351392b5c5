package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/EmielEDW/chiro-sub000/internal/server/authctx"
	"github.com/EmielEDW/chiro-sub000/internal/service"
	"github.com/go-chi/chi/v5"
)

type TopUpHandler struct {
	Service service.TopUpService
	TopUps  repository.TopUpRepository
}

func (h TopUpHandler) RegisterSelfRoutes(r chi.Router) {
	r.Post("/topups/stripe", h.initiateStripe)
	r.Get("/topups", h.listOwn)
}

func (h TopUpHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/topups/manual", h.recordManual)
}

// initiateStripe records a pending top-up tied to a Stripe payment intent.
// The balance only moves once the webhook confirms the payment.
func (h TopUpHandler) initiateStripe(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())

	var req struct {
		Amount          int64  `json:"amount"`
		PaymentIntentID string `json:"paymentIntentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.PaymentIntentID == "" {
		writeError(w, http.StatusBadRequest, "paymentIntentId is required")
		return
	}

	topup, err := h.Service.InitiateStripe(r.Context(), current.ID, req.Amount, req.PaymentIntentID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			writeError(w, http.StatusBadRequest, "amount must be positive")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, topUpPayload(*topup))
}

func (h TopUpHandler) listOwn(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())
	topups, err := h.TopUps.ListByAccount(r.Context(), current.ID, 200)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(topups))
	for _, t := range topups {
		resp = append(resp, topUpPayload(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// recordManual lets a treasurer take cash or a bank transfer at the bar;
// the top-up is paid immediately.
func (h TopUpHandler) recordManual(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID int64  `json:"accountId"`
		Amount    int64  `json:"amount"`
		Provider  string `json:"provider"`
		Reference string `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	topup, err := h.Service.RecordManual(r.Context(), req.AccountID, req.Amount, domain.TopUpProvider(req.Provider), req.Reference)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			writeError(w, http.StatusBadRequest, "amount must be positive")
			return
		}
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, topUpPayload(*topup))
}

func topUpPayload(t domain.TopUp) map[string]any {
	return map[string]any{
		"id":        strconv.FormatInt(t.ID, 10),
		"accountId": strconv.FormatInt(t.AccountID, 10),
		"amount":    t.Amount,
		"provider":  string(t.Provider),
		"status":    string(t.Status),
		"createdAt": t.CreatedAt.Format(time.RFC3339),
	}
}

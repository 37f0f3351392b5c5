package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/EmielEDW/chiro-sub000/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

type AccountHandler struct {
	Accounts repository.AccountRepository
	Ledger   repository.LedgerRepository
	TopUps   repository.TopUpRepository
	Currency string
}

func (h AccountHandler) RegisterSelfRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Get("/me/balance", h.balance)
	r.Get("/me/statement", h.statement)
}

func (h AccountHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/accounts", h.list)
	r.Post("/accounts/guests", h.createGuest)
	r.Post("/accounts/{id}/deactivate", h.deactivate)
	r.Post("/accounts/{id}/activate", h.activate)
	r.Delete("/accounts/guests/{id}", h.deleteGuest)
	r.Get("/accounts/{id}/balance", h.balanceByID)
}

func (h AccountHandler) me(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())
	account, err := h.Accounts.GetByID(r.Context(), current.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountPayload(*account))
}

func (h AccountHandler) balance(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())
	h.writeBalance(w, r, current.ID)
}

func (h AccountHandler) balanceByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if _, err := h.Accounts.GetByID(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	h.writeBalance(w, r, id)
}

func (h AccountHandler) writeBalance(w http.ResponseWriter, r *http.Request, accountID int64) {
	balance, err := h.Ledger.Balance(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accountId": strconv.FormatInt(accountID, 10),
		"balance":   balance,
		"currency":  h.Currency,
	})
}

func (h AccountHandler) statement(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())
	lines, err := statementFor(r, h.Ledger, h.TopUps, current.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		resp = append(resp, map[string]any{
			"kind":      line.Kind,
			"eventId":   line.EventID,
			"detail":    line.Detail,
			"delta":     line.Delta,
			"running":   line.Running,
			"createdAt": line.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

const statementLimit = 1000

func statementFor(r *http.Request, ledger repository.LedgerRepository, topups repository.TopUpRepository, accountID int64) ([]domain.LedgerLine, error) {
	ctx := r.Context()
	tops, err := topups.ListByAccount(ctx, accountID, statementLimit)
	if err != nil {
		return nil, err
	}
	consumptions, err := ledger.ListConsumptions(ctx, accountID, statementLimit)
	if err != nil {
		return nil, err
	}
	adjustments, err := ledger.ListAdjustments(ctx, accountID, statementLimit)
	if err != nil {
		return nil, err
	}
	return domain.StatementLines(tops, consumptions, adjustments), nil
}

func (h AccountHandler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Accounts.List(r.Context(), 500)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(accounts))
	for _, a := range accounts {
		balance, err := h.Ledger.Balance(r.Context(), a.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		payload := accountPayload(a)
		payload["balance"] = balance
		resp = append(resp, payload)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h AccountHandler) createGuest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                  string `json:"name"`
		AllowsNegativeBalance *bool  `json:"allowsNegativeBalance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	// Guests run a credit tab unless explicitly configured otherwise.
	allowsNegative := true
	if req.AllowsNegativeBalance != nil {
		allowsNegative = *req.AllowsNegativeBalance
	}
	account, err := h.Accounts.Create(r.Context(), repository.CreateAccountParams{
		Name:                  req.Name,
		Role:                  domain.RoleOrdinary,
		IsGuestAccount:        true,
		AllowsNegativeBalance: allowsNegative,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountPayload(*account))
}

func (h AccountHandler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h AccountHandler) activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h AccountHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Accounts.SetActive(r.Context(), id, active); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": active})
}

func (h AccountHandler) deleteGuest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Accounts.DeleteGuest(r.Context(), id); err != nil {
		if err == domain.ErrConflict {
			writeError(w, http.StatusConflict, "guest has consumption history and cannot be deleted")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func accountPayload(a domain.Account) map[string]any {
	return map[string]any{
		"id":                    strconv.FormatInt(a.ID, 10),
		"name":                  a.Name,
		"email":                 a.Email,
		"role":                  string(a.Role),
		"isGuestAccount":        a.IsGuestAccount,
		"allowsNegativeBalance": a.AllowsNegativeBalance,
		"active":                a.Active,
	}
}

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

type StockHandler struct {
	Service service.StockService
	Stock   repository.StockRepository
}

func (h StockHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stock", h.list)
	r.Post("/stock/adjust", h.adjust)
	r.Post("/stock/restock", h.restock)
	r.Post("/stock/audit", h.audit)
	r.Get("/stock/{itemId}/history", h.history)
}

func (h StockHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Stock.List(r.Context(), 500)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, s := range items {
		resp = append(resp, map[string]any{
			"itemId":            strconv.FormatInt(s.ItemID, 10),
			"name":              s.Name,
			"quantity":          s.Quantity,
			"lowStockThreshold": s.LowStockThreshold,
			"lowStock":          s.LowStockThreshold > 0 && s.Quantity <= s.LowStockThreshold,
			"ledgerEntries":     s.LedgerEntries,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h StockHandler) adjust(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())

	var req struct {
		ItemID int64  `json:"itemId"`
		Change int    `json:"change"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Change == 0 {
		writeError(w, http.StatusBadRequest, "change must be non-zero")
		return
	}

	entry, quantity, err := h.Service.Adjust(r.Context(), req.ItemID, req.Change, req.Notes, current.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"entry":    stockEntryPayload(*entry),
		"quantity": quantity,
	})
}

func (h StockHandler) restock(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())

	var req struct {
		Lines []struct {
			ItemID   int64  `json:"itemId"`
			Quantity int    `json:"quantity"`
			Notes    string `json:"notes"`
		} `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if len(req.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "at least one line is required")
		return
	}
	lines := make([]service.RestockLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		if l.Quantity < 0 {
			writeError(w, http.StatusBadRequest, "restock quantities cannot be negative")
			return
		}
		lines = append(lines, service.RestockLine{ItemID: l.ItemID, Quantity: l.Quantity, Notes: l.Notes})
	}

	sessionID, entries, err := h.Service.Restock(r.Context(), lines, current.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId": sessionID,
		"entries":   stockEntriesPayload(entries),
	})
}

func (h StockHandler) audit(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())

	var req struct {
		Counts []struct {
			ItemID  int64 `json:"itemId"`
			Counted int   `json:"counted"`
		} `json:"counts"`
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if len(req.Counts) == 0 {
		writeError(w, http.StatusBadRequest, "at least one count is required")
		return
	}
	counts := make([]service.AuditCount, 0, len(req.Counts))
	for _, c := range req.Counts {
		if c.Counted < 0 {
			writeError(w, http.StatusBadRequest, "counted quantities cannot be negative")
			return
		}
		counts = append(counts, service.AuditCount{ItemID: c.ItemID, Counted: c.Counted})
	}

	sessionID, entries, err := h.Service.Audit(r.Context(), counts, req.Notes, current.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId": sessionID,
		"entries":   stockEntriesPayload(entries),
	})
}

func (h StockHandler) history(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	entries, err := h.Stock.History(r.Context(), itemID, 500)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stockEntriesPayload(entries))
}

func stockEntriesPayload(entries []domain.StockLedgerEntry) []map[string]any {
	resp := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, stockEntryPayload(e))
	}
	return resp
}

func stockEntryPayload(e domain.StockLedgerEntry) map[string]any {
	payload := map[string]any{
		"id":        strconv.FormatInt(e.ID, 10),
		"itemId":    strconv.FormatInt(e.ItemID, 10),
		"change":    e.QuantityChange,
		"type":      string(e.TransactionType),
		"notes":     e.Notes,
		"createdAt": e.CreatedAt.Format(time.RFC3339),
	}
	if e.SessionID != nil {
		payload["sessionId"] = *e.SessionID
	}
	if e.CreatedBy != nil {
		payload["createdBy"] = strconv.FormatInt(*e.CreatedBy, 10)
	}
	return payload
}

package handler

import (
	"net/http"

	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/go-chi/chi/v5"
)

// DashboardHandler serves the treasurer overview numbers.
type DashboardHandler struct {
	Dashboard repository.DashboardRepository
}

func (h DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.summary)
	r.Get("/dashboard/top-items", h.topItems)
}

func (h DashboardHandler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Dashboard.Summary(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalRevenue":       summary.TotalRevenue,
		"todayRevenue":       summary.TodayRevenue,
		"totalConsumptions":  summary.TotalConsumptions,
		"outstandingBalance": summary.OutstandingBalance,
		"lowStockItems":      summary.LowStockItems,
	})
}

func (h DashboardHandler) topItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Dashboard.TopItems(r.Context(), 10)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, it := range items {
		resp = append(resp, map[string]any{
			"name":   it.Name,
			"amount": it.Amount,
			"count":  it.Count,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

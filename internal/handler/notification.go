package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/EmielEDW/chiro-sub000/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

type NotificationHandler struct {
	Notifications repository.NotificationRepository
}

func (h NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.list)
	r.Post("/notifications/{id}/read", h.markRead)
}

func (h NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())
	notifications, err := h.Notifications.List(r.Context(), current.ID, 100)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(notifications))
	for _, n := range notifications {
		payload := map[string]any{
			"id":        strconv.FormatInt(n.ID, 10),
			"title":     n.Title,
			"message":   n.Message,
			"type":      string(n.Type),
			"read":      n.ReadAt != nil,
			"createdAt": n.CreatedAt.Format(time.RFC3339),
		}
		resp = append(resp, payload)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h NotificationHandler) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Notifications.MarkRead(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "read": true})
}

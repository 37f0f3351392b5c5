package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/EmielEDW/chiro-sub000/internal/service"
	"github.com/go-chi/chi/v5"
)

// WebhookHandler receives Stripe events. Signature verification happens in
// the service; a failed event returns 400 so Stripe retries it.
type WebhookHandler struct {
	TopUps service.TopUpService
	Logger *slog.Logger
}

func (h WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/stripe", h.stripe)
}

const webhookBodyLimit = 64 << 10

func (h WebhookHandler) stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}

	if err := h.TopUps.HandleStripeWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.Logger.Warn("stripe webhook rejected", "err", err)
		writeError(w, http.StatusBadRequest, "webhook rejected")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}

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

type OrderHandler struct {
	Orders service.OrderService
	Ledger repository.LedgerRepository
}

func (h OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.place)
	r.Get("/orders", h.list)
}

// place records one purchase. Members buy for themselves; treasurers and
// admins may pass accountId to ring up someone else over the admin channel.
func (h OrderHandler) place(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())

	var req struct {
		ItemID    int64  `json:"itemId"`
		AccountID *int64 `json:"accountId"`
		Channel   string `json:"channel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	accountID := current.ID
	channel := domain.Channel(req.Channel)
	if req.AccountID != nil && *req.AccountID != current.ID {
		if !current.Role.CanActForOthers() {
			writeError(w, http.StatusForbidden, "you can only order for yourself")
			return
		}
		accountID = *req.AccountID
		channel = domain.ChannelAdmin
	}
	switch channel {
	case domain.ChannelTap, domain.ChannelQR, domain.ChannelAdmin:
	case "":
		channel = domain.ChannelTap
	default:
		writeError(w, http.StatusBadRequest, "unknown channel")
		return
	}
	if channel == domain.ChannelAdmin && !current.Role.CanActForOthers() {
		writeError(w, http.StatusForbidden, "admin channel requires a treasurer")
		return
	}

	actingID := current.ID
	consumption, err := h.Orders.PlaceOrder(r.Context(), service.PlaceOrderInput{
		AccountID: accountID,
		ItemID:    req.ItemID,
		Channel:   channel,
		CreatedBy: &actingID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, consumptionPayload(*consumption))
}

func (h OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())
	consumptions, err := h.Ledger.ListConsumptions(r.Context(), current.ID, 200)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(consumptions))
	for _, c := range consumptions {
		resp = append(resp, consumptionPayload(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func consumptionPayload(c domain.Consumption) map[string]any {
	payload := map[string]any{
		"id":        strconv.FormatInt(c.ID, 10),
		"itemName":  c.ItemName,
		"price":     c.PriceAtPurchase,
		"channel":   string(c.Channel),
		"createdAt": c.CreatedAt.Format(time.RFC3339),
	}
	if c.ItemID != nil {
		payload["itemId"] = strconv.FormatInt(*c.ItemID, 10)
	}
	return payload
}

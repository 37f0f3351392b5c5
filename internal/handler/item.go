package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/go-chi/chi/v5"
)

// ItemHandler serves the member-facing catalog: active items with their
// availability, including derived availability for mixed drinks.
type ItemHandler struct {
	Items repository.ItemRepository
}

func (h ItemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/items", h.list)
	r.Get("/items/{id}", h.get)
}

func (h ItemHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Items.List(r.Context(), true, 500)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, item := range items {
		payload, err := h.itemPayload(r, item)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp = append(resp, payload)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ItemHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	item, err := h.Items.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	payload, err := h.itemPayload(r, *item)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// itemPayload renders one item with its availability. Mixed drinks expose a
// derived stock computed from component counters; untracked items report no
// stock at all.
func (h ItemHandler) itemPayload(r *http.Request, item domain.CatalogItem) (map[string]any, error) {
	payload := map[string]any{
		"id":           strconv.FormatInt(item.ID, 10),
		"name":         item.Name,
		"price":        item.PriceCents,
		"active":       item.Active,
		"isMixedDrink": item.IsMixedDrink,
		"stockTracked": item.StockQuantity != nil,
	}
	if item.IsMixedDrink {
		components, err := h.Items.Components(r.Context(), item.ID)
		if err != nil {
			return nil, err
		}
		payload["stockTracked"] = true
		payload["stockQuantity"] = domain.DerivedStock(components)
	} else if item.StockQuantity != nil {
		payload["stockQuantity"] = *item.StockQuantity
	}
	return payload, nil
}

// ItemAdminHandler covers catalog management for treasurers: creating and
// editing items and maintaining mixed-drink recipes.
type ItemAdminHandler struct {
	Items repository.ItemRepository
}

func (h ItemAdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/items", h.create)
	r.Put("/items/{id}", h.update)
	r.Delete("/items/{id}", h.delete)
	r.Put("/items/{id}/components", h.setComponents)
	r.Get("/items/{id}/components", h.components)
}

func (h ItemAdminHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name              string `json:"name"`
		Price             int64  `json:"price"`
		PurchasePrice     int64  `json:"purchasePrice"`
		StockQuantity     *int   `json:"stockQuantity"`
		LowStockThreshold int    `json:"lowStockThreshold"`
		IsMixedDrink      bool   `json:"isMixedDrink"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" || req.Price < 0 {
		writeError(w, http.StatusBadRequest, "name and a non-negative price are required")
		return
	}
	item, err := h.Items.Create(r.Context(), repository.CreateItemParams{
		Name:               req.Name,
		PriceCents:         req.Price,
		PurchasePriceCents: req.PurchasePrice,
		StockQuantity:      req.StockQuantity,
		LowStockThreshold:  req.LowStockThreshold,
		IsMixedDrink:       req.IsMixedDrink,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, adminItemPayload(*item))
}

func (h ItemAdminHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Name              string `json:"name"`
		Price             int64  `json:"price"`
		PurchasePrice     int64  `json:"purchasePrice"`
		LowStockThreshold int    `json:"lowStockThreshold"`
		Active            bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	item, err := h.Items.Update(r.Context(), id, repository.UpdateItemParams{
		Name:               req.Name,
		PriceCents:         req.Price,
		PurchasePriceCents: req.PurchasePrice,
		LowStockThreshold:  req.LowStockThreshold,
		Active:             req.Active,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adminItemPayload(*item))
}

func (h ItemAdminHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Items.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h ItemAdminHandler) setComponents(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Components []struct {
			ComponentID int64 `json:"componentId"`
			Quantity    int   `json:"quantity"`
		} `json:"components"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	components := make([]domain.MixedComponent, 0, len(req.Components))
	for _, c := range req.Components {
		if c.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "component quantities must be positive")
			return
		}
		components = append(components, domain.MixedComponent{
			ItemID:      id,
			ComponentID: c.ComponentID,
			Quantity:    c.Quantity,
		})
	}
	if err := h.Items.SetComponents(r.Context(), id, components); err != nil {
		if err == domain.ErrConflict {
			writeError(w, http.StatusConflict, "item is not a mixed drink")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "components": len(components)})
}

func (h ItemAdminHandler) components(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	components, err := h.Items.Components(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(components))
	for _, c := range components {
		line := map[string]any{
			"componentId": strconv.FormatInt(c.ComponentID, 10),
			"name":        c.ComponentName,
			"quantity":    c.Quantity,
		}
		if c.ComponentStock != nil {
			line["stockQuantity"] = *c.ComponentStock
		}
		resp = append(resp, line)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"components":   resp,
		"derivedStock": domain.DerivedStock(components),
	})
}

func adminItemPayload(item domain.CatalogItem) map[string]any {
	payload := map[string]any{
		"id":                strconv.FormatInt(item.ID, 10),
		"name":              item.Name,
		"price":             item.PriceCents,
		"purchasePrice":     item.PurchasePriceCents,
		"lowStockThreshold": item.LowStockThreshold,
		"active":            item.Active,
		"isMixedDrink":      item.IsMixedDrink,
	}
	if item.StockQuantity != nil {
		payload["stockQuantity"] = *item.StockQuantity
	}
	return payload
}

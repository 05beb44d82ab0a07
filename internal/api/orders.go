package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/inventario/internal/inventory"
	"github.com/erazemk/inventario/internal/model"
	"github.com/erazemk/inventario/internal/store"
)

// OrdersHandler handles order endpoints.
type OrdersHandler struct {
	Inventory *inventory.Service
}

// List handles GET /api/orders[?status=&client=].
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status")
	if parsed, ok := model.ParseStatus(status); ok {
		status = parsed
	}

	orders, err := h.Inventory.ListOrders(r.Context(), store.OrderFilter{
		Status: status,
		Client: q.Get("client"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// Create handles POST /api/orders.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in inventory.OrderInput
	if err := decodeJSON(w, r, &in); err != nil {
		badBody(w)
		return
	}

	o, err := h.Inventory.CreateOrder(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("order created", "user", username(r), "order", o.ID, "client", o.Client,
		"lines", len(o.Lines), "quantity", o.TotalQuantity())
	jsonResponse(w, http.StatusCreated, o)
}

// Get handles GET /api/orders/{id}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Inventory.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, o)
}

// Update handles PUT /api/orders/{id}.
func (h *OrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch inventory.OrderPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		badBody(w)
		return
	}

	o, err := h.Inventory.UpdateOrder(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("order updated", "user", username(r), "order", o.ID, "lines", len(o.Lines))
	jsonResponse(w, http.StatusOK, o)
}

// SetStatus handles PUT /api/orders/{id}/status.
func (h *OrdersHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := decodeJSON(w, r, &body); err != nil {
		badBody(w)
		return
	}

	o, err := h.Inventory.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("order status changed", "user", username(r), "order", o.ID, "status", o.Status)
	jsonResponse(w, http.StatusOK, o)
}

// Delete handles DELETE /api/orders/{id}.
func (h *OrdersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Inventory.DeleteOrder(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("order deleted", "user", username(r), "order", id)
	messageResponse(w, "order deleted")
}

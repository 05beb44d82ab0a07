package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/inventario/internal/inventory"
	"github.com/erazemk/inventario/internal/model"
	"github.com/erazemk/inventario/internal/store"
)

// RequestsHandler handles request endpoints.
type RequestsHandler struct {
	Inventory *inventory.Service
}

type statusRequest struct {
	Status string `json:"status"`
}

// List handles GET /api/requests[?status=&sector=&element_id=].
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status")
	if parsed, ok := model.ParseStatus(status); ok {
		status = parsed
	}

	requests, err := h.Inventory.ListRequests(r.Context(), store.RequestFilter{
		Status:    status,
		Sector:    q.Get("sector"),
		ElementID: q.Get("element_id"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if requests == nil {
		requests = []model.Request{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Create handles POST /api/requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in inventory.RequestInput
	if err := decodeJSON(w, r, &in); err != nil {
		badBody(w)
		return
	}

	req, err := h.Inventory.CreateRequest(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("request created", "user", username(r), "request", req.ID,
		"element", req.ElementID, "quantity", req.Quantity, "sector", req.Sector)
	jsonResponse(w, http.StatusCreated, req)
}

// Get handles GET /api/requests/{id}.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.Inventory.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, req)
}

// Update handles PUT /api/requests/{id}.
func (h *RequestsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch inventory.RequestPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		badBody(w)
		return
	}
	// Status changes go through SetStatus, which needs a manager.
	if patch.Status != nil && !model.RoleAtLeast(GetClaims(r.Context()).Role, model.RoleManager) {
		jsonError(w, http.StatusForbidden, codeForbidden, "insufficient permissions to change status")
		return
	}

	req, err := h.Inventory.UpdateRequest(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("request updated", "user", username(r), "request", req.ID,
		"element", req.ElementID, "quantity", req.Quantity, "status", req.Status)
	jsonResponse(w, http.StatusOK, req)
}

// SetStatus handles PUT /api/requests/{id}/status.
func (h *RequestsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := decodeJSON(w, r, &body); err != nil {
		badBody(w)
		return
	}

	req, err := h.Inventory.SetRequestStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("request status changed", "user", username(r), "request", req.ID, "status", req.Status)
	jsonResponse(w, http.StatusOK, req)
}

// Delete handles DELETE /api/requests/{id}.
func (h *RequestsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Inventory.DeleteRequest(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("request deleted", "user", username(r), "request", id)
	messageResponse(w, "request deleted")
}

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/inventario/internal/imaging"
	"github.com/erazemk/inventario/internal/inventory"
	"github.com/erazemk/inventario/internal/model"
	"github.com/erazemk/inventario/internal/store"
)

// ElementsHandler handles element endpoints.
type ElementsHandler struct {
	Inventory *inventory.Service
}

type restockRequest struct {
	Amount int `json:"amount"`
}

// List handles GET /api/elements[?category=&low_stock=1&q=].
func (h *ElementsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lowStock, _ := strconv.ParseBool(q.Get("low_stock"))
	elements, err := h.Inventory.ListElements(r.Context(), store.ElementFilter{
		Category: q.Get("category"),
		LowStock: lowStock,
		Query:    q.Get("q"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if elements == nil {
		elements = []model.Element{}
	}
	jsonResponse(w, http.StatusOK, elements)
}

// Create handles POST /api/elements.
func (h *ElementsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in inventory.ElementInput
	if err := decodeJSON(w, r, &in); err != nil {
		badBody(w)
		return
	}

	e, err := h.Inventory.CreateElement(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("element created", "user", username(r), "element", e.ID, "name", e.Name, "quantity", e.InitialQuantity)
	jsonResponse(w, http.StatusCreated, e)
}

// Get handles GET /api/elements/{id}.
func (h *ElementsHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.Inventory.GetElement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, e)
}

// Update handles PUT /api/elements/{id}.
func (h *ElementsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch inventory.ElementPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		badBody(w)
		return
	}

	e, err := h.Inventory.UpdateElement(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("element updated", "user", username(r), "element", e.ID, "initial", e.InitialQuantity)
	jsonResponse(w, http.StatusOK, e)
}

// Delete handles DELETE /api/elements/{id}.
func (h *ElementsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Inventory.DeleteElement(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("element deleted", "user", username(r), "element", id)
	messageResponse(w, "element deleted")
}

// Restock handles POST /api/elements/{id}/restock.
func (h *ElementsHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badBody(w)
		return
	}

	e, err := h.Inventory.Restock(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("element restocked", "user", username(r), "element", e.ID, "amount", req.Amount, "available", e.AvailableQuantity)
	jsonResponse(w, http.StatusOK, e)
}

// UploadImage handles PUT /api/elements/{id}/image. The body is the raw image.
func (h *ElementsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Inventory.GetElement(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes)
	defer r.Body.Close()

	photo, err := imaging.ProcessPhoto(r.Body)
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, imaging.ErrTooLarge) || errors.As(err, &tooBig):
		jsonError(w, http.StatusRequestEntityTooLarge, codeBadRequest, "image too large")
		return
	case err != nil:
		jsonError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	if err := h.Inventory.SetElementImage(r.Context(), id, photo.Image, photo.Thumbnail, photo.MIME); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("element image uploaded", "user", username(r), "element", id, "bytes", len(photo.Image))
	messageResponse(w, "image uploaded")
}

// GetImage handles GET /api/elements/{id}/image[?thumbnail=1].
func (h *ElementsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	thumbnail, _ := strconv.ParseBool(r.URL.Query().Get("thumbnail"))
	data, mime, err := h.Inventory.ElementImage(r.Context(), chi.URLParam(r, "id"), thumbnail)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(data)
}

package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/inventario/internal/export"
	"github.com/erazemk/inventario/internal/inventory"
	"github.com/erazemk/inventario/internal/model"
	"github.com/erazemk/inventario/internal/store"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportsHandler serves the dashboard, the catalog and spreadsheet exports.
type ReportsHandler struct {
	Inventory *inventory.Service
}

type catalogResponse struct {
	Sectors      []string `json:"sectors"`
	Categories   []string `json:"categories"`
	ElementTypes []string `json:"element_types"`
	Units        []string `json:"units"`
	Statuses     []string `json:"statuses"`
}

// Dashboard handles GET /api/dashboard.
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Inventory.Summarize(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, d)
}

// Catalog handles GET /api/catalog.
func (h *ReportsHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, catalogResponse{
		Sectors:      model.Sectors,
		Categories:   model.Categories,
		ElementTypes: model.ElementTypes,
		Units:        model.Units,
		Statuses:     []string{model.StatusPending, model.StatusDelivered, model.StatusRejected},
	})
}

// ExportElements handles GET /api/export/elements.xlsx[?category=&low_stock=1].
func (h *ReportsHandler) ExportElements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lowStock, _ := strconv.ParseBool(q.Get("low_stock"))
	elements, err := h.Inventory.ListElements(r.Context(), store.ElementFilter{
		Category: q.Get("category"),
		LowStock: lowStock,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteElements(&buf, elements); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("elements exported", "user", username(r), "count", len(elements))
	sendXLSX(w, "elementos", buf.Bytes())
}

// ExportOrders handles GET /api/export/orders.xlsx[?status=].
func (h *ReportsHandler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if parsed, ok := model.ParseStatus(status); ok {
		status = parsed
	}
	orders, err := h.Inventory.ListOrders(r.Context(), store.OrderFilter{Status: status})
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteOrders(&buf, orders); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("orders exported", "user", username(r), "count", len(orders))
	sendXLSX(w, "pedidos", buf.Bytes())
}

// sendXLSX writes a workbook as a dated attachment.
func sendXLSX(w http.ResponseWriter, name string, data []byte) {
	filename := fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventario/internal/inventory"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Error codes returned in the "code" field.
const (
	codeBadRequest        = "BAD_REQUEST"
	codeValidation        = "VALIDATION_ERROR"
	codeUnauthorized      = "UNAUTHORIZED"
	codeForbidden         = "FORBIDDEN"
	codeNotFound          = "NOT_FOUND"
	codeConflict          = "CONFLICT"
	codeInsufficientStock = "INSUFFICIENT_STOCK"
	codeHasDependents     = "HAS_DEPENDENTS"
	codeInvalidQuantity   = "INVALID_QUANTITY"
	codeStoreError        = "STORE_ERROR"
	codeInternal          = "INTERNAL_ERROR"
)

// apiError is the body of every error response.
type apiError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"error"`
	Details []inventory.FieldError `json:"details,omitempty"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, apiError{Code: code, Message: message})
}

// writeError maps a service error onto its HTTP status. Unexpected errors
// are logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *inventory.ValidationError
		short      *inventory.InsufficientStockError
	)
	switch {
	case errors.As(err, &validation):
		jsonResponse(w, http.StatusBadRequest, apiError{
			Code:    codeValidation,
			Message: "validation failed",
			Details: validation.Fields,
		})
	case errors.Is(err, inventory.ErrNotFound):
		jsonError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.As(err, &short):
		jsonError(w, http.StatusConflict, codeInsufficientStock,
			fmt.Sprintf("insufficient stock: %d requested, %d available", short.Requested, short.Available))
	case errors.Is(err, inventory.ErrHasDependents):
		jsonError(w, http.StatusConflict, codeHasDependents,
			"element is referenced by requests or orders and cannot be deleted")
	case errors.Is(err, inventory.ErrInvalidQuantity):
		jsonError(w, http.StatusUnprocessableEntity, codeInvalidQuantity, err.Error())
	default:
		slog.Error("store error", "method", r.Method, "path", r.URL.Path,
			"request_id", GetRequestID(r.Context()), "error", err)
		jsonError(w, http.StatusInternalServerError, codeStoreError, "internal error")
	}
}

// decodeJSON decodes a size-limited JSON request body into target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// badBody answers a request whose body could not be decoded.
func badBody(w http.ResponseWriter) {
	jsonError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
}

func messageResponse(w http.ResponseWriter, message string) {
	jsonResponse(w, http.StatusOK, map[string]string{"message": message})
}

package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/inventario/internal/store"
)

// ErrNotFound is returned when an element, request or order does not exist.
// It is the store's sentinel, so errors.Is works across both packages.
var ErrNotFound = store.ErrNotFound

// ErrInvalidQuantity is returned when a change would leave an element's
// stock outside its bounds in a way that is not a shortage, such as releasing
// more than is held or shrinking the initial quantity below what is out.
var ErrInvalidQuantity = errors.New("invalid quantity")

// ErrHasDependents is returned when deleting an element that requests or
// orders still reference.
var ErrHasDependents = errors.New("element has dependent requests or orders")

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects the invalid fields of an input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// add records a field error.
func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// err returns e when it holds any field errors and nil otherwise.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// InsufficientStockError reports that an element cannot cover a demand.
type InsufficientStockError struct {
	ElementID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for element %s: requested %d, only %d available",
		e.ElementID, e.Requested, e.Available)
}

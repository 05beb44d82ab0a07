package model

import (
	"strings"
	"time"
)

// Element is a trackable inventory item (tool or material).
//
// SuppliedQuantity is the amount currently held by requests and orders and
// AvailableQuantity always equals InitialQuantity - SuppliedQuantity.
type Element struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Category          string     `json:"category"`
	ElementType       string     `json:"element_type"`
	Unit              string     `json:"unit"`
	Description       string     `json:"description,omitempty"`
	Location          string     `json:"location,omitempty"`
	ExpirationDate    *time.Time `json:"expiration_date,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	InitialQuantity   int        `json:"initial_quantity"`
	SuppliedQuantity  int        `json:"supplied_quantity"`
	AvailableQuantity int        `json:"available_quantity"`
	ImageMime         string     `json:"image_mime,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// LowStockRatio is the fraction of the initial quantity below which an
// element counts as low on stock.
const LowStockRatio = 0.2

// NewElement builds a freshly stocked element: nothing supplied, everything available.
func NewElement(name, category, elementType, unit string, initialQuantity int) Element {
	e := Element{
		Name:            strings.TrimSpace(name),
		Category:        strings.TrimSpace(category),
		ElementType:     strings.TrimSpace(elementType),
		Unit:            strings.TrimSpace(unit),
		InitialQuantity: initialQuantity,
	}
	e.Normalize()
	return e
}

// Normalize fills in derived and defaulted fields so callers never deal with
// half-populated stock numbers. Supplied is clamped to [0, initial] and
// available is re-derived from the other two.
func (e *Element) Normalize() {
	if e.InitialQuantity < 0 {
		e.InitialQuantity = 0
	}
	if e.SuppliedQuantity < 0 {
		e.SuppliedQuantity = 0
	}
	if e.SuppliedQuantity > e.InitialQuantity {
		e.SuppliedQuantity = e.InitialQuantity
	}
	e.AvailableQuantity = e.InitialQuantity - e.SuppliedQuantity
}

// Consistent reports whether the stock fields satisfy the ledger invariant.
func (e *Element) Consistent() bool {
	return e.SuppliedQuantity >= 0 &&
		e.SuppliedQuantity <= e.InitialQuantity &&
		e.AvailableQuantity == e.InitialQuantity-e.SuppliedQuantity
}

// LowStock reports whether available stock has dropped under LowStockRatio of the initial stock.
func (e *Element) LowStock() bool {
	if e.InitialQuantity <= 0 {
		return false
	}
	return float64(e.AvailableQuantity)/float64(e.InitialQuantity) < LowStockRatio
}

// Package inventory keeps element stock consistent with the requests and
// orders that hold it.
//
// An element's supplied quantity is the sum of what its pending and
// delivered requests and order lines hold. Every operation that changes a
// hold runs in one store transaction together with the record change, and
// AdjustSupplied is the only code that moves the supplied quantity.
package inventory

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/erazemk/inventario/internal/model"
	"github.com/erazemk/inventario/internal/store"
)

// Service runs ledger, request and order operations against a store.
type Service struct {
	store store.Store
}

// New returns a Service backed by s.
func New(s store.Store) *Service {
	return &Service{store: s}
}

// ElementInput holds the fields of a new element.
type ElementInput struct {
	Name            string     `json:"name"`
	Category        string     `json:"category"`
	ElementType     string     `json:"element_type"`
	Unit            string     `json:"unit"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	ExpirationDate  *time.Time `json:"expiration_date"`
	Notes           string     `json:"notes"`
	InitialQuantity int        `json:"initial_quantity"`
}

// ElementPatch changes an element's metadata or initial quantity. Nil fields
// are left as they are.
type ElementPatch struct {
	Name            *string    `json:"name"`
	Category        *string    `json:"category"`
	ElementType     *string    `json:"element_type"`
	Unit            *string    `json:"unit"`
	Description     *string    `json:"description"`
	Location        *string    `json:"location"`
	ExpirationDate  *time.Time `json:"expiration_date"`
	ClearExpiration bool       `json:"clear_expiration"`
	Notes           *string    `json:"notes"`
	InitialQuantity *int       `json:"initial_quantity"`
}

func validateElement(e *model.Element) error {
	v := &ValidationError{}
	if e.Name == "" {
		v.add("name", "is required")
	}
	if e.Category == "" {
		v.add("category", "is required")
	}
	if e.ElementType == "" {
		v.add("element_type", "is required")
	}
	if e.Unit == "" {
		v.add("unit", "is required")
	}
	if e.InitialQuantity <= 0 {
		v.add("initial_quantity", "must be greater than 0")
	}
	return v.err()
}

// CreateElement stores a new element with nothing supplied.
func (s *Service) CreateElement(ctx context.Context, in ElementInput) (*model.Element, error) {
	e := model.NewElement(in.Name, in.Category, in.ElementType, in.Unit, in.InitialQuantity)
	e.Description = strings.TrimSpace(in.Description)
	e.Location = strings.TrimSpace(in.Location)
	e.ExpirationDate = in.ExpirationDate
	e.Notes = strings.TrimSpace(in.Notes)

	if err := validateElement(&e); err != nil {
		return nil, err
	}

	if err := s.store.InsertElement(ctx, &e); err != nil {
		return nil, fmt.Errorf("creating element: %w", err)
	}
	return &e, nil
}

// GetElement returns an element by ID.
func (s *Service) GetElement(ctx context.Context, id string) (*model.Element, error) {
	return s.store.GetElement(ctx, id)
}

// ListElements returns the elements matching f.
func (s *Service) ListElements(ctx context.Context, f store.ElementFilter) ([]model.Element, error) {
	return s.store.ListElements(ctx, f)
}

// AdjustSupplied moves delta units of an element into (positive) or out of
// (negative) the supplied quantity and persists the element. Out-of-range
// results are rejected, never clamped: exceeding the initial quantity is an
// InsufficientStockError and dropping below zero is ErrInvalidQuantity.
func AdjustSupplied(ctx context.Context, tx store.Tx, elementID string, delta int) (*model.Element, error) {
	e, err := tx.GetElement(ctx, elementID)
	if err != nil {
		return nil, err
	}

	next := e.SuppliedQuantity + delta
	if next < 0 {
		return nil, fmt.Errorf("releasing %d of element %s with %d supplied: %w",
			-delta, elementID, e.SuppliedQuantity, ErrInvalidQuantity)
	}
	if next > e.InitialQuantity {
		return nil, &InsufficientStockError{ElementID: elementID, Available: e.AvailableQuantity, Requested: delta}
	}
	if delta == 0 {
		return e, nil
	}

	e.SuppliedQuantity = next
	e.AvailableQuantity = e.InitialQuantity - next
	if err := tx.UpdateElement(ctx, e); err != nil {
		return nil, fmt.Errorf("adjusting element %s: %w", elementID, err)
	}
	return e, nil
}

// UpdateElement applies a patch. A new initial quantity must still cover
// what is currently supplied; available is re-derived from it.
func (s *Service) UpdateElement(ctx context.Context, id string, p ElementPatch) (*model.Element, error) {
	var updated *model.Element
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		e, err := tx.GetElement(ctx, id)
		if err != nil {
			return err
		}

		if p.Name != nil {
			e.Name = strings.TrimSpace(*p.Name)
		}
		if p.Category != nil {
			e.Category = strings.TrimSpace(*p.Category)
		}
		if p.ElementType != nil {
			e.ElementType = strings.TrimSpace(*p.ElementType)
		}
		if p.Unit != nil {
			e.Unit = strings.TrimSpace(*p.Unit)
		}
		if p.Description != nil {
			e.Description = strings.TrimSpace(*p.Description)
		}
		if p.Location != nil {
			e.Location = strings.TrimSpace(*p.Location)
		}
		if p.ExpirationDate != nil {
			e.ExpirationDate = p.ExpirationDate
		}
		if p.ClearExpiration {
			e.ExpirationDate = nil
		}
		if p.Notes != nil {
			e.Notes = strings.TrimSpace(*p.Notes)
		}
		if p.InitialQuantity != nil {
			e.InitialQuantity = *p.InitialQuantity
		}

		if err := validateElement(e); err != nil {
			return err
		}
		if e.InitialQuantity < e.SuppliedQuantity {
			return fmt.Errorf("initial quantity %d is below the %d units supplied: %w",
				e.InitialQuantity, e.SuppliedQuantity, ErrInvalidQuantity)
		}
		e.AvailableQuantity = e.InitialQuantity - e.SuppliedQuantity

		if err := tx.UpdateElement(ctx, e); err != nil {
			return fmt.Errorf("updating element: %w", err)
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Restock adds amount to an element's initial (and therefore available) quantity.
func (s *Service) Restock(ctx context.Context, id string, amount int) (*model.Element, error) {
	if amount <= 0 {
		v := &ValidationError{}
		v.add("amount", "must be greater than 0")
		return nil, v
	}

	var updated *model.Element
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		e, err := tx.GetElement(ctx, id)
		if err != nil {
			return err
		}
		if amount > math.MaxInt-e.InitialQuantity {
			v := &ValidationError{}
			v.add("amount", fmt.Sprintf("must be at most %d", math.MaxInt-e.InitialQuantity))
			return v
		}
		e.InitialQuantity += amount
		e.AvailableQuantity = e.InitialQuantity - e.SuppliedQuantity
		if err := tx.UpdateElement(ctx, e); err != nil {
			return fmt.Errorf("restocking element: %w", err)
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CanDeleteElement reports whether no request or order line references the
// element, whatever its status.
func (s *Service) CanDeleteElement(ctx context.Context, id string) (bool, error) {
	if _, err := s.store.GetElement(ctx, id); err != nil {
		return false, err
	}
	n, err := s.store.CountElementDependents(ctx, id)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// DeleteElement removes an element that nothing references.
func (s *Service) DeleteElement(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetElement(ctx, id); err != nil {
			return err
		}
		n, err := tx.CountElementDependents(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("element %s is referenced %d times: %w", id, n, ErrHasDependents)
		}
		return tx.DeleteElement(ctx, id)
	})
}

// SetElementImage stores an already processed photo and thumbnail.
func (s *Service) SetElementImage(ctx context.Context, id string, image, thumbnail []byte, mime string) error {
	return s.store.SetElementImage(ctx, id, image, thumbnail, mime)
}

// ElementImage returns an element's photo or its thumbnail.
func (s *Service) ElementImage(ctx context.Context, id string, thumbnail bool) ([]byte, string, error) {
	return s.store.GetElementImage(ctx, id, thumbnail)
}

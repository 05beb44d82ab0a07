package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/inventario/internal/model"
	"github.com/erazemk/inventario/internal/store"
)

// RequestInput holds the fields of a new request.
type RequestInput struct {
	ElementID   string    `json:"element_id"`
	Quantity    int       `json:"quantity"`
	Sector      string    `json:"sector"`
	RequestDate time.Time `json:"request_date"`
	Notes       string    `json:"notes"`
}

// RequestPatch edits a request. Nil fields are left as they are.
type RequestPatch struct {
	ElementID   *string    `json:"element_id"`
	Quantity    *int       `json:"quantity"`
	Sector      *string    `json:"sector"`
	RequestDate *time.Time `json:"request_date"`
	Status      *string    `json:"status"`
	Notes       *string    `json:"notes"`
}

func validateRequest(r *model.Request) error {
	v := &ValidationError{}
	if r.ElementID == "" {
		v.add("element_id", "is required")
	}
	if r.Quantity < 1 {
		v.add("quantity", "must be at least 1")
	}
	if !model.ValidSector(r.Sector) {
		v.add("sector", "must be one of "+strings.Join(model.Sectors, ", "))
	}
	if _, ok := model.ParseStatus(r.Status); !ok {
		v.add("status", "must be pending, delivered or rejected")
	}
	return v.err()
}

// CreateRequest holds quantity units of an element for a sector and stores
// the request as pending. Nothing is written when stock is short.
func (s *Service) CreateRequest(ctx context.Context, in RequestInput) (*model.Request, error) {
	r := &model.Request{
		ElementID:   strings.TrimSpace(in.ElementID),
		Quantity:    in.Quantity,
		Sector:      strings.TrimSpace(in.Sector),
		RequestDate: in.RequestDate,
		Status:      model.StatusPending,
		Notes:       strings.TrimSpace(in.Notes),
	}
	if err := validateRequest(r); err != nil {
		return nil, err
	}

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		e, err := tx.GetElement(ctx, r.ElementID)
		if err != nil {
			return err
		}
		if r.Quantity > e.AvailableQuantity {
			return &InsufficientStockError{ElementID: e.ID, Available: e.AvailableQuantity, Requested: r.Quantity}
		}

		if _, err := AdjustSupplied(ctx, tx, e.ID, r.Quantity); err != nil {
			return err
		}

		r.ElementName = e.Name
		if err := tx.InsertRequest(ctx, r); err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetRequest returns a request by ID.
func (s *Service) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	return s.store.GetRequest(ctx, id)
}

// ListRequests returns the requests matching f.
func (s *Service) ListRequests(ctx context.Context, f store.RequestFilter) ([]model.Request, error) {
	return s.store.ListRequests(ctx, f)
}

// UpdateRequest edits a request and moves the difference between what it
// held before and after the edit through the ledger. Stock returned by the
// old hold counts as available for the new one.
func (s *Service) UpdateRequest(ctx context.Context, id string, p RequestPatch) (*model.Request, error) {
	var updated *model.Request
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		r, err := tx.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		oldElementID := r.ElementID
		oldHold := model.HeldQuantity(r.Status, r.Quantity)

		if p.ElementID != nil {
			r.ElementID = strings.TrimSpace(*p.ElementID)
		}
		if p.Quantity != nil {
			r.Quantity = *p.Quantity
		}
		if p.Sector != nil {
			r.Sector = strings.TrimSpace(*p.Sector)
		}
		if p.RequestDate != nil {
			r.RequestDate = *p.RequestDate
		}
		if p.Notes != nil {
			r.Notes = strings.TrimSpace(*p.Notes)
		}
		if p.Status != nil {
			status, ok := model.ParseStatus(*p.Status)
			if !ok {
				status = *p.Status
			}
			r.Status = status
		}
		if err := validateRequest(r); err != nil {
			return err
		}
		newHold := model.HeldQuantity(r.Status, r.Quantity)

		if r.ElementID != oldElementID {
			if _, err := AdjustSupplied(ctx, tx, oldElementID, -oldHold); err != nil {
				return err
			}
			oldHold = 0
		}

		e, err := tx.GetElement(ctx, r.ElementID)
		if err != nil {
			return err
		}
		if newHold-oldHold > e.AvailableQuantity {
			return &InsufficientStockError{
				ElementID: e.ID,
				Available: e.AvailableQuantity + oldHold,
				Requested: newHold,
			}
		}
		if _, err := AdjustSupplied(ctx, tx, e.ID, newHold-oldHold); err != nil {
			return err
		}

		r.ElementName = e.Name
		if err := tx.UpdateRequest(ctx, r); err != nil {
			return fmt.Errorf("updating request: %w", err)
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetRequestStatus changes only the status of a request.
func (s *Service) SetRequestStatus(ctx context.Context, id, status string) (*model.Request, error) {
	return s.UpdateRequest(ctx, id, RequestPatch{Status: &status})
}

// DeleteRequest deletes a request, returning its hold to the element unless
// the goods were delivered.
func (s *Service) DeleteRequest(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(tx store.Tx) error {
		r, err := tx.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != model.StatusDelivered {
			if _, err := AdjustSupplied(ctx, tx, r.ElementID, -model.HeldQuantity(r.Status, r.Quantity)); err != nil {
				return err
			}
		}
		return tx.DeleteRequest(ctx, id)
	})
}

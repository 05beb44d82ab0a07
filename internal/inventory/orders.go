package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/inventario/internal/model"
	"github.com/erazemk/inventario/internal/store"
)

// LineInput is one requested element of an order.
type LineInput struct {
	ElementID string `json:"element_id"`
	Quantity  int    `json:"quantity"`
}

// OrderInput holds the fields of a new order.
type OrderInput struct {
	Client    string      `json:"client"`
	OrderDate time.Time   `json:"order_date"`
	Notes     string      `json:"notes"`
	Lines     []LineInput `json:"lines"`
}

// OrderPatch edits an order. Non-nil Lines replace every existing line.
type OrderPatch struct {
	Client    *string     `json:"client"`
	OrderDate *time.Time  `json:"order_date"`
	Notes     *string     `json:"notes"`
	Lines     []LineInput `json:"lines"`
}

func validateLines(lines []LineInput, v *ValidationError) {
	if len(lines) == 0 {
		v.add("lines", "at least one line is required")
	}
	for i, l := range lines {
		if strings.TrimSpace(l.ElementID) == "" {
			v.add(fmt.Sprintf("lines[%d].element_id", i), "is required")
		}
		if l.Quantity < 1 {
			v.add(fmt.Sprintf("lines[%d].quantity", i), "must be at least 1")
		}
	}
}

// holdChange moves delta units of one element into or out of supplied.
type holdChange struct {
	elementID string
	delta     int
}

// applyHolds checks a batch of hold changes against current stock and then
// applies them one by one in the given order. Stock released by the batch
// counts as available for holds on the same element. Elements are returned
// in their final state, keyed by ID.
func applyHolds(ctx context.Context, tx store.Tx, changes []holdChange) (map[string]*model.Element, error) {
	type demand struct {
		held, released int
	}
	var order []string
	demands := make(map[string]*demand)
	for _, c := range changes {
		d, ok := demands[c.elementID]
		if !ok {
			d = &demand{}
			demands[c.elementID] = d
			order = append(order, c.elementID)
		}
		if c.delta > 0 {
			d.held += c.delta
		} else {
			d.released -= c.delta
		}
	}

	elements := make(map[string]*model.Element, len(order))
	for _, id := range order {
		e, err := tx.GetElement(ctx, id)
		if err != nil {
			return nil, err
		}
		d := demands[id]
		if d.held-d.released > e.AvailableQuantity {
			return nil, &InsufficientStockError{
				ElementID: id,
				Available: e.AvailableQuantity + d.released,
				Requested: d.held,
			}
		}
		elements[id] = e
	}

	for _, c := range changes {
		if c.delta == 0 {
			continue
		}
		e, err := AdjustSupplied(ctx, tx, c.elementID, c.delta)
		if err != nil {
			return nil, err
		}
		elements[c.elementID] = e
	}
	return elements, nil
}

// holds lists what each line of an order with the given status holds.
// Negative turns the holds into releases.
func holds(lines []model.OrderLine, status string, negative bool) []holdChange {
	changes := make([]holdChange, 0, len(lines))
	for _, l := range lines {
		delta := model.HeldQuantity(status, l.Quantity)
		if negative {
			delta = -delta
		}
		changes = append(changes, holdChange{elementID: l.ElementID, delta: delta})
	}
	return changes
}

func linesFromInput(in []LineInput) []model.OrderLine {
	lines := make([]model.OrderLine, len(in))
	for i, l := range in {
		lines[i] = model.OrderLine{ElementID: strings.TrimSpace(l.ElementID), Quantity: l.Quantity}
	}
	return lines
}

// snapshotLines copies element names and units onto the lines.
func snapshotLines(lines []model.OrderLine, elements map[string]*model.Element) {
	for i := range lines {
		if e, ok := elements[lines[i].ElementID]; ok {
			lines[i].ElementName = e.Name
			lines[i].Unit = e.Unit
		}
	}
}

// CreateOrder validates every line against stock, holds each line in order
// and stores the order as pending. A failing line leaves no trace.
func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (*model.Order, error) {
	v := &ValidationError{}
	client := strings.TrimSpace(in.Client)
	if client == "" {
		v.add("client", "is required")
	}
	validateLines(in.Lines, v)
	if err := v.err(); err != nil {
		return nil, err
	}

	o := &model.Order{
		Client:    client,
		OrderDate: in.OrderDate,
		Status:    model.StatusPending,
		Notes:     strings.TrimSpace(in.Notes),
		Lines:     linesFromInput(in.Lines),
	}

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		elements, err := applyHolds(ctx, tx, holds(o.Lines, o.Status, false))
		if err != nil {
			return err
		}
		snapshotLines(o.Lines, elements)
		if err := tx.InsertOrder(ctx, o); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder returns an order by ID.
func (s *Service) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// ListOrders returns the orders matching f.
func (s *Service) ListOrders(ctx context.Context, f store.OrderFilter) ([]model.Order, error) {
	return s.store.ListOrders(ctx, f)
}

// UpdateOrderStatus moves every line from its old hold to the hold of the
// new status, in line order. The status is stored only when all lines succeed.
func (s *Service) UpdateOrderStatus(ctx context.Context, id, status string) (*model.Order, error) {
	next, ok := model.ParseStatus(status)
	if !ok {
		v := &ValidationError{}
		v.add("status", "must be pending, delivered, completed or rejected")
		return nil, v
	}

	var updated *model.Order
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}

		changes := make([]holdChange, len(o.Lines))
		for i, l := range o.Lines {
			changes[i] = holdChange{
				elementID: l.ElementID,
				delta:     model.HeldQuantity(next, l.Quantity) - model.HeldQuantity(o.Status, l.Quantity),
			}
		}
		if _, err := applyHolds(ctx, tx, changes); err != nil {
			return err
		}

		o.Status = next
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("updating order status: %w", err)
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateOrder edits an order's header and optionally replaces its lines. The
// old lines' holds are released before the new lines are held.
func (s *Service) UpdateOrder(ctx context.Context, id string, p OrderPatch) (*model.Order, error) {
	v := &ValidationError{}
	if p.Client != nil && strings.TrimSpace(*p.Client) == "" {
		v.add("client", "is required")
	}
	if p.Lines != nil {
		validateLines(p.Lines, v)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	var updated *model.Order
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}

		if p.Client != nil {
			o.Client = strings.TrimSpace(*p.Client)
		}
		if p.OrderDate != nil {
			o.OrderDate = *p.OrderDate
		}
		if p.Notes != nil {
			o.Notes = strings.TrimSpace(*p.Notes)
		}
		if p.Lines != nil {
			newLines := linesFromInput(p.Lines)
			changes := append(holds(o.Lines, o.Status, true), holds(newLines, o.Status, false)...)
			elements, err := applyHolds(ctx, tx, changes)
			if err != nil {
				return err
			}
			snapshotLines(newLines, elements)
			o.Lines = newLines
		}

		if err := tx.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("updating order: %w", err)
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteOrder deletes an order, returning every line's hold unless the
// order was delivered.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(tx store.Tx) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if o.Status != model.StatusDelivered {
			if _, err := applyHolds(ctx, tx, holds(o.Lines, o.Status, true)); err != nil {
				return err
			}
		}
		return tx.DeleteOrder(ctx, id)
	})
}

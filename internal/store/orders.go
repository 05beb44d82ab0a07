package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/inventario/internal/model"
)

const orderColumns = `id, client, order_date, status, notes, created_at, updated_at`

func scanOrder(row rowScanner) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(&o.ID, &o.Client, &o.OrderDate, &o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder returns an order with its lines.
func (t sqlTx) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := scanOrder(t.q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	lines, err := t.orderLines(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return o, nil
}

// ListOrders returns orders with their lines, newest first.
func (t sqlTx) ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Client != "" {
		query += ` AND client = ?`
		args = append(args, f.Client)
	}
	query += ` ORDER BY order_date DESC, created_at DESC, id`

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	err = rows.Err()
	// The pool holds a single connection, so the cursor must be released
	// before the line queries below.
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	for i := range orders {
		lines, err := t.orderLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

// InsertOrder stores a new order and its lines, assigning ID and timestamps.
func (t sqlTx) InsertOrder(ctx context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = newID()
	}
	o.CreatedAt = now()
	o.UpdatedAt = o.CreatedAt
	if o.OrderDate.IsZero() {
		o.OrderDate = o.CreatedAt
	}

	_, err := t.q.ExecContext(ctx,
		`INSERT INTO orders (id, client, order_date, status, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Client, o.OrderDate, o.Status, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return t.insertOrderLines(ctx, o)
}

// UpdateOrder overwrites an order and replaces its lines.
func (t sqlTx) UpdateOrder(ctx context.Context, o *model.Order) error {
	o.UpdatedAt = now()

	res, err := t.q.ExecContext(ctx,
		`UPDATE orders SET client = ?, order_date = ?, status = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		o.Client, o.OrderDate, o.Status, o.Notes, o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("updating order: %w", err)
	}
	if err := expectOne(res, "order "+o.ID); err != nil {
		return err
	}

	if _, err := t.q.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = ?`, o.ID); err != nil {
		return fmt.Errorf("clearing order lines: %w", err)
	}
	return t.insertOrderLines(ctx, o)
}

// DeleteOrder removes an order; its lines go with it.
func (t sqlTx) DeleteOrder(ctx context.Context, id string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	return expectOne(res, "order "+id)
}

func (t sqlTx) orderLines(ctx context.Context, orderID string) ([]model.OrderLine, error) {
	rows, err := t.q.QueryContext(ctx,
		`SELECT element_id, element_name, unit, quantity
		 FROM order_lines WHERE order_id = ? ORDER BY position`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing order lines: %w", err)
	}
	defer rows.Close()

	lines := []model.OrderLine{}
	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ElementID, &l.ElementName, &l.Unit, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scanning order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (t sqlTx) insertOrderLines(ctx context.Context, o *model.Order) error {
	for i, l := range o.Lines {
		_, err := t.q.ExecContext(ctx,
			`INSERT INTO order_lines (order_id, position, element_id, element_name, unit, quantity)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, i, l.ElementID, l.ElementName, l.Unit, l.Quantity,
		)
		if err != nil {
			return fmt.Errorf("inserting order line %d: %w", i, err)
		}
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/inventario/internal/model"
)

const requestColumns = `id, element_id, element_name, quantity, sector, request_date,
	status, notes, created_at, updated_at`

func scanRequest(row rowScanner) (*model.Request, error) {
	r := &model.Request{}
	err := row.Scan(&r.ID, &r.ElementID, &r.ElementName, &r.Quantity, &r.Sector, &r.RequestDate,
		&r.Status, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetRequest returns a request by ID.
func (t sqlTx) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	r, err := scanRequest(t.q.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	return r, nil
}

// ListRequests returns requests, newest first.
func (t sqlTx) ListRequests(ctx context.Context, f RequestFilter) ([]model.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Sector != "" {
		query += ` AND sector = ?`
		args = append(args, f.Sector)
	}
	if f.ElementID != "" {
		query += ` AND element_id = ?`
		args = append(args, f.ElementID)
	}
	query += ` ORDER BY request_date DESC, created_at DESC, id`

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var requests []model.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// InsertRequest stores a new request, assigning its ID and timestamps.
func (t sqlTx) InsertRequest(ctx context.Context, r *model.Request) error {
	if r.ID == "" {
		r.ID = newID()
	}
	r.CreatedAt = now()
	r.UpdatedAt = r.CreatedAt
	if r.RequestDate.IsZero() {
		r.RequestDate = r.CreatedAt
	}

	_, err := t.q.ExecContext(ctx,
		`INSERT INTO requests (id, element_id, element_name, quantity, sector, request_date,
		     status, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ElementID, r.ElementName, r.Quantity, r.Sector, r.RequestDate,
		r.Status, r.Notes, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting request: %w", err)
	}
	return nil
}

// UpdateRequest overwrites a request.
func (t sqlTx) UpdateRequest(ctx context.Context, r *model.Request) error {
	r.UpdatedAt = now()

	res, err := t.q.ExecContext(ctx,
		`UPDATE requests SET element_id = ?, element_name = ?, quantity = ?, sector = ?,
		     request_date = ?, status = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		r.ElementID, r.ElementName, r.Quantity, r.Sector,
		r.RequestDate, r.Status, r.Notes, r.UpdatedAt,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating request: %w", err)
	}
	return expectOne(res, "request "+r.ID)
}

// DeleteRequest removes a request.
func (t sqlTx) DeleteRequest(ctx context.Context, id string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting request: %w", err)
	}
	return expectOne(res, "request "+id)
}

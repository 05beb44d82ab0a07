package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/inventario/internal/model"
)

const elementColumns = `id, name, category, element_type, unit, description, location,
	expiration_date, notes, initial_quantity, supplied_quantity, available_quantity,
	COALESCE(image_mime, ''), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanElement(row rowScanner) (*model.Element, error) {
	e := &model.Element{}
	err := row.Scan(&e.ID, &e.Name, &e.Category, &e.ElementType, &e.Unit, &e.Description, &e.Location,
		&e.ExpirationDate, &e.Notes, &e.InitialQuantity, &e.SuppliedQuantity, &e.AvailableQuantity,
		&e.ImageMime, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Normalize()
	return e, nil
}

// GetElement returns an element by ID.
func (t sqlTx) GetElement(ctx context.Context, id string) (*model.Element, error) {
	e, err := scanElement(t.q.QueryRowContext(ctx,
		`SELECT `+elementColumns+` FROM elements WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("element %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting element: %w", err)
	}
	return e, nil
}

// ListElements returns elements ordered by name.
func (t sqlTx) ListElements(ctx context.Context, f ElementFilter) ([]model.Element, error) {
	query := `SELECT ` + elementColumns + ` FROM elements WHERE 1=1`
	var args []any

	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.LowStock {
		// available / initial < LowStockRatio (0.2), in integers.
		query += ` AND available_quantity * 5 < initial_quantity`
	}
	if f.Query != "" {
		query += ` AND name LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(f.Query)+"%")
	}
	query += ` ORDER BY name, id`

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing elements: %w", err)
	}
	defer rows.Close()

	var elements []model.Element
	for rows.Next() {
		e, err := scanElement(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning element: %w", err)
		}
		elements = append(elements, *e)
	}
	return elements, rows.Err()
}

// InsertElement stores a new element, assigning its ID and timestamps.
func (t sqlTx) InsertElement(ctx context.Context, e *model.Element) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if err := checkStock(e); err != nil {
		return fmt.Errorf("inserting element: %w", err)
	}
	e.CreatedAt = now()
	e.UpdatedAt = e.CreatedAt

	_, err := t.q.ExecContext(ctx,
		`INSERT INTO elements (id, name, category, element_type, unit, description, location,
		     expiration_date, notes, initial_quantity, supplied_quantity, available_quantity,
		     created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Category, e.ElementType, e.Unit, e.Description, e.Location,
		e.ExpirationDate, e.Notes, e.InitialQuantity, e.SuppliedQuantity, e.AvailableQuantity,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting element: %w", err)
	}
	return nil
}

// UpdateElement overwrites an element's fields (image excluded).
func (t sqlTx) UpdateElement(ctx context.Context, e *model.Element) error {
	if err := checkStock(e); err != nil {
		return fmt.Errorf("updating element: %w", err)
	}
	e.UpdatedAt = now()

	res, err := t.q.ExecContext(ctx,
		`UPDATE elements SET name = ?, category = ?, element_type = ?, unit = ?, description = ?,
		     location = ?, expiration_date = ?, notes = ?, initial_quantity = ?,
		     supplied_quantity = ?, available_quantity = ?, updated_at = ?
		 WHERE id = ?`,
		e.Name, e.Category, e.ElementType, e.Unit, e.Description,
		e.Location, e.ExpirationDate, e.Notes, e.InitialQuantity,
		e.SuppliedQuantity, e.AvailableQuantity, e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating element: %w", err)
	}
	return expectOne(res, "element "+e.ID)
}

// DeleteElement removes an element.
func (t sqlTx) DeleteElement(ctx context.Context, id string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM elements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting element: %w", err)
	}
	return expectOne(res, "element "+id)
}

// CountElementDependents counts requests and order lines that reference the element.
func (t sqlTx) CountElementDependents(ctx context.Context, id string) (int, error) {
	var count int
	err := t.q.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM requests WHERE element_id = ?)
		      + (SELECT COUNT(*) FROM order_lines WHERE element_id = ?)`,
		id, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting element dependents: %w", err)
	}
	return count, nil
}

// SetElementImage stores an element's photo and its thumbnail.
func (t sqlTx) SetElementImage(ctx context.Context, id string, image, thumbnail []byte, mime string) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE elements SET image = ?, thumbnail = ?, image_mime = ?, updated_at = ? WHERE id = ?`,
		image, thumbnail, mime, now(), id,
	)
	if err != nil {
		return fmt.Errorf("setting element image: %w", err)
	}
	return expectOne(res, "element "+id)
}

// GetElementImage returns an element's photo (or thumbnail) and MIME type.
// A missing element or an element without a photo yields ErrNotFound.
func (t sqlTx) GetElementImage(ctx context.Context, id string, thumbnail bool) ([]byte, string, error) {
	column := "image"
	if thumbnail {
		column = "thumbnail"
	}

	var data []byte
	var mime sql.NullString
	err := t.q.QueryRowContext(ctx,
		`SELECT `+column+`, image_mime FROM elements WHERE id = ?`, id,
	).Scan(&data, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("element %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting element image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image of element %s: %w", id, ErrNotFound)
	}
	return data, mime.String, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

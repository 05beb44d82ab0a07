// Package store persists elements, requests and orders.
//
// Every stock-affecting change goes through Store.WithTx so the element and the
// record holding quantity against it are committed together or not at all.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/inventario/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInconsistentStock is returned when an element is written with a
// supplied quantity outside [0, initial] or a non-positive initial quantity.
var ErrInconsistentStock = errors.New("inconsistent element stock")

// ElementFilter narrows ListElements. Zero values match everything.
type ElementFilter struct {
	Category string
	LowStock bool
	Query    string
}

// RequestFilter narrows ListRequests.
type RequestFilter struct {
	Status    string
	Sector    string
	ElementID string
}

// OrderFilter narrows ListOrders.
type OrderFilter struct {
	Status string
	Client string
}

// Tx is the set of record operations available both inside and outside a transaction.
type Tx interface {
	GetElement(ctx context.Context, id string) (*model.Element, error)
	ListElements(ctx context.Context, f ElementFilter) ([]model.Element, error)
	InsertElement(ctx context.Context, e *model.Element) error
	UpdateElement(ctx context.Context, e *model.Element) error
	DeleteElement(ctx context.Context, id string) error
	// CountElementDependents counts requests and order lines referencing the element.
	CountElementDependents(ctx context.Context, id string) (int, error)
	SetElementImage(ctx context.Context, id string, image, thumbnail []byte, mime string) error
	GetElementImage(ctx context.Context, id string, thumbnail bool) ([]byte, string, error)

	GetRequest(ctx context.Context, id string) (*model.Request, error)
	ListRequests(ctx context.Context, f RequestFilter) ([]model.Request, error)
	InsertRequest(ctx context.Context, r *model.Request) error
	UpdateRequest(ctx context.Context, r *model.Request) error
	DeleteRequest(ctx context.Context, id string) error

	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, error)
	InsertOrder(ctx context.Context, o *model.Order) error
	UpdateOrder(ctx context.Context, o *model.Order) error
	DeleteOrder(ctx context.Context, id string) error
}

// Store is a Tx that can also open transactions.
type Store interface {
	Tx
	// WithTx runs fn in a transaction. It commits when fn returns nil and
	// discards every write made through tx otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// now returns the timestamp stamped on created/updated records.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func newID() string {
	return uuid.NewString()
}

// checkStock refuses an element whose stock breaks the ledger invariant and
// re-derives its available quantity otherwise.
func checkStock(e *model.Element) error {
	if e.InitialQuantity <= 0 || e.SuppliedQuantity < 0 || e.SuppliedQuantity > e.InitialQuantity {
		return fmt.Errorf("element %s with initial %d and supplied %d: %w",
			e.ID, e.InitialQuantity, e.SuppliedQuantity, ErrInconsistentStock)
	}
	e.AvailableQuantity = e.InitialQuantity - e.SuppliedQuantity
	return nil
}

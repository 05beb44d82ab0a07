package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/erazemk/inventario/internal/model"
)

type elementRecord struct {
	element   model.Element
	image     []byte
	thumbnail []byte
}

type memoryState struct {
	elements map[string]elementRecord
	requests map[string]model.Request
	orders   map[string]model.Order
}

func newMemoryState() memoryState {
	return memoryState{
		elements: make(map[string]elementRecord),
		requests: make(map[string]model.Request),
		orders:   make(map[string]model.Order),
	}
}

// clone copies the maps and every mutable value inside them. Image bytes are
// never modified in place, so they are shared.
func (s memoryState) clone() memoryState {
	c := newMemoryState()
	for id, rec := range s.elements {
		rec.element = cloneElement(rec.element)
		c.elements[id] = rec
	}
	for id, r := range s.requests {
		c.requests[id] = r
	}
	for id, o := range s.orders {
		c.orders[id] = o.Clone()
	}
	return c
}

func cloneElement(e model.Element) model.Element {
	if e.ExpirationDate != nil {
		d := *e.ExpirationDate
		e.ExpirationDate = &d
	}
	return e
}

// MemoryStore is an in-process Store. Transactions run against a copy of the
// state that replaces the live state only when the callback succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state memoryState
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

// WithTx runs fn against a snapshot and commits it when fn returns nil.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// live returns a Tx that works directly on the committed state. Callers hold mu.
// The MemoryStore methods below each take mu and delegate to it.
func (s *MemoryStore) live() *memTx {
	return &memTx{state: s.state}
}

// GetElement returns a copy of an element.
func (s *MemoryStore) GetElement(ctx context.Context, id string) (*model.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().GetElement(ctx, id)
}

// ListElements returns the elements matching f, ordered by name.
func (s *MemoryStore) ListElements(ctx context.Context, f ElementFilter) ([]model.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().ListElements(ctx, f)
}

// InsertElement stores a new element outside any transaction.
func (s *MemoryStore) InsertElement(ctx context.Context, e *model.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().InsertElement(ctx, e)
}

// UpdateElement overwrites an element outside any transaction.
func (s *MemoryStore) UpdateElement(ctx context.Context, e *model.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().UpdateElement(ctx, e)
}

// DeleteElement removes an element.
func (s *MemoryStore) DeleteElement(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().DeleteElement(ctx, id)
}

// CountElementDependents counts the requests and order lines referencing an element.
func (s *MemoryStore) CountElementDependents(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().CountElementDependents(ctx, id)
}

// SetElementImage stores an element's photo and thumbnail.
func (s *MemoryStore) SetElementImage(ctx context.Context, id string, image, thumbnail []byte, mime string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().SetElementImage(ctx, id, image, thumbnail, mime)
}

// GetElementImage returns an element's photo, or its thumbnail.
func (s *MemoryStore) GetElementImage(ctx context.Context, id string, thumbnail bool) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().GetElementImage(ctx, id, thumbnail)
}

// GetRequest returns a copy of a request.
func (s *MemoryStore) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().GetRequest(ctx, id)
}

// ListRequests returns the requests matching f, newest first.
func (s *MemoryStore) ListRequests(ctx context.Context, f RequestFilter) ([]model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().ListRequests(ctx, f)
}

// InsertRequest stores a new request.
func (s *MemoryStore) InsertRequest(ctx context.Context, r *model.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().InsertRequest(ctx, r)
}

// UpdateRequest overwrites a request.
func (s *MemoryStore) UpdateRequest(ctx context.Context, r *model.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().UpdateRequest(ctx, r)
}

// DeleteRequest removes a request.
func (s *MemoryStore) DeleteRequest(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().DeleteRequest(ctx, id)
}

// GetOrder returns a copy of an order with its lines.
func (s *MemoryStore) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().GetOrder(ctx, id)
}

// ListOrders returns the orders matching f, newest first.
func (s *MemoryStore) ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().ListOrders(ctx, f)
}

// InsertOrder stores a new order and its lines.
func (s *MemoryStore) InsertOrder(ctx context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().InsertOrder(ctx, o)
}

// UpdateOrder overwrites an order and replaces its lines.
func (s *MemoryStore) UpdateOrder(ctx context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().UpdateOrder(ctx, o)
}

// DeleteOrder removes an order and its lines.
func (s *MemoryStore) DeleteOrder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().DeleteOrder(ctx, id)
}

// memTx implements Tx over a memoryState. Values are copied in and out so
// callers never alias stored records.
type memTx struct {
	state memoryState
}

func (t *memTx) GetElement(_ context.Context, id string) (*model.Element, error) {
	rec, ok := t.state.elements[id]
	if !ok {
		return nil, fmt.Errorf("element %s: %w", id, ErrNotFound)
	}
	e := cloneElement(rec.element)
	return &e, nil
}

func (t *memTx) ListElements(_ context.Context, f ElementFilter) ([]model.Element, error) {
	query := strings.ToLower(f.Query)
	var out []model.Element
	for _, rec := range t.state.elements {
		e := rec.element
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.LowStock && e.AvailableQuantity*5 >= e.InitialQuantity {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(e.Name), query) {
			continue
		}
		out = append(out, cloneElement(e))
	}
	slices.SortFunc(out, func(a, b model.Element) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (t *memTx) InsertElement(_ context.Context, e *model.Element) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if _, exists := t.state.elements[e.ID]; exists {
		return fmt.Errorf("inserting element: duplicate id %s", e.ID)
	}
	if err := checkStock(e); err != nil {
		return fmt.Errorf("inserting element: %w", err)
	}
	e.CreatedAt = now()
	e.UpdatedAt = e.CreatedAt
	t.state.elements[e.ID] = elementRecord{element: cloneElement(*e)}
	return nil
}

func (t *memTx) UpdateElement(_ context.Context, e *model.Element) error {
	rec, ok := t.state.elements[e.ID]
	if !ok {
		return fmt.Errorf("element %s: %w", e.ID, ErrNotFound)
	}
	if err := checkStock(e); err != nil {
		return fmt.Errorf("updating element: %w", err)
	}
	e.UpdatedAt = now()
	// Photo columns are only written by SetElementImage.
	e.ImageMime = rec.element.ImageMime
	e.CreatedAt = rec.element.CreatedAt
	rec.element = cloneElement(*e)
	t.state.elements[e.ID] = rec
	return nil
}

func (t *memTx) DeleteElement(_ context.Context, id string) error {
	if _, ok := t.state.elements[id]; !ok {
		return fmt.Errorf("element %s: %w", id, ErrNotFound)
	}
	delete(t.state.elements, id)
	return nil
}

func (t *memTx) CountElementDependents(_ context.Context, id string) (int, error) {
	count := 0
	for _, r := range t.state.requests {
		if r.ElementID == id {
			count++
		}
	}
	for _, o := range t.state.orders {
		for _, l := range o.Lines {
			if l.ElementID == id {
				count++
			}
		}
	}
	return count, nil
}

func (t *memTx) SetElementImage(_ context.Context, id string, image, thumbnail []byte, mime string) error {
	rec, ok := t.state.elements[id]
	if !ok {
		return fmt.Errorf("element %s: %w", id, ErrNotFound)
	}
	rec.image = slices.Clone(image)
	rec.thumbnail = slices.Clone(thumbnail)
	rec.element.ImageMime = mime
	rec.element.UpdatedAt = now()
	t.state.elements[id] = rec
	return nil
}

func (t *memTx) GetElementImage(_ context.Context, id string, thumbnail bool) ([]byte, string, error) {
	rec, ok := t.state.elements[id]
	if !ok {
		return nil, "", fmt.Errorf("element %s: %w", id, ErrNotFound)
	}
	data := rec.image
	if thumbnail {
		data = rec.thumbnail
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image of element %s: %w", id, ErrNotFound)
	}
	return slices.Clone(data), rec.element.ImageMime, nil
}

func (t *memTx) GetRequest(_ context.Context, id string) (*model.Request, error) {
	r, ok := t.state.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	return &r, nil
}

func (t *memTx) ListRequests(_ context.Context, f RequestFilter) ([]model.Request, error) {
	var out []model.Request
	for _, r := range t.state.requests {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Sector != "" && r.Sector != f.Sector {
			continue
		}
		if f.ElementID != "" && r.ElementID != f.ElementID {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b model.Request) int {
		return cmp.Or(
			b.RequestDate.Compare(a.RequestDate),
			b.CreatedAt.Compare(a.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

func (t *memTx) InsertRequest(_ context.Context, r *model.Request) error {
	if r.ID == "" {
		r.ID = newID()
	}
	if _, exists := t.state.requests[r.ID]; exists {
		return fmt.Errorf("inserting request: duplicate id %s", r.ID)
	}
	if _, ok := t.state.elements[r.ElementID]; !ok {
		return fmt.Errorf("inserting request: element %s: %w", r.ElementID, ErrNotFound)
	}
	r.CreatedAt = now()
	r.UpdatedAt = r.CreatedAt
	if r.RequestDate.IsZero() {
		r.RequestDate = r.CreatedAt
	}
	t.state.requests[r.ID] = *r
	return nil
}

func (t *memTx) UpdateRequest(_ context.Context, r *model.Request) error {
	old, ok := t.state.requests[r.ID]
	if !ok {
		return fmt.Errorf("request %s: %w", r.ID, ErrNotFound)
	}
	r.CreatedAt = old.CreatedAt
	r.UpdatedAt = now()
	t.state.requests[r.ID] = *r
	return nil
}

func (t *memTx) DeleteRequest(_ context.Context, id string) error {
	if _, ok := t.state.requests[id]; !ok {
		return fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	delete(t.state.requests, id)
	return nil
}

func (t *memTx) GetOrder(_ context.Context, id string) (*model.Order, error) {
	o, ok := t.state.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	c := o.Clone()
	return &c, nil
}

func (t *memTx) ListOrders(_ context.Context, f OrderFilter) ([]model.Order, error) {
	var out []model.Order
	for _, o := range t.state.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Client != "" && o.Client != f.Client {
			continue
		}
		out = append(out, o.Clone())
	}
	slices.SortFunc(out, func(a, b model.Order) int {
		return cmp.Or(
			b.OrderDate.Compare(a.OrderDate),
			b.CreatedAt.Compare(a.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

func (t *memTx) InsertOrder(_ context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = newID()
	}
	if _, exists := t.state.orders[o.ID]; exists {
		return fmt.Errorf("inserting order: duplicate id %s", o.ID)
	}
	if err := t.checkLines(o.Lines); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	o.CreatedAt = now()
	o.UpdatedAt = o.CreatedAt
	if o.OrderDate.IsZero() {
		o.OrderDate = o.CreatedAt
	}
	if o.Lines == nil {
		o.Lines = []model.OrderLine{}
	}
	t.state.orders[o.ID] = o.Clone()
	return nil
}

func (t *memTx) UpdateOrder(_ context.Context, o *model.Order) error {
	old, ok := t.state.orders[o.ID]
	if !ok {
		return fmt.Errorf("order %s: %w", o.ID, ErrNotFound)
	}
	if err := t.checkLines(o.Lines); err != nil {
		return fmt.Errorf("updating order: %w", err)
	}
	o.CreatedAt = old.CreatedAt
	o.UpdatedAt = now()
	t.state.orders[o.ID] = o.Clone()
	return nil
}

func (t *memTx) DeleteOrder(_ context.Context, id string) error {
	if _, ok := t.state.orders[id]; !ok {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	delete(t.state.orders, id)
	return nil
}

// checkLines mirrors the order_lines foreign key.
func (t *memTx) checkLines(lines []model.OrderLine) error {
	for _, l := range lines {
		if _, ok := t.state.elements[l.ElementID]; !ok {
			return fmt.Errorf("element %s: %w", l.ElementID, ErrNotFound)
		}
	}
	return nil
}

package inventory

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/inventario/internal/db"
	"github.com/erazemk/inventario/internal/model"
	"github.com/erazemk/inventario/internal/store"
)

// eachService runs fn against a service on SQLite and one on the memory store.
func eachService(t *testing.T, fn func(t *testing.T, s *Service)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, New(store.NewSQLStore(db.NewTestDB(t))))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, New(store.NewMemoryStore()))
	})
}

func createElement(t *testing.T, s *Service, name string, initial int) *model.Element {
	t.Helper()
	e, err := s.CreateElement(context.Background(), ElementInput{
		Name:            name,
		Category:        "Herramientas",
		ElementType:     "Herramienta",
		Unit:            "Unidad",
		InitialQuantity: initial,
	})
	require.NoError(t, err)
	return e
}

// requireStock checks an element's supplied and available quantities and the invariant.
func requireStock(t *testing.T, s *Service, id string, supplied, available int) {
	t.Helper()
	e, err := s.GetElement(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, e.Consistent(), "invariant broken: %+v", e)
	assert.Equal(t, supplied, e.SuppliedQuantity, "supplied of %s", e.Name)
	assert.Equal(t, available, e.AvailableQuantity, "available of %s", e.Name)
}

func newRequest(elementID string, quantity int) RequestInput {
	return RequestInput{ElementID: elementID, Quantity: quantity, Sector: "Bovina"}
}

func TestCreateElement(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		e := createElement(t, s, "  Martillo ", 10)
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, "Martillo", e.Name)
		requireStock(t, s, e.ID, 0, 10)
	})
}

func TestCreateElementValidation(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		_, err := s.CreateElement(context.Background(), ElementInput{Name: "x", InitialQuantity: 0})

		var v *ValidationError
		require.ErrorAs(t, err, &v)
		fields := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = f.Field
		}
		assert.ElementsMatch(t, []string{"category", "element_type", "unit", "initial_quantity"}, fields)

		list, err := s.ListElements(context.Background(), store.ElementFilter{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestAdjustSuppliedBounds(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		e := createElement(t, s, "Taladro", 5)

		err := s.store.WithTx(ctx, func(tx store.Tx) error {
			_, err := AdjustSupplied(ctx, tx, e.ID, 6)
			return err
		})
		var short *InsufficientStockError
		require.ErrorAs(t, err, &short)
		assert.Equal(t, 5, short.Available)
		assert.Equal(t, e.ID, short.ElementID)

		err = s.store.WithTx(ctx, func(tx store.Tx) error {
			_, err := AdjustSupplied(ctx, tx, e.ID, -1)
			return err
		})
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		err = s.store.WithTx(ctx, func(tx store.Tx) error {
			_, err := AdjustSupplied(ctx, tx, "missing", 1)
			return err
		})
		assert.ErrorIs(t, err, ErrNotFound)

		err = s.store.WithTx(ctx, func(tx store.Tx) error {
			got, err := AdjustSupplied(ctx, tx, e.ID, 5)
			if err != nil {
				return err
			}
			assert.Equal(t, 0, got.AvailableQuantity)
			return nil
		})
		require.NoError(t, err)
		requireStock(t, s, e.ID, 5, 0)
	})
}

func TestUpdateElement(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		e := createElement(t, s, "Sierra", 10)
		_, err := s.CreateRequest(ctx, newRequest(e.ID, 6))
		require.NoError(t, err)

		initial := 5
		_, err = s.UpdateElement(ctx, e.ID, ElementPatch{InitialQuantity: &initial})
		require.ErrorIs(t, err, ErrInvalidQuantity)
		requireStock(t, s, e.ID, 6, 4)

		initial = 8
		name := "Sierra circular"
		got, err := s.UpdateElement(ctx, e.ID, ElementPatch{InitialQuantity: &initial, Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Sierra circular", got.Name)
		requireStock(t, s, e.ID, 6, 2)

		empty := ""
		_, err = s.UpdateElement(ctx, e.ID, ElementPatch{Name: &empty})
		var v *ValidationError
		assert.ErrorAs(t, err, &v)

		_, err = s.UpdateElement(ctx, "missing", ElementPatch{Name: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRestock(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		e := createElement(t, s, "Cable", 10)
		_, err := s.CreateRequest(ctx, newRequest(e.ID, 10))
		require.NoError(t, err)

		got, err := s.Restock(ctx, e.ID, 15)
		require.NoError(t, err)
		assert.Equal(t, 25, got.InitialQuantity)
		requireStock(t, s, e.ID, 10, 15)

		_, err = s.Restock(ctx, e.ID, 0)
		var v *ValidationError
		assert.ErrorAs(t, err, &v)
	})
}

func TestRestockOverflow(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		e := createElement(t, s, "Manguera", 10)
		_, err := s.CreateRequest(ctx, newRequest(e.ID, 4))
		require.NoError(t, err)

		_, err = s.Restock(ctx, e.ID, math.MaxInt)
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		assert.Equal(t, "amount", v.Fields[0].Field)

		got, err := s.GetElement(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.InitialQuantity)
		requireStock(t, s, e.ID, 4, 6)

		// The largest amount that still fits is accepted.
		_, err = s.Restock(ctx, e.ID, math.MaxInt-10)
		require.NoError(t, err)
		requireStock(t, s, e.ID, 4, math.MaxInt-4)
	})
}

func TestDeleteElementWithDependents(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		used := createElement(t, s, "Guadaña", 3)
		ordered := createElement(t, s, "Rastrillo", 3)
		free := createElement(t, s, "Escoba", 3)

		r, err := s.CreateRequest(ctx, newRequest(used.ID, 1))
		require.NoError(t, err)
		_, err = s.SetRequestStatus(ctx, r.ID, model.StatusRejected)
		require.NoError(t, err)
		_, err = s.CreateOrder(ctx, OrderInput{Client: "C", Lines: []LineInput{{ElementID: ordered.ID, Quantity: 1}}})
		require.NoError(t, err)

		for _, id := range []string{used.ID, ordered.ID} {
			ok, err := s.CanDeleteElement(ctx, id)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.ErrorIs(t, s.DeleteElement(ctx, id), ErrHasDependents)
		}

		ok, err := s.CanDeleteElement(ctx, free.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, s.DeleteElement(ctx, free.ID))
		assert.ErrorIs(t, s.DeleteElement(ctx, free.ID), ErrNotFound)
	})
}

func TestRequestScenarios(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		e := createElement(t, s, "Carretilla", 10)

		// A: a request holds its quantity.
		first, err := s.CreateRequest(ctx, newRequest(e.ID, 4))
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, first.Status)
		assert.Equal(t, "Carretilla", first.ElementName)
		requireStock(t, s, e.ID, 4, 6)

		// B: a request larger than what is available fails without writes.
		_, err = s.CreateRequest(ctx, newRequest(e.ID, 7))
		var short *InsufficientStockError
		require.ErrorAs(t, err, &short)
		assert.Equal(t, 6, short.Available)
		assert.Equal(t, 7, short.Requested)
		requireStock(t, s, e.ID, 4, 6)
		list, err := s.ListRequests(ctx, store.RequestFilter{})
		require.NoError(t, err)
		assert.Len(t, list, 1)

		// C: editing the quantity moves only the difference.
		quantity := 6
		_, err = s.UpdateRequest(ctx, first.ID, RequestPatch{Quantity: &quantity})
		require.NoError(t, err)
		requireStock(t, s, e.ID, 6, 4)

		// D: deleting a pending request releases its hold.
		require.NoError(t, s.DeleteRequest(ctx, first.ID))
		requireStock(t, s, e.ID, 0, 10)
	})
}

func TestCreateRequestValidation(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		e := createElement(t, s, "Llave", 10)

		for name, in := range map[string]RequestInput{
			"zero quantity":  {ElementID: e.ID, Quantity: 0, Sector: "Bovina"},
			"unknown sector": {ElementID: e.ID, Quantity: 1, Sector: "Ovina"},
			"no element":     {Quantity: 1, Sector: "Bovina"},
		} {
			_, err := s.CreateRequest(ctx, in)
			var v *ValidationError
			assert.ErrorAs(t, err, &v, name)
		}

		_, err := s.CreateRequest(ctx, newRequest("missing", 1))
		assert.ErrorIs(t, err, ErrNotFound)
		requireStock(t, s, e.ID, 0, 10)
	})
}

func TestRequestEditUsesOwnHold(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		e := createElement(t, s, "Pinza", 10)
		r, err := s.CreateRequest(ctx, newRequest(e.ID, 8))
		require.NoError(t, err)

		// 2 available plus the 8 already held.
		quantity := 10
		_, err = s.UpdateRequest(ctx, r.ID, RequestPatch{Quantity: &quantity})
		require.NoError(t, err)
		requireStock(t, s, e.ID, 10, 0)

		quantity = 11
		_, err = s.UpdateRequest(ctx, r.ID, RequestPatch{Quantity: &quantity})
		var short *InsufficientStockError
		require.ErrorAs(t, err, &short)
		assert.Equal(t, 10, short.Available)
		assert.Equal(t, 11, short.Requested)

		got, err := s.GetRequest(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Quantity)
		requireStock(t, s, e.ID, 10, 0)
	})
}

func TestRequestMoveToOtherElement(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		a := createElement(t, s, "Tijera", 5)
		b := createElement(t, s, "Podadora", 5)
		r, err := s.CreateRequest(ctx, newRequest(a.ID, 3))
		require.NoError(t, err)

		got, err := s.UpdateRequest(ctx, r.ID, RequestPatch{ElementID: &b.ID})
		require.NoError(t, err)
		assert.Equal(t, "Podadora", got.ElementName)
		requireStock(t, s, a.ID, 0, 5)
		requireStock(t, s, b.ID, 3, 2)
	})
}

func TestRequestStatusPolicy(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		e := createElement(t, s, "Bomba", 10)
		r, err := s.CreateRequest(ctx, newRequest(e.ID, 4))
		require.NoError(t, err)

		// pending -> delivered -> pending leaves supplied where it was.
		_, err = s.SetRequestStatus(ctx, r.ID, model.StatusDelivered)
		require.NoError(t, err)
		requireStock(t, s, e.ID, 4, 6)
		_, err = s.SetRequestStatus(ctx, r.ID, model.StatusPending)
		require.NoError(t, err)
		requireStock(t, s, e.ID, 4, 6)

		// Rejecting releases; un-rejecting holds again.
		_, err = s.SetRequestStatus(ctx, r.ID, model.StatusRejected)
		require.NoError(t, err)
		requireStock(t, s, e.ID, 0, 10)

		other, err := s.CreateRequest(ctx, newRequest(e.ID, 8))
		require.NoError(t, err)
		_, err = s.SetRequestStatus(ctx, r.ID, model.StatusPending)
		var short *InsufficientStockError
		require.ErrorAs(t, err, &short)
		requireStock(t, s, e.ID, 8, 2)

		got, err := s.GetRequest(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusRejected, got.Status)

		// Deleting a rejected request releases nothing.
		require.NoError(t, s.DeleteRequest(ctx, r.ID))
		requireStock(t, s, e.ID, 8, 2)

		// Deleting a delivered request keeps the goods counted as gone.
		_, err = s.SetRequestStatus(ctx, other.ID, "completed")
		require.NoError(t, err)
		require.NoError(t, s.DeleteRequest(ctx, other.ID))
		requireStock(t, s, e.ID, 8, 2)

		_, err = s.SetRequestStatus(ctx, "missing", model.StatusPending)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestOrderScenarioE(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		e1 := createElement(t, s, "Clavos", 10)
		e2 := createElement(t, s, "Tablas", 5)
		_, err := s.CreateRequest(ctx, newRequest(e2.ID, 3))
		require.NoError(t, err)
		requireStock(t, s, e2.ID, 3, 2)

		_, err = s.CreateOrder(ctx, OrderInput{Client: "Granja Sur", Lines: []LineInput{
			{ElementID: e1.ID, Quantity: 2},
			{ElementID: e2.ID, Quantity: 3},
		}})
		var short *InsufficientStockError
		require.ErrorAs(t, err, &short)
		assert.Equal(t, e2.ID, short.ElementID)
		assert.Equal(t, 2, short.Available)

		requireStock(t, s, e1.ID, 0, 10)
		requireStock(t, s, e2.ID, 3, 2)
		orders, err := s.ListOrders(ctx, store.OrderFilter{})
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestOrderSumsDemandPerElement(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		e := createElement(t, s, "Tubo", 5)

		_, err := s.CreateOrder(ctx, OrderInput{Client: "A", Lines: []LineInput{
			{ElementID: e.ID, Quantity: 3},
			{ElementID: e.ID, Quantity: 3},
		}})
		var short *InsufficientStockError
		require.ErrorAs(t, err, &short)
		assert.Equal(t, 6, short.Requested)
		requireStock(t, s, e.ID, 0, 5)

		o, err := s.CreateOrder(ctx, OrderInput{Client: "A", Lines: []LineInput{
			{ElementID: e.ID, Quantity: 3},
			{ElementID: e.ID, Quantity: 2},
		}})
		require.NoError(t, err)
		requireStock(t, s, e.ID, 5, 0)
		assert.Equal(t, "Tubo", o.Lines[1].ElementName)
		assert.Equal(t, "Unidad", o.Lines[1].Unit)
	})
}

func TestOrderConservation(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		elements := []*model.Element{
			createElement(t, s, "Alambre", 20),
			createElement(t, s, "Postes", 15),
			createElement(t, s, "Grapas", 7),
		}
		var lines []LineInput
		for i, e := range elements {
			lines = append(lines, LineInput{ElementID: e.ID, Quantity: i + 2})
		}

		o, err := s.CreateOrder(ctx, OrderInput{Client: "Cooperativa", Lines: lines})
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, o.Status)
		for i, e := range elements {
			requireStock(t, s, e.ID, i+2, e.InitialQuantity-(i+2))
		}

		require.NoError(t, s.DeleteOrder(ctx, o.ID))
		for _, e := range elements {
			requireStock(t, s, e.ID, 0, e.InitialQuantity)
		}
		assert.ErrorIs(t, s.DeleteOrder(ctx, o.ID), ErrNotFound)
	})
}

func TestOrderStatusTransitions(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		a := createElement(t, s, "Semillas", 10)
		b := createElement(t, s, "Abono", 10)
		o, err := s.CreateOrder(ctx, OrderInput{Client: "Huerta", Lines: []LineInput{
			{ElementID: a.ID, Quantity: 4},
			{ElementID: b.ID, Quantity: 6},
		}})
		require.NoError(t, err)

		got, err := s.UpdateOrderStatus(ctx, o.ID, "completed")
		require.NoError(t, err)
		assert.Equal(t, model.StatusDelivered, got.Status)
		requireStock(t, s, a.ID, 4, 6)
		requireStock(t, s, b.ID, 6, 4)

		_, err = s.UpdateOrderStatus(ctx, o.ID, model.StatusRejected)
		require.NoError(t, err)
		requireStock(t, s, a.ID, 0, 10)
		requireStock(t, s, b.ID, 0, 10)

		// b cannot be held again: the order stays rejected and a is untouched.
		_, err = s.CreateRequest(ctx, newRequest(b.ID, 5))
		require.NoError(t, err)
		_, err = s.UpdateOrderStatus(ctx, o.ID, model.StatusPending)
		var short *InsufficientStockError
		require.ErrorAs(t, err, &short)
		assert.Equal(t, b.ID, short.ElementID)
		requireStock(t, s, a.ID, 0, 10)
		requireStock(t, s, b.ID, 5, 5)

		got, err = s.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusRejected, got.Status)

		_, err = s.UpdateOrderStatus(ctx, o.ID, "lost")
		var v *ValidationError
		assert.ErrorAs(t, err, &v)
	})
}

func TestDeleteDeliveredOrderKeepsStockOut(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		e := createElement(t, s, "Malla", 10)
		o, err := s.CreateOrder(ctx, OrderInput{Client: "X", Lines: []LineInput{{ElementID: e.ID, Quantity: 4}}})
		require.NoError(t, err)
		_, err = s.UpdateOrderStatus(ctx, o.ID, model.StatusDelivered)
		require.NoError(t, err)

		require.NoError(t, s.DeleteOrder(ctx, o.ID))
		requireStock(t, s, e.ID, 4, 6)
	})
}

func TestUpdateOrderReplacesLines(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		a := createElement(t, s, "Pintura", 10)
		b := createElement(t, s, "Brocha", 10)
		o, err := s.CreateOrder(ctx, OrderInput{Client: "Taller", Lines: []LineInput{{ElementID: a.ID, Quantity: 10}}})
		require.NoError(t, err)
		requireStock(t, s, a.ID, 10, 0)

		// The 10 held by the old line are available to the new one.
		client := "Taller Central"
		got, err := s.UpdateOrder(ctx, o.ID, OrderPatch{Client: &client, Lines: []LineInput{
			{ElementID: a.ID, Quantity: 8},
			{ElementID: b.ID, Quantity: 2},
		}})
		require.NoError(t, err)
		assert.Equal(t, "Taller Central", got.Client)
		require.Len(t, got.Lines, 2)
		assert.Equal(t, "Brocha", got.Lines[1].ElementName)
		requireStock(t, s, a.ID, 8, 2)
		requireStock(t, s, b.ID, 2, 8)

		_, err = s.UpdateOrder(ctx, o.ID, OrderPatch{Lines: []LineInput{{ElementID: b.ID, Quantity: 11}}})
		var short *InsufficientStockError
		require.ErrorAs(t, err, &short)
		assert.Equal(t, 10, short.Available)
		requireStock(t, s, a.ID, 8, 2)
		requireStock(t, s, b.ID, 2, 8)

		_, err = s.UpdateOrder(ctx, o.ID, OrderPatch{Lines: []LineInput{}})
		var v *ValidationError
		assert.ErrorAs(t, err, &v)
	})
}

func TestCreateOrderValidation(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		e := createElement(t, s, "Lona", 3)

		_, err := s.CreateOrder(ctx, OrderInput{Client: " ", Lines: []LineInput{{ElementID: e.ID, Quantity: 0}}})
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		assert.Len(t, v.Fields, 2)

		_, err = s.CreateOrder(ctx, OrderInput{Client: "A"})
		assert.ErrorAs(t, err, &v)

		_, err = s.CreateOrder(ctx, OrderInput{Client: "A", Lines: []LineInput{{ElementID: "missing", Quantity: 1}}})
		assert.True(t, errors.Is(err, ErrNotFound))
		requireStock(t, s, e.ID, 0, 3)
	})
}

func TestSummarize(t *testing.T) {
	eachService(t, func(t *testing.T, s *Service) {
		ctx := context.Background()
		a := createElement(t, s, "Soga", 10)
		b := createElement(t, s, "Candado", 10)
		c, err := s.CreateElement(ctx, ElementInput{Name: "Detergente", Category: "Limpieza",
			ElementType: "Insumo", Unit: "Litro", InitialQuantity: 4})
		require.NoError(t, err)

		_, err = s.CreateRequest(ctx, newRequest(a.ID, 9))
		require.NoError(t, err)
		rejected, err := s.CreateRequest(ctx, newRequest(b.ID, 1))
		require.NoError(t, err)
		_, err = s.SetRequestStatus(ctx, rejected.ID, model.StatusRejected)
		require.NoError(t, err)
		_, err = s.CreateOrder(ctx, OrderInput{Client: "X", Lines: []LineInput{
			{ElementID: c.ID, Quantity: 4},
			{ElementID: b.ID, Quantity: 2},
		}})
		require.NoError(t, err)

		d, err := s.Summarize(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, d.TotalElements)
		assert.Equal(t, 2, d.ActiveElements)
		assert.Equal(t, 2, d.LowStockElements)
		assert.Equal(t, 2, d.TotalRequests)
		assert.Equal(t, 1, d.TotalOrders)
		assert.Len(t, d.RecentOrders, 1)

		require.Len(t, d.Categories, 2)
		assert.Equal(t, CategorySummary{Category: "Herramientas", Elements: 2, Available: 9, LowStock: 1}, d.Categories[0])
		assert.Equal(t, CategorySummary{Category: "Limpieza", Elements: 1, Available: 0, LowStock: 1}, d.Categories[1])

		require.Len(t, d.TopRequested, 3)
		assert.Equal(t, "Soga", d.TopRequested[0].Name)
		assert.Equal(t, 9, d.TopRequested[0].Quantity)
		assert.Equal(t, "Detergente", d.TopRequested[1].Name)
		assert.Equal(t, RequestedElement{ElementID: b.ID, Name: "Candado", Quantity: 2}, d.TopRequested[2])
	})
}

package inventory

import (
	"cmp"
	"context"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/erazemk/inventario/internal/model"
	"github.com/erazemk/inventario/internal/store"
)

const (
	topRequestedLimit = 5
	recentOrdersLimit = 5
)

// CategorySummary aggregates the elements of one category.
type CategorySummary struct {
	Category  string `json:"category"`
	Elements  int    `json:"elements"`
	Available int    `json:"available"`
	LowStock  int    `json:"low_stock"`
}

// RequestedElement is an element with the total quantity asked for it.
type RequestedElement struct {
	ElementID string `json:"element_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// Dashboard is an overview of the inventory.
type Dashboard struct {
	TotalElements    int                `json:"total_elements"`
	ActiveElements   int                `json:"active_elements"`
	LowStockElements int                `json:"low_stock_elements"`
	Categories       []CategorySummary  `json:"categories"`
	TopRequested     []RequestedElement `json:"top_requested"`
	TotalOrders      int                `json:"total_orders"`
	TotalRequests    int                `json:"total_requests"`
	RecentOrders     []model.Order      `json:"recent_orders"`
}

// Summarize builds the dashboard from one consistent read of the store.
// Rejected requests and orders do not count towards the most requested elements.
func (s *Service) Summarize(ctx context.Context) (*Dashboard, error) {
	var (
		elements []model.Element
		requests []model.Request
		orders   []model.Order
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if elements, err = tx.ListElements(ctx, store.ElementFilter{}); err != nil {
			return err
		}
		if requests, err = tx.ListRequests(ctx, store.RequestFilter{}); err != nil {
			return err
		}
		orders, err = tx.ListOrders(ctx, store.OrderFilter{})
		return err
	})
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalElements: len(elements),
		TotalOrders:   len(orders),
		TotalRequests: len(requests),
		Categories:    []CategorySummary{},
		TopRequested:  []RequestedElement{},
		RecentOrders:  []model.Order{},
	}

	byCategory := make(map[string]*CategorySummary)
	for i := range elements {
		e := &elements[i]
		if e.AvailableQuantity > 0 {
			d.ActiveElements++
		}
		c, ok := byCategory[e.Category]
		if !ok {
			c = &CategorySummary{Category: e.Category}
			byCategory[e.Category] = c
		}
		c.Elements++
		c.Available += e.AvailableQuantity
		if e.LowStock() {
			d.LowStockElements++
			c.LowStock++
		}
	}

	col := collate.New(language.Spanish, collate.IgnoreCase)
	for _, c := range byCategory {
		d.Categories = append(d.Categories, *c)
	}
	slices.SortFunc(d.Categories, func(a, b CategorySummary) int {
		return cmp.Or(cmp.Compare(b.Elements, a.Elements), col.CompareString(a.Category, b.Category))
	})

	requested := make(map[string]*RequestedElement)
	count := func(id, name string, quantity int) {
		r, ok := requested[id]
		if !ok {
			r = &RequestedElement{ElementID: id, Name: name}
			requested[id] = r
		}
		r.Quantity += quantity
	}
	for _, r := range requests {
		count(r.ElementID, r.ElementName, model.HeldQuantity(r.Status, r.Quantity))
	}
	for _, o := range orders {
		for _, l := range o.Lines {
			count(l.ElementID, l.ElementName, model.HeldQuantity(o.Status, l.Quantity))
		}
	}
	for _, r := range requested {
		if r.Quantity > 0 {
			d.TopRequested = append(d.TopRequested, *r)
		}
	}
	slices.SortFunc(d.TopRequested, func(a, b RequestedElement) int {
		return cmp.Or(cmp.Compare(b.Quantity, a.Quantity), col.CompareString(a.Name, b.Name))
	})
	if len(d.TopRequested) > topRequestedLimit {
		d.TopRequested = d.TopRequested[:topRequestedLimit]
	}

	// Orders are listed newest first.
	d.RecentOrders = append(d.RecentOrders, orders[:min(len(orders), recentOrdersLimit)]...)

	return d, nil
}

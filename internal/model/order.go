package model

import "time"

// Order bundles several elements for a client.
type Order struct {
	ID        string      `json:"id"`
	Client    string      `json:"client"`
	OrderDate time.Time   `json:"order_date"`
	Status    string      `json:"status"`
	Notes     string      `json:"notes,omitempty"`
	Lines     []OrderLine `json:"lines"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderLine is one element of an order. Name and unit are snapshots taken
// when the line was written.
type OrderLine struct {
	ElementID   string `json:"element_id"`
	ElementName string `json:"element_name"`
	Unit        string `json:"unit"`
	Quantity    int    `json:"quantity"`
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	o.Lines = append([]OrderLine(nil), o.Lines...)
	return o
}

// TotalQuantity sums the quantities of all lines.
func (o *Order) TotalQuantity() int {
	total := 0
	for _, l := range o.Lines {
		total += l.Quantity
	}
	return total
}

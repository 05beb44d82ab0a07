package model

import "time"

// Request is a single-element checkout made by a sector.
type Request struct {
	ID          string    `json:"id"`
	ElementID   string    `json:"element_id"`
	ElementName string    `json:"element_name"`
	Quantity    int       `json:"quantity"`
	Sector      string    `json:"sector"`
	RequestDate time.Time `json:"request_date"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Statuses shared by requests and orders.
const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusRejected  = "rejected"
)

// ParseStatus accepts a status name and its aliases. "completed" is how
// orders call delivered.
func ParseStatus(s string) (string, bool) {
	switch s {
	case StatusPending:
		return StatusPending, true
	case StatusDelivered, "completed":
		return StatusDelivered, true
	case StatusRejected:
		return StatusRejected, true
	}
	return "", false
}

// HeldQuantity is how much of quantity a record with the given status keeps
// counted in its element's supplied quantity. Pending and delivered records
// hold stock; rejected ones hold nothing.
func HeldQuantity(status string, quantity int) int {
	if status == StatusRejected {
		return 0
	}
	return quantity
}

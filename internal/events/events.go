package events

import "time"

// Event types published on committed lifecycle mutations.
const (
	SaleCreated         = "sale.created"
	SaleCompleted       = "sale.completed"
	SaleCancelled       = "sale.cancelled"
	SaleDeleted         = "sale.deleted"
	PurchaseCreated     = "purchase.created"
	PurchaseDeactivated = "purchase.deactivated"
	PurchaseReactivated = "purchase.reactivated"
	PurchaseDeleted     = "purchase.deleted"
)

type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

// Envelope is the wire shape for every order event, keyed by display ID.
type Envelope struct {
	EventID   string     `json:"event_id"`
	EventType string     `json:"event_type"`
	DisplayID string     `json:"display_id"`
	ActorID   string     `json:"actor_id,omitempty"`
	Total     int64      `json:"total,omitempty"`
	Items     []LineItem `json:"items,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

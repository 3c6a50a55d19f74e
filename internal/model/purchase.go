package model

import "time"

type PurchaseStatus string

const (
	PurchaseActive   PurchaseStatus = "active"
	PurchaseInactive PurchaseStatus = "inactive"
)

func (s PurchaseStatus) Valid() bool {
	return s == PurchaseActive || s == PurchaseInactive
}

// Purchase increments stock at creation (goods received). Deactivation
// reverses the stock effect and records why; reactivation replays it. Both
// directions may repeat.
type Purchase struct {
	BaseModel
	DisplayID          string         `db:"display_id" json:"display_id"`
	ProviderID         string         `db:"provider_id" json:"provider_id"`
	Total              int64          `db:"total" json:"total"`
	PurchaseDate       time.Time      `db:"purchase_date" json:"purchase_date"`
	Status             PurchaseStatus `db:"status" json:"status"`
	DeactivationReason *string        `db:"deactivation_reason" json:"deactivation_reason"`
	DeactivatedAt      *time.Time     `db:"deactivated_at" json:"deactivated_at"`
	DeactivatedBy      *string        `db:"deactivated_by" json:"deactivated_by"`
	ReactivationReason *string        `db:"reactivation_reason" json:"reactivation_reason"`
	ReactivatedAt      *time.Time     `db:"reactivated_at" json:"reactivated_at"`
	ReactivatedBy      *string        `db:"reactivated_by" json:"reactivated_by"`
	Items              []PurchaseItem `db:"-" json:"items"`
}

type PurchaseItem struct {
	ID         string `db:"id" json:"id"`
	PurchaseID string `db:"purchase_id" json:"purchase_id"`
	ProductID  string `db:"product_id" json:"product_id"`
	Quantity   int64  `db:"quantity" json:"quantity"`
	UnitPrice  int64  `db:"unit_price" json:"unit_price"`
	LineTotal  int64  `db:"line_total" json:"line_total"`
}

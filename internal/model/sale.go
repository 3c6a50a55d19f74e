package model

import "time"

type SaleStatus string

const (
	SaleProcessing SaleStatus = "processing"
	SaleCompleted  SaleStatus = "completed"
	SaleCancelled  SaleStatus = "cancelled"
)

// Terminal reports whether no further status change is permitted.
func (s SaleStatus) Terminal() bool {
	return s == SaleCompleted || s == SaleCancelled
}

func (s SaleStatus) Valid() bool {
	switch s {
	case SaleProcessing, SaleCompleted, SaleCancelled:
		return true
	}
	return false
}

// Sale is created in processing with stock already reserved. Line items are
// immutable after creation and exclusively owned by the sale.
type Sale struct {
	BaseModel
	DisplayID   string     `db:"display_id" json:"display_id"`
	CustomerID  string     `db:"customer_id" json:"customer_id"`
	BranchID    string     `db:"branch_id" json:"branch_id"`
	Total       int64      `db:"total" json:"total"`
	SaleDate    time.Time  `db:"sale_date" json:"sale_date"`
	Status      SaleStatus `db:"status" json:"status"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at"`
	Items       []SaleItem `db:"-" json:"items"`
}

type SaleItem struct {
	ID        string `db:"id" json:"id"`
	SaleID    string `db:"sale_id" json:"sale_id"`
	ProductID string `db:"product_id" json:"product_id"`
	Quantity  int64  `db:"quantity" json:"quantity"`
	UnitPrice int64  `db:"unit_price" json:"unit_price"`
	LineTotal int64  `db:"line_total" json:"line_total"`
}

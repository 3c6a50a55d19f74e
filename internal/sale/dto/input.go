package dto

// ItemInput is one requested line. The unit price is not taken from the
// caller; it snapshots the product's current catalog price at creation.
type ItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type CreateSaleInput struct {
	CustomerID string      `json:"customer_id"`
	BranchID   string      `json:"branch_id"`
	SaleDate   string      `json:"sale_date"`
	Items      []ItemInput `json:"items"`
}

type SaleFilters struct {
	CustomerID string
	BranchID   string
	Status     string
	Page       int
	PageSize   int
}

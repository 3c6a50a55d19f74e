package dto

import "github.com/wicaksana/pos-order-service/internal/model"

// Line is one product/quantity pair of a stock mutation batch. Quantity is
// always positive; direction comes from the operation.
type Line struct {
	ProductID string
	Quantity  int64
}

// StockChangeInput describes a multi-line reserve or restore, with the audit
// context stamped onto every movement row.
type StockChangeInput struct {
	Lines         []Line
	ReferenceType string
	ReferenceID   string
	Reason        string
	ActorID       string
}

// StockChange is the repository-level unit: a signed delta plus its movement
// row. QuantityBefore/After are filled by the repository from the conditional
// update's returned value.
type StockChange struct {
	ProductID string
	Delta     int64
	Movement  model.StockMovement
}

type MovementFilters struct {
	ProductID     string
	MovementType  string
	ReferenceType string
	ReferenceID   string
	Page          int
	PageSize      int
}

package ledger

import (
	"context"

	"github.com/wicaksana/pos-order-service/internal/ledger/dto"
	"github.com/wicaksana/pos-order-service/internal/model"
)

type Repository interface {
	// Product reads
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// ApplyChanges commits every delta plus its movement row in one
	// transaction. Each delta is a single conditional update that refuses to
	// drive stock below zero; any refusal rolls back the whole batch.
	ApplyChanges(ctx context.Context, changes []dto.StockChange) error

	// Movements / audit
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}

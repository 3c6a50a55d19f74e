package ledger

import (
	"context"

	"github.com/wicaksana/pos-order-service/internal/ledger/dto"
	"github.com/wicaksana/pos-order-service/internal/model"
)

// UseCase is the only writer of product stock. Reserve subtracts, Restore
// adds; both apply per line inside one all-or-nothing batch.
type UseCase interface {
	Reserve(ctx context.Context, input *dto.StockChangeInput) error
	Restore(ctx context.Context, input *dto.StockChangeInput) error

	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}

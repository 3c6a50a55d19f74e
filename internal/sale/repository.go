package sale

import (
	"context"

	"github.com/wicaksana/pos-order-service/internal/model"
	"github.com/wicaksana/pos-order-service/internal/sale/dto"
)

// Repository persists sales and their owned line items. It also serves as the
// allocator's Source for the "Sa" prefix.
type Repository interface {
	Create(ctx context.Context, sale *model.Sale) error
	FindByDisplayID(ctx context.Context, displayID string) (*model.Sale, error)
	FindAll(ctx context.Context, filters *dto.SaleFilters) ([]model.Sale, int, error)
	SetStatus(ctx context.Context, sale *model.Sale) error
	Delete(ctx context.Context, id string) error

	// sequence.Source
	HighestNumber(ctx context.Context, prefix string) (int, error)
	Exists(ctx context.Context, displayID string) (bool, error)
}

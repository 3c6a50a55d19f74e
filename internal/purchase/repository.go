package purchase

import (
	"context"

	"github.com/wicaksana/pos-order-service/internal/model"
	"github.com/wicaksana/pos-order-service/internal/purchase/dto"
)

// Repository persists purchases and their owned line items. It also serves as
// the allocator's Source for the "Pu" prefix.
type Repository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	FindByDisplayID(ctx context.Context, displayID string) (*model.Purchase, error)
	FindAll(ctx context.Context, filters *dto.PurchaseFilters) ([]model.Purchase, int, error)
	SetStatus(ctx context.Context, purchase *model.Purchase) error
	Delete(ctx context.Context, id string) error

	// sequence.Source
	HighestNumber(ctx context.Context, prefix string) (int, error)
	Exists(ctx context.Context, displayID string) (bool, error)
}

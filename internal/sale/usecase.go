package sale

import (
	"context"

	"github.com/wicaksana/pos-order-service/internal/model"
	"github.com/wicaksana/pos-order-service/internal/sale/dto"
)

type UseCase interface {
	// CreateSale validates, reserves stock, allocates a display ID, and
	// persists the sale in processing.
	CreateSale(ctx context.Context, input *dto.CreateSaleInput) (*model.Sale, error)

	// TransitionSale moves a processing sale to completed or cancelled.
	// Cancellation restores the reserved stock.
	TransitionSale(ctx context.Context, displayID string, target model.SaleStatus) (*model.Sale, error)

	// DeleteSale removes a processing (after restoring its reservation) or
	// cancelled sale. Completed sales cannot be deleted.
	DeleteSale(ctx context.Context, displayID string) error

	GetSale(ctx context.Context, displayID string) (*model.Sale, error)
	ListSales(ctx context.Context, filters *dto.SaleFilters) ([]model.Sale, int, error)
}

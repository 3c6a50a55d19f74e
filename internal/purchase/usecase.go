package purchase

import (
	"context"

	"github.com/wicaksana/pos-order-service/internal/model"
	"github.com/wicaksana/pos-order-service/internal/purchase/dto"
)

type UseCase interface {
	// CreatePurchase validates, increments stock (goods received), allocates
	// a display ID, and persists the purchase as active.
	CreatePurchase(ctx context.Context, input *dto.CreatePurchaseInput) (*model.Purchase, error)

	// DeactivatePurchase reverses the purchase's stock effect. It fails
	// without partial effect when any product lacks the stock to reverse.
	DeactivatePurchase(ctx context.Context, displayID, reason string) (*model.Purchase, error)

	// ReactivatePurchase replays the stock effect after re-checking that the
	// provider and every product are still active.
	ReactivatePurchase(ctx context.Context, displayID, reason string) (*model.Purchase, error)

	// DeletePurchase removes an inactive purchase. An active purchase's stock
	// effect is still live, so it cannot be deleted.
	DeletePurchase(ctx context.Context, displayID string) error

	GetPurchase(ctx context.Context, displayID string) (*model.Purchase, error)
	ListPurchases(ctx context.Context, filters *dto.PurchaseFilters) ([]model.Purchase, int, error)
}

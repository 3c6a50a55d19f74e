package masterdata

import (
	"context"

	"github.com/wicaksana/pos-order-service/internal/model"
)

// Repository is the read-only window onto master data owned elsewhere. All
// lookups return (nil, nil) when the entity does not exist.
type Repository interface {
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
	GetBranch(ctx context.Context, id string) (*model.Branch, error)
	GetProvider(ctx context.Context, id string) (*model.Provider, error)
}

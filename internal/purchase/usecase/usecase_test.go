package usecase

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wicaksana/pos-order-service/internal/apperr"
	"github.com/wicaksana/pos-order-service/internal/auth"
	"github.com/wicaksana/pos-order-service/internal/events"
	ledgerdto "github.com/wicaksana/pos-order-service/internal/ledger/dto"
	"github.com/wicaksana/pos-order-service/internal/model"
	"github.com/wicaksana/pos-order-service/internal/purchase"
	"github.com/wicaksana/pos-order-service/internal/purchase/dto"
	"github.com/wicaksana/pos-order-service/internal/sequence"
	"github.com/wicaksana/pos-order-service/pkg/logger"
)

type fakeLedger struct {
	products map[string]*model.Product
}

func (f *fakeLedger) apply(lines []ledgerdto.Line, sign int64) error {
	for _, line := range lines {
		p, ok := f.products[line.ProductID]
		if !ok {
			return apperr.NotFound("product", line.ProductID)
		}
		if p.Stock+sign*line.Quantity < 0 {
			return apperr.Wrap(apperr.ErrInsufficientStock, "product", line.ProductID)
		}
	}
	for _, line := range lines {
		f.products[line.ProductID].Stock += sign * line.Quantity
	}
	return nil
}

func (f *fakeLedger) Reserve(_ context.Context, input *ledgerdto.StockChangeInput) error {
	return f.apply(input.Lines, -1)
}

func (f *fakeLedger) Restore(_ context.Context, input *ledgerdto.StockChangeInput) error {
	return f.apply(input.Lines, +1)
}

func (f *fakeLedger) GetProduct(_ context.Context, id string) (*model.Product, error) {
	return f.products[id], nil
}

func (f *fakeLedger) ListProductsByIDs(_ context.Context, ids []string) ([]model.Product, error) {
	out := []model.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListMovements(_ context.Context, _ *ledgerdto.MovementFilters) ([]model.StockMovement, int, error) {
	return nil, 0, nil
}

type fakePurchaseRepo struct {
	purchases map[string]*model.Purchase // by display ID
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{purchases: map[string]*model.Purchase{}}
}

func (f *fakePurchaseRepo) Create(_ context.Context, p *model.Purchase) error {
	clone := *p
	f.purchases[p.DisplayID] = &clone
	return nil
}

func (f *fakePurchaseRepo) FindByDisplayID(_ context.Context, displayID string) (*model.Purchase, error) {
	p, ok := f.purchases[displayID]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (f *fakePurchaseRepo) FindAll(_ context.Context, _ *dto.PurchaseFilters) ([]model.Purchase, int, error) {
	out := []model.Purchase{}
	for _, p := range f.purchases {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakePurchaseRepo) SetStatus(_ context.Context, p *model.Purchase) error {
	clone := *p
	f.purchases[p.DisplayID] = &clone
	return nil
}

func (f *fakePurchaseRepo) Delete(_ context.Context, id string) error {
	for displayID, p := range f.purchases {
		if p.ID == id {
			delete(f.purchases, displayID)
		}
	}
	return nil
}

func (f *fakePurchaseRepo) HighestNumber(_ context.Context, prefix string) (int, error) {
	highest := 0
	for displayID := range f.purchases {
		if len(displayID) == 4 && strings.HasPrefix(displayID, prefix) {
			if n, err := strconv.Atoi(displayID[2:]); err == nil && n > highest {
				highest = n
			}
		}
	}
	return highest, nil
}

func (f *fakePurchaseRepo) Exists(_ context.Context, displayID string) (bool, error) {
	_, ok := f.purchases[displayID]
	return ok, nil
}

type fakeMaster struct {
	providers map[string]*model.Provider
}

func (f *fakeMaster) GetCustomer(_ context.Context, _ string) (*model.Customer, error) {
	return nil, nil
}

func (f *fakeMaster) GetBranch(_ context.Context, _ string) (*model.Branch, error) {
	return nil, nil
}

func (f *fakeMaster) GetProvider(_ context.Context, id string) (*model.Provider, error) {
	return f.providers[id], nil
}

type fixture struct {
	uc     purchase.UseCase
	repo   *fakePurchaseRepo
	ledger *fakeLedger
	master *fakeMaster
}

func newFixture() *fixture {
	led := &fakeLedger{products: map[string]*model.Product{
		"p1": {BaseModel: model.BaseModel{ID: "p1"}, Name: "Coffee", Price: 100, Stock: 10, IsActive: true},
	}}
	master := &fakeMaster{providers: map[string]*model.Provider{
		"pr1": {BaseModel: model.BaseModel{ID: "pr1"}, Name: "Beans Inc", IsActive: true},
		"pr2": {BaseModel: model.BaseModel{ID: "pr2"}, Name: "Closed Co", IsActive: false},
	}}
	repo := newFakePurchaseRepo()
	uc := NewPurchaseUseCase(
		repo, master, led,
		sequence.NewAllocator(repo, logger.NewNop()),
		auth.SetChecker{}, events.NopPublisher{}, logger.NewNop(),
	)
	return &fixture{uc: uc, repo: repo, ledger: led, master: master}
}

func purchaseCtx() context.Context {
	return auth.WithActor(context.Background(), auth.Actor{
		UserID: "u1",
		Permissions: []string{
			auth.PermPurchaseCreate, auth.PermPurchaseDeactivate,
			auth.PermPurchaseReactivate, auth.PermPurchaseDelete,
		},
	})
}

func validInput() *dto.CreatePurchaseInput {
	return &dto.CreatePurchaseInput{
		ProviderID: "pr1",
		Items:      []dto.ItemInput{{ProductID: "p1", Quantity: 5, UnitPrice: 50}},
	}
}

func TestCreatePurchaseIncrementsStockAndTotals(t *testing.T) {
	f := newFixture()

	created, err := f.uc.CreatePurchase(purchaseCtx(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "Pu01", created.DisplayID)
	assert.Equal(t, model.PurchaseActive, created.Status)
	assert.Equal(t, int64(250), created.Total)
	assert.Equal(t, int64(15), f.ledger.products["p1"].Stock)
}

func TestCreatePurchaseInactiveProviderRejected(t *testing.T) {
	f := newFixture()
	input := validInput()
	input.ProviderID = "pr2"

	_, err := f.uc.CreatePurchase(purchaseCtx(), input)
	assert.ErrorIs(t, err, apperr.ErrPreconditionFailed)
	assert.Equal(t, int64(10), f.ledger.products["p1"].Stock)
}

func TestCreatePurchaseNonPositivePriceRejected(t *testing.T) {
	f := newFixture()
	input := validInput()
	input.Items[0].UnitPrice = 0

	_, err := f.uc.CreatePurchase(purchaseCtx(), input)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreatePurchaseForbiddenWithoutPermission(t *testing.T) {
	f := newFixture()
	ctx := auth.WithActor(context.Background(), auth.Actor{UserID: "u1"})

	_, err := f.uc.CreatePurchase(ctx, validInput())
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, int64(10), f.ledger.products["p1"].Stock)
}

func TestDeactivateReversesStockAndStampsAudit(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreatePurchase(purchaseCtx(), validInput())
	require.NoError(t, err)

	updated, err := f.uc.DeactivatePurchase(purchaseCtx(), created.DisplayID, "damaged goods")
	require.NoError(t, err)

	assert.Equal(t, model.PurchaseInactive, updated.Status)
	require.NotNil(t, updated.DeactivationReason)
	assert.Equal(t, "damaged goods", *updated.DeactivationReason)
	require.NotNil(t, updated.DeactivatedBy)
	assert.Equal(t, "u1", *updated.DeactivatedBy)
	assert.NotNil(t, updated.DeactivatedAt)
	assert.Equal(t, int64(10), f.ledger.products["p1"].Stock)
}

func TestDeactivateRequiresReason(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreatePurchase(purchaseCtx(), validInput())
	require.NoError(t, err)

	_, err = f.uc.DeactivatePurchase(purchaseCtx(), created.DisplayID, "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, int64(15), f.ledger.products["p1"].Stock)
}

func TestDeactivateInsufficientStockRejectedWholly(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreatePurchase(purchaseCtx(), validInput())
	require.NoError(t, err)

	// Intervening consumption leaves less stock than the reversal needs.
	f.ledger.products["p1"].Stock = 3

	_, err = f.uc.DeactivatePurchase(purchaseCtx(), created.DisplayID, "return to vendor")
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, int64(3), f.ledger.products["p1"].Stock)

	reloaded, err := f.uc.GetPurchase(purchaseCtx(), created.DisplayID)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseActive, reloaded.Status)
}

func TestDeactivateAlreadyInactive(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreatePurchase(purchaseCtx(), validInput())
	require.NoError(t, err)
	_, err = f.uc.DeactivatePurchase(purchaseCtx(), created.DisplayID, "oops")
	require.NoError(t, err)

	_, err = f.uc.DeactivatePurchase(purchaseCtx(), created.DisplayID, "again")
	assert.ErrorIs(t, err, apperr.ErrAlreadyInState)
}

func TestReactivateRoundTripRestoresStock(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreatePurchase(purchaseCtx(), validInput())
	require.NoError(t, err)
	afterCreate := f.ledger.products["p1"].Stock

	_, err = f.uc.DeactivatePurchase(purchaseCtx(), created.DisplayID, "recount")
	require.NoError(t, err)
	updated, err := f.uc.ReactivatePurchase(purchaseCtx(), created.DisplayID, "recount done")
	require.NoError(t, err)

	assert.Equal(t, model.PurchaseActive, updated.Status)
	require.NotNil(t, updated.ReactivationReason)
	assert.Equal(t, "recount done", *updated.ReactivationReason)
	assert.Equal(t, afterCreate, f.ledger.products["p1"].Stock)
}

func TestReactivateBlockedByInactiveProduct(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreatePurchase(purchaseCtx(), validInput())
	require.NoError(t, err)
	_, err = f.uc.DeactivatePurchase(purchaseCtx(), created.DisplayID, "hold")
	require.NoError(t, err)

	f.ledger.products["p1"].IsActive = false

	_, err = f.uc.ReactivatePurchase(purchaseCtx(), created.DisplayID, "resume")
	assert.ErrorIs(t, err, apperr.ErrPreconditionFailed)
	assert.Equal(t, int64(10), f.ledger.products["p1"].Stock)
}

func TestReactivateBlockedByInactiveProvider(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreatePurchase(purchaseCtx(), validInput())
	require.NoError(t, err)
	_, err = f.uc.DeactivatePurchase(purchaseCtx(), created.DisplayID, "hold")
	require.NoError(t, err)

	f.master.providers["pr1"].IsActive = false

	_, err = f.uc.ReactivatePurchase(purchaseCtx(), created.DisplayID, "resume")
	assert.ErrorIs(t, err, apperr.ErrPreconditionFailed)
}

func TestReactivateAlreadyActive(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreatePurchase(purchaseCtx(), validInput())
	require.NoError(t, err)

	_, err = f.uc.ReactivatePurchase(purchaseCtx(), created.DisplayID, "noop")
	assert.ErrorIs(t, err, apperr.ErrAlreadyInState)
}

func TestDeleteActivePurchaseForbidden(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreatePurchase(purchaseCtx(), validInput())
	require.NoError(t, err)

	err = f.uc.DeletePurchase(purchaseCtx(), created.DisplayID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Len(t, f.repo.purchases, 1)
}

func TestDeleteInactivePurchaseNoStockEffect(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreatePurchase(purchaseCtx(), validInput())
	require.NoError(t, err)
	_, err = f.uc.DeactivatePurchase(purchaseCtx(), created.DisplayID, "done with it")
	require.NoError(t, err)
	require.Equal(t, int64(10), f.ledger.products["p1"].Stock)

	err = f.uc.DeletePurchase(purchaseCtx(), created.DisplayID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.ledger.products["p1"].Stock)
	assert.Empty(t, f.repo.purchases)
}

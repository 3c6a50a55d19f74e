package usecase

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wicaksana/pos-order-service/internal/apperr"
	"github.com/wicaksana/pos-order-service/internal/auth"
	"github.com/wicaksana/pos-order-service/internal/events"
	ledgerdto "github.com/wicaksana/pos-order-service/internal/ledger/dto"
	"github.com/wicaksana/pos-order-service/internal/model"
	"github.com/wicaksana/pos-order-service/internal/sale"
	"github.com/wicaksana/pos-order-service/internal/sale/dto"
	"github.com/wicaksana/pos-order-service/internal/sequence"
	"github.com/wicaksana/pos-order-service/pkg/logger"
)

// fakeLedger applies the same batch semantics as the real ledger: any refusal
// leaves every line unapplied.
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

type fakeSaleRepo struct {
	sales     map[string]*model.Sale // by display ID
	createErr error
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: map[string]*model.Sale{}}
}

func (f *fakeSaleRepo) Create(_ context.Context, s *model.Sale) error {
	if f.createErr != nil {
		return f.createErr
	}
	clone := *s
	f.sales[s.DisplayID] = &clone
	return nil
}

func (f *fakeSaleRepo) FindByDisplayID(_ context.Context, displayID string) (*model.Sale, error) {
	s, ok := f.sales[displayID]
	if !ok {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSaleRepo) FindAll(_ context.Context, _ *dto.SaleFilters) ([]model.Sale, int, error) {
	out := []model.Sale{}
	for _, s := range f.sales {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeSaleRepo) SetStatus(_ context.Context, s *model.Sale) error {
	clone := *s
	f.sales[s.DisplayID] = &clone
	return nil
}

func (f *fakeSaleRepo) Delete(_ context.Context, id string) error {
	for displayID, s := range f.sales {
		if s.ID == id {
			delete(f.sales, displayID)
		}
	}
	return nil
}

func (f *fakeSaleRepo) HighestNumber(_ context.Context, prefix string) (int, error) {
	highest := 0
	for displayID := range f.sales {
		if len(displayID) == 4 && strings.HasPrefix(displayID, prefix) {
			if n, err := strconv.Atoi(displayID[2:]); err == nil && n > highest {
				highest = n
			}
		}
	}
	return highest, nil
}

func (f *fakeSaleRepo) Exists(_ context.Context, displayID string) (bool, error) {
	_, ok := f.sales[displayID]
	return ok, nil
}

type fakeMaster struct {
	customers map[string]*model.Customer
	branches  map[string]*model.Branch
	calls     int
}

func (f *fakeMaster) GetCustomer(_ context.Context, id string) (*model.Customer, error) {
	f.calls++
	return f.customers[id], nil
}

func (f *fakeMaster) GetBranch(_ context.Context, id string) (*model.Branch, error) {
	f.calls++
	return f.branches[id], nil
}

func (f *fakeMaster) GetProvider(_ context.Context, _ string) (*model.Provider, error) {
	f.calls++
	return nil, nil
}

type fixture struct {
	uc     sale.UseCase
	repo   *fakeSaleRepo
	ledger *fakeLedger
	master *fakeMaster
}

func future() *time.Time {
	t := time.Now().Add(365 * 24 * time.Hour)
	return &t
}

func past() *time.Time {
	t := time.Now().Add(-24 * time.Hour)
	return &t
}

func newFixture() *fixture {
	led := &fakeLedger{products: map[string]*model.Product{
		"p1": {BaseModel: model.BaseModel{ID: "p1"}, Name: "Coffee", Price: 100, Stock: 10, IsActive: true, ExpirationDate: future()},
		"p2": {BaseModel: model.BaseModel{ID: "p2"}, Name: "Tea", Price: 50, Stock: 4, IsActive: true},
	}}
	master := &fakeMaster{
		customers: map[string]*model.Customer{
			"c1": {BaseModel: model.BaseModel{ID: "c1"}, Name: "Ana", IsActive: true},
			"c2": {BaseModel: model.BaseModel{ID: "c2"}, Name: "Ben", IsActive: false},
		},
		branches: map[string]*model.Branch{
			"b1": {BaseModel: model.BaseModel{ID: "b1"}, Name: "Main", IsActive: true},
		},
	}
	repo := newFakeSaleRepo()
	uc := NewSaleUseCase(
		repo, master, led,
		sequence.NewAllocator(repo, logger.NewNop()),
		auth.SetChecker{}, events.NopPublisher{}, logger.NewNop(),
	)
	return &fixture{uc: uc, repo: repo, ledger: led, master: master}
}

func ctxWith(perms ...string) context.Context {
	return auth.WithActor(context.Background(), auth.Actor{UserID: "u1", Permissions: perms})
}

func saleCtx() context.Context {
	return ctxWith(auth.PermSaleCreate, auth.PermSaleTransition, auth.PermSaleDelete)
}

func validInput() *dto.CreateSaleInput {
	return &dto.CreateSaleInput{
		CustomerID: "c1",
		BranchID:   "b1",
		Items:      []dto.ItemInput{{ProductID: "p1", Quantity: 3}},
	}
}

func TestCreateSaleReservesStockAndTotals(t *testing.T) {
	f := newFixture()

	created, err := f.uc.CreateSale(saleCtx(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "Sa01", created.DisplayID)
	assert.Equal(t, model.SaleProcessing, created.Status)
	assert.Equal(t, int64(300), created.Total)
	require.Len(t, created.Items, 1)
	assert.Equal(t, int64(100), created.Items[0].UnitPrice)
	assert.Equal(t, int64(300), created.Items[0].LineTotal)
	assert.Equal(t, int64(7), f.ledger.products["p1"].Stock)
}

func TestCreateSaleSequentialDisplayIDs(t *testing.T) {
	f := newFixture()

	first, err := f.uc.CreateSale(saleCtx(), validInput())
	require.NoError(t, err)
	second, err := f.uc.CreateSale(saleCtx(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "Sa01", first.DisplayID)
	assert.Equal(t, "Sa02", second.DisplayID)
}

func TestCreateSaleParsesDateOnly(t *testing.T) {
	f := newFixture()
	input := validInput()
	input.SaleDate = "2026-01-15"

	created, err := f.uc.CreateSale(saleCtx(), input)
	require.NoError(t, err)
	assert.Equal(t, 2026, created.SaleDate.Year())
	assert.Equal(t, time.January, created.SaleDate.Month())
	assert.Equal(t, 15, created.SaleDate.Day())
}

func TestCreateSaleMalformedDateRejected(t *testing.T) {
	f := newFixture()
	input := validInput()
	input.SaleDate = "15/01/2026"

	_, err := f.uc.CreateSale(saleCtx(), input)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, int64(10), f.ledger.products["p1"].Stock)
}

func TestCreateSaleInactiveCustomerRejected(t *testing.T) {
	f := newFixture()
	input := validInput()
	input.CustomerID = "c2"

	_, err := f.uc.CreateSale(saleCtx(), input)
	assert.ErrorIs(t, err, apperr.ErrPreconditionFailed)
	assert.Equal(t, int64(10), f.ledger.products["p1"].Stock)
}

func TestCreateSaleUnknownBranchRejected(t *testing.T) {
	f := newFixture()
	input := validInput()
	input.BranchID = "nope"

	_, err := f.uc.CreateSale(saleCtx(), input)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateSaleExpiredProductRejectedWithoutSideEffects(t *testing.T) {
	f := newFixture()
	f.ledger.products["p1"].ExpirationDate = past()

	_, err := f.uc.CreateSale(saleCtx(), validInput())
	assert.ErrorIs(t, err, apperr.ErrPreconditionFailed)
	assert.Equal(t, int64(10), f.ledger.products["p1"].Stock)
	assert.Empty(t, f.repo.sales)
}

func TestCreateSaleInsufficientStockRejected(t *testing.T) {
	f := newFixture()
	input := validInput()
	input.Items = []dto.ItemInput{{ProductID: "p2", Quantity: 5}}

	_, err := f.uc.CreateSale(saleCtx(), input)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, int64(4), f.ledger.products["p2"].Stock)
}

func TestCreateSaleAggregatesViolations(t *testing.T) {
	f := newFixture()
	f.ledger.products["p1"].IsActive = false
	input := validInput()
	input.CustomerID = "c2"

	_, err := f.uc.CreateSale(saleCtx(), input)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrPreconditionFailed)
	// Both the inactive customer and the inactive product are reported.
	assert.Contains(t, err.Error(), "c2")
	assert.Contains(t, err.Error(), "p1")
}

func TestCreateSaleNonPositiveQuantityRejected(t *testing.T) {
	f := newFixture()
	input := validInput()
	input.Items = []dto.ItemInput{{ProductID: "p1", Quantity: 0}}

	_, err := f.uc.CreateSale(saleCtx(), input)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateSaleForbiddenBeforeLookups(t *testing.T) {
	f := newFixture()

	_, err := f.uc.CreateSale(ctxWith(), validInput())
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Zero(t, f.master.calls)
	assert.Equal(t, int64(10), f.ledger.products["p1"].Stock)
}

func TestCreateSaleCompensatesWhenPersistFails(t *testing.T) {
	f := newFixture()
	f.repo.createErr = assert.AnError

	_, err := f.uc.CreateSale(saleCtx(), validInput())
	require.Error(t, err)
	assert.Equal(t, int64(10), f.ledger.products["p1"].Stock)
}

func TestCompleteSaleLeavesStockReserved(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreateSale(saleCtx(), validInput())
	require.NoError(t, err)

	updated, err := f.uc.TransitionSale(saleCtx(), created.DisplayID, model.SaleCompleted)
	require.NoError(t, err)

	assert.Equal(t, model.SaleCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, int64(7), f.ledger.products["p1"].Stock)
}

func TestCancelSaleRestoresExactQuantities(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreateSale(saleCtx(), validInput())
	require.NoError(t, err)
	require.Equal(t, int64(7), f.ledger.products["p1"].Stock)

	updated, err := f.uc.TransitionSale(saleCtx(), created.DisplayID, model.SaleCancelled)
	require.NoError(t, err)

	assert.Equal(t, model.SaleCancelled, updated.Status)
	require.NotNil(t, updated.CancelledAt)
	assert.Equal(t, int64(10), f.ledger.products["p1"].Stock)
}

func TestTerminalStatesRejectFurtherTransitions(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreateSale(saleCtx(), validInput())
	require.NoError(t, err)
	_, err = f.uc.TransitionSale(saleCtx(), created.DisplayID, model.SaleCompleted)
	require.NoError(t, err)

	_, err = f.uc.TransitionSale(saleCtx(), created.DisplayID, model.SaleCancelled)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, int64(7), f.ledger.products["p1"].Stock)
}

func TestSameStatusTransitionRejected(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreateSale(saleCtx(), validInput())
	require.NoError(t, err)

	_, err = f.uc.TransitionSale(saleCtx(), created.DisplayID, model.SaleProcessing)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestTransitionUnknownSale(t *testing.T) {
	f := newFixture()

	_, err := f.uc.TransitionSale(saleCtx(), "Sa99", model.SaleCompleted)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteProcessingSaleRestoresStock(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreateSale(saleCtx(), validInput())
	require.NoError(t, err)

	err = f.uc.DeleteSale(saleCtx(), created.DisplayID)
	require.NoError(t, err)

	assert.Equal(t, int64(10), f.ledger.products["p1"].Stock)
	assert.Empty(t, f.repo.sales)
}

func TestDeleteCompletedSaleForbidden(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreateSale(saleCtx(), validInput())
	require.NoError(t, err)
	_, err = f.uc.TransitionSale(saleCtx(), created.DisplayID, model.SaleCompleted)
	require.NoError(t, err)

	err = f.uc.DeleteSale(saleCtx(), created.DisplayID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Len(t, f.repo.sales, 1)
}

func TestDeleteCancelledSaleHasNoStockEffect(t *testing.T) {
	f := newFixture()
	created, err := f.uc.CreateSale(saleCtx(), validInput())
	require.NoError(t, err)
	_, err = f.uc.TransitionSale(saleCtx(), created.DisplayID, model.SaleCancelled)
	require.NoError(t, err)
	require.Equal(t, int64(10), f.ledger.products["p1"].Stock)

	err = f.uc.DeleteSale(saleCtx(), created.DisplayID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.ledger.products["p1"].Stock)
}

package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wicaksana/pos-order-service/internal/apperr"
	"github.com/wicaksana/pos-order-service/internal/auth"
	"github.com/wicaksana/pos-order-service/internal/events"
	"github.com/wicaksana/pos-order-service/internal/ledger"
	ledgerdto "github.com/wicaksana/pos-order-service/internal/ledger/dto"
	"github.com/wicaksana/pos-order-service/internal/masterdata"
	"github.com/wicaksana/pos-order-service/internal/model"
	"github.com/wicaksana/pos-order-service/internal/sale"
	"github.com/wicaksana/pos-order-service/internal/sale/dto"
	"github.com/wicaksana/pos-order-service/internal/sequence"
	"github.com/wicaksana/pos-order-service/pkg/logger"
	"github.com/wicaksana/pos-order-service/pkg/timeutil"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const referenceType = "sale"

type saleUseCase struct {
	repo      sale.Repository
	master    masterdata.Repository
	stock     ledger.UseCase
	allocator *sequence.Allocator
	checker   auth.Checker
	publisher events.Publisher
	logger    logger.ZapLogger
}

func NewSaleUseCase(
	repo sale.Repository,
	master masterdata.Repository,
	stock ledger.UseCase,
	allocator *sequence.Allocator,
	checker auth.Checker,
	publisher events.Publisher,
	log logger.ZapLogger,
) sale.UseCase {
	return &saleUseCase{
		repo:      repo,
		master:    master,
		stock:     stock,
		allocator: allocator,
		checker:   checker,
		publisher: publisher,
		logger:    log,
	}
}

func (uc *saleUseCase) CreateSale(ctx context.Context, input *dto.CreateSaleInput) (*model.Sale, error) {
	actor, err := uc.authorize(ctx, auth.PermSaleCreate)
	if err != nil {
		return nil, err
	}

	if err := validateShape(input); err != nil {
		return nil, err
	}

	saleDate, set, err := timeutil.ParseDate(input.SaleDate)
	if err != nil {
		return nil, apperr.Wrapf(apperr.ErrValidation, "sale", "malformed sale date %q", input.SaleDate)
	}
	if !set {
		saleDate = time.Now()
	}

	products, err := uc.validatePreconditions(ctx, input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &model.Sale{
		BaseModel:  model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		CustomerID: input.CustomerID,
		BranchID:   input.BranchID,
		SaleDate:   saleDate,
		Status:     model.SaleProcessing,
	}

	for _, item := range input.Items {
		product := products[item.ProductID]
		line := model.SaleItem{
			ID:        uuid.New().String(),
			SaleID:    s.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			LineTotal: item.Quantity * product.Price,
		}
		s.Items = append(s.Items, line)
		s.Total += line.LineTotal
	}

	if err := uc.stock.Reserve(ctx, uc.stockInput(s, actor.UserID, "sale created")); err != nil {
		return nil, err
	}

	s.DisplayID = uc.allocator.Allocate(ctx, sequence.PrefixSale)

	if err := uc.repo.Create(ctx, s); err != nil {
		// Compensate the reservation; the sale record never existed.
		if restoreErr := uc.stock.Restore(ctx, uc.stockInput(s, actor.UserID, "sale creation rolled back")); restoreErr != nil {
			uc.logger.Error("failed to compensate sale reservation",
				zap.String("sale_id", s.ID), zap.Error(restoreErr))
		}
		return nil, err
	}

	uc.publish(events.SaleCreated, s, actor.UserID)
	return s, nil
}

func (uc *saleUseCase) TransitionSale(ctx context.Context, displayID string, target model.SaleStatus) (*model.Sale, error) {
	actor, err := uc.authorize(ctx, auth.PermSaleTransition)
	if err != nil {
		return nil, err
	}

	if !target.Valid() {
		return nil, apperr.Wrapf(apperr.ErrValidation, "sale", "unknown status %q", target)
	}

	s, err := uc.load(ctx, displayID)
	if err != nil {
		return nil, err
	}

	if s.Status == target || s.Status.Terminal() || target == model.SaleProcessing {
		return nil, apperr.Wrapf(apperr.ErrInvalidTransition, "sale",
			"%s cannot move from %s to %s", displayID, s.Status, target)
	}

	now := time.Now()
	switch target {
	case model.SaleCompleted:
		// The reservation becomes permanent consumption; no stock effect.
		s.Status = model.SaleCompleted
		s.CompletedAt = &now
	case model.SaleCancelled:
		if err := uc.stock.Restore(ctx, uc.stockInput(s, actor.UserID, "sale cancelled")); err != nil {
			return nil, err
		}
		s.Status = model.SaleCancelled
		s.CancelledAt = &now
	}
	s.UpdatedAt = now

	if err := uc.repo.SetStatus(ctx, s); err != nil {
		if target == model.SaleCancelled {
			if reserveErr := uc.stock.Reserve(ctx, uc.stockInput(s, actor.UserID, "sale cancellation rolled back")); reserveErr != nil {
				uc.logger.Error("failed to compensate sale cancellation",
					zap.String("display_id", displayID), zap.Error(reserveErr))
			}
		}
		return nil, err
	}

	if target == model.SaleCompleted {
		uc.publish(events.SaleCompleted, s, actor.UserID)
	} else {
		uc.publish(events.SaleCancelled, s, actor.UserID)
	}
	return s, nil
}

func (uc *saleUseCase) DeleteSale(ctx context.Context, displayID string) error {
	actor, err := uc.authorize(ctx, auth.PermSaleDelete)
	if err != nil {
		return err
	}

	s, err := uc.load(ctx, displayID)
	if err != nil {
		return err
	}

	if s.Status == model.SaleCompleted {
		return apperr.Wrapf(apperr.ErrInvalidTransition, "sale",
			"%s is completed and cannot be deleted", displayID)
	}

	// A processing sale still holds its reservation; give it back first.
	if s.Status == model.SaleProcessing {
		if err := uc.stock.Restore(ctx, uc.stockInput(s, actor.UserID, "sale deleted")); err != nil {
			return err
		}
	}

	if err := uc.repo.Delete(ctx, s.ID); err != nil {
		if s.Status == model.SaleProcessing {
			if reserveErr := uc.stock.Reserve(ctx, uc.stockInput(s, actor.UserID, "sale deletion rolled back")); reserveErr != nil {
				uc.logger.Error("failed to compensate sale deletion",
					zap.String("display_id", displayID), zap.Error(reserveErr))
			}
		}
		return err
	}

	uc.publish(events.SaleDeleted, s, actor.UserID)
	return nil
}

func (uc *saleUseCase) GetSale(ctx context.Context, displayID string) (*model.Sale, error) {
	return uc.load(ctx, displayID)
}

func (uc *saleUseCase) ListSales(ctx context.Context, filters *dto.SaleFilters) ([]model.Sale, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *saleUseCase) authorize(ctx context.Context, code string) (auth.Actor, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok || !uc.checker.Has(actor, code) {
		return auth.Actor{}, apperr.Wrap(apperr.ErrForbidden, "sale", code)
	}
	return actor, nil
}

func (uc *saleUseCase) load(ctx context.Context, displayID string) (*model.Sale, error) {
	s, err := uc.repo.FindByDisplayID(ctx, displayID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperr.NotFound("sale", displayID)
	}
	return s, nil
}

func validateShape(input *dto.CreateSaleInput) error {
	if input.CustomerID == "" {
		return apperr.Validation("customer id is required")
	}
	if input.BranchID == "" {
		return apperr.Validation("branch id is required")
	}
	if len(input.Items) == 0 {
		return apperr.Validation("at least one line item is required")
	}
	for _, item := range input.Items {
		if item.ProductID == "" {
			return apperr.Validation("line item product id is required")
		}
		if item.Quantity <= 0 {
			return apperr.Wrapf(apperr.ErrValidation, "sale",
				"quantity for product %s must be positive, got %d", item.ProductID, item.Quantity)
		}
	}
	return nil
}

// validatePreconditions runs the cross-entity checks and aggregates every
// violation so the caller sees the full reject reason set at once.
func (uc *saleUseCase) validatePreconditions(ctx context.Context, input *dto.CreateSaleInput) (map[string]*model.Product, error) {
	var violations error

	customer, err := uc.master.GetCustomer(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	switch {
	case customer == nil:
		violations = multierr.Append(violations, apperr.NotFound("customer", input.CustomerID))
	case !customer.IsActive:
		violations = multierr.Append(violations, apperr.Precondition("customer", input.CustomerID+" is inactive"))
	}

	branch, err := uc.master.GetBranch(ctx, input.BranchID)
	if err != nil {
		return nil, err
	}
	switch {
	case branch == nil:
		violations = multierr.Append(violations, apperr.NotFound("branch", input.BranchID))
	case !branch.IsActive:
		violations = multierr.Append(violations, apperr.Precondition("branch", input.BranchID+" is inactive"))
	}

	ids := make([]string, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}
	found, err := uc.stock.ListProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	products := make(map[string]*model.Product, len(found))
	for i := range found {
		products[found[i].ID] = &found[i]
	}

	now := time.Now()
	for _, item := range input.Items {
		product, ok := products[item.ProductID]
		if !ok {
			violations = multierr.Append(violations, apperr.NotFound("product", item.ProductID))
			continue
		}
		if !product.IsActive {
			violations = multierr.Append(violations, apperr.Precondition("product", item.ProductID+" is inactive"))
		}
		if product.Expired(now) {
			violations = multierr.Append(violations, apperr.Precondition("product", item.ProductID+" is expired"))
		}
		// Advisory availability check; the ledger's conditional update is the
		// binding one.
		if product.Stock < item.Quantity {
			violations = multierr.Append(violations, apperr.Wrapf(apperr.ErrInsufficientStock, "product",
				"%s has %d in stock, %d requested", item.ProductID, product.Stock, item.Quantity))
		}
	}

	if violations != nil {
		return nil, violations
	}
	return products, nil
}

func (uc *saleUseCase) stockInput(s *model.Sale, actorID, reason string) *ledgerdto.StockChangeInput {
	lines := make([]ledgerdto.Line, 0, len(s.Items))
	for _, item := range s.Items {
		lines = append(lines, ledgerdto.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return &ledgerdto.StockChangeInput{
		Lines:         lines,
		ReferenceType: referenceType,
		ReferenceID:   s.ID,
		Reason:        reason,
		ActorID:       actorID,
	}
}

func (uc *saleUseCase) publish(eventType string, s *model.Sale, actorID string) {
	items := make([]events.LineItem, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, events.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	go uc.publisher.Publish(context.Background(), events.Envelope{
		EventType: eventType,
		DisplayID: s.DisplayID,
		ActorID:   actorID,
		Total:     s.Total,
		Items:     items,
	})
}

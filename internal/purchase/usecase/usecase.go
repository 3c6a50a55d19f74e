package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wicaksana/pos-order-service/internal/apperr"
	"github.com/wicaksana/pos-order-service/internal/auth"
	"github.com/wicaksana/pos-order-service/internal/events"
	"github.com/wicaksana/pos-order-service/internal/ledger"
	ledgerdto "github.com/wicaksana/pos-order-service/internal/ledger/dto"
	"github.com/wicaksana/pos-order-service/internal/masterdata"
	"github.com/wicaksana/pos-order-service/internal/model"
	"github.com/wicaksana/pos-order-service/internal/purchase"
	"github.com/wicaksana/pos-order-service/internal/purchase/dto"
	"github.com/wicaksana/pos-order-service/internal/sequence"
	"github.com/wicaksana/pos-order-service/pkg/logger"
	"github.com/wicaksana/pos-order-service/pkg/timeutil"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const referenceType = "purchase"

type purchaseUseCase struct {
	repo      purchase.Repository
	master    masterdata.Repository
	stock     ledger.UseCase
	allocator *sequence.Allocator
	checker   auth.Checker
	publisher events.Publisher
	logger    logger.ZapLogger
}

func NewPurchaseUseCase(
	repo purchase.Repository,
	master masterdata.Repository,
	stock ledger.UseCase,
	allocator *sequence.Allocator,
	checker auth.Checker,
	publisher events.Publisher,
	log logger.ZapLogger,
) purchase.UseCase {
	return &purchaseUseCase{
		repo:      repo,
		master:    master,
		stock:     stock,
		allocator: allocator,
		checker:   checker,
		publisher: publisher,
		logger:    log,
	}
}

func (uc *purchaseUseCase) CreatePurchase(ctx context.Context, input *dto.CreatePurchaseInput) (*model.Purchase, error) {
	actor, err := uc.authorize(ctx, auth.PermPurchaseCreate)
	if err != nil {
		return nil, err
	}

	if err := validateShape(input); err != nil {
		return nil, err
	}

	purchaseDate, set, err := timeutil.ParseDate(input.PurchaseDate)
	if err != nil {
		return nil, apperr.Wrapf(apperr.ErrValidation, "purchase", "malformed purchase date %q", input.PurchaseDate)
	}
	if !set {
		purchaseDate = time.Now()
	}

	if err := uc.validatePreconditions(ctx, input.ProviderID, productIDs(input.Items)); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Purchase{
		BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ProviderID:   input.ProviderID,
		PurchaseDate: purchaseDate,
		Status:       model.PurchaseActive,
	}

	for _, item := range input.Items {
		line := model.PurchaseItem{
			ID:         uuid.New().String(),
			PurchaseID: p.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			LineTotal:  item.Quantity * item.UnitPrice,
		}
		p.Items = append(p.Items, line)
		p.Total += line.LineTotal
	}

	// Goods are received at creation time; stock goes up immediately.
	if err := uc.stock.Restore(ctx, uc.stockInput(p, actor.UserID, "purchase received")); err != nil {
		return nil, err
	}

	p.DisplayID = uc.allocator.Allocate(ctx, sequence.PrefixPurchase)

	if err := uc.repo.Create(ctx, p); err != nil {
		if reserveErr := uc.stock.Reserve(ctx, uc.stockInput(p, actor.UserID, "purchase creation rolled back")); reserveErr != nil {
			uc.logger.Error("failed to compensate purchase receipt",
				zap.String("purchase_id", p.ID), zap.Error(reserveErr))
		}
		return nil, err
	}

	uc.publish(events.PurchaseCreated, p, actor.UserID)
	return p, nil
}

func (uc *purchaseUseCase) DeactivatePurchase(ctx context.Context, displayID, reason string) (*model.Purchase, error) {
	actor, err := uc.authorize(ctx, auth.PermPurchaseDeactivate)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("deactivation reason is required")
	}

	p, err := uc.load(ctx, displayID)
	if err != nil {
		return nil, err
	}
	if p.Status == model.PurchaseInactive {
		return nil, apperr.Wrapf(apperr.ErrAlreadyInState, "purchase", "%s is already inactive", displayID)
	}

	// Reverse the receipt. The ledger batch refuses as a whole if any product
	// lacks the stock to give back.
	if err := uc.stock.Reserve(ctx, uc.stockInput(p, actor.UserID, "purchase deactivated: "+reason)); err != nil {
		return nil, err
	}

	now := time.Now()
	p.Status = model.PurchaseInactive
	p.DeactivationReason = &reason
	p.DeactivatedAt = &now
	p.DeactivatedBy = &actor.UserID
	p.UpdatedAt = now

	if err := uc.repo.SetStatus(ctx, p); err != nil {
		if restoreErr := uc.stock.Restore(ctx, uc.stockInput(p, actor.UserID, "purchase deactivation rolled back")); restoreErr != nil {
			uc.logger.Error("failed to compensate purchase deactivation",
				zap.String("display_id", displayID), zap.Error(restoreErr))
		}
		return nil, err
	}

	uc.publish(events.PurchaseDeactivated, p, actor.UserID)
	return p, nil
}

func (uc *purchaseUseCase) ReactivatePurchase(ctx context.Context, displayID, reason string) (*model.Purchase, error) {
	actor, err := uc.authorize(ctx, auth.PermPurchaseReactivate)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("reactivation reason is required")
	}

	p, err := uc.load(ctx, displayID)
	if err != nil {
		return nil, err
	}
	if p.Status == model.PurchaseActive {
		return nil, apperr.Wrapf(apperr.ErrAlreadyInState, "purchase", "%s is already active", displayID)
	}

	// A provider or product deactivated while the purchase was inactive
	// blocks reactivation.
	ids := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		ids = append(ids, item.ProductID)
	}
	if err := uc.validatePreconditions(ctx, p.ProviderID, ids); err != nil {
		return nil, err
	}

	if err := uc.stock.Restore(ctx, uc.stockInput(p, actor.UserID, "purchase reactivated: "+reason)); err != nil {
		return nil, err
	}

	now := time.Now()
	p.Status = model.PurchaseActive
	p.ReactivationReason = &reason
	p.ReactivatedAt = &now
	p.ReactivatedBy = &actor.UserID
	p.UpdatedAt = now

	if err := uc.repo.SetStatus(ctx, p); err != nil {
		if reserveErr := uc.stock.Reserve(ctx, uc.stockInput(p, actor.UserID, "purchase reactivation rolled back")); reserveErr != nil {
			uc.logger.Error("failed to compensate purchase reactivation",
				zap.String("display_id", displayID), zap.Error(reserveErr))
		}
		return nil, err
	}

	uc.publish(events.PurchaseReactivated, p, actor.UserID)
	return p, nil
}

func (uc *purchaseUseCase) DeletePurchase(ctx context.Context, displayID string) error {
	actor, err := uc.authorize(ctx, auth.PermPurchaseDelete)
	if err != nil {
		return err
	}

	p, err := uc.load(ctx, displayID)
	if err != nil {
		return err
	}
	if p.Status == model.PurchaseActive {
		return apperr.Wrapf(apperr.ErrInvalidTransition, "purchase",
			"%s is active and cannot be deleted", displayID)
	}

	// Inactive purchases carry no live stock effect; deletion touches no stock.
	if err := uc.repo.Delete(ctx, p.ID); err != nil {
		return err
	}

	uc.publish(events.PurchaseDeleted, p, actor.UserID)
	return nil
}

func (uc *purchaseUseCase) GetPurchase(ctx context.Context, displayID string) (*model.Purchase, error) {
	return uc.load(ctx, displayID)
}

func (uc *purchaseUseCase) ListPurchases(ctx context.Context, filters *dto.PurchaseFilters) ([]model.Purchase, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *purchaseUseCase) authorize(ctx context.Context, code string) (auth.Actor, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok || !uc.checker.Has(actor, code) {
		return auth.Actor{}, apperr.Wrap(apperr.ErrForbidden, "purchase", code)
	}
	return actor, nil
}

func (uc *purchaseUseCase) load(ctx context.Context, displayID string) (*model.Purchase, error) {
	p, err := uc.repo.FindByDisplayID(ctx, displayID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("purchase", displayID)
	}
	return p, nil
}

func validateShape(input *dto.CreatePurchaseInput) error {
	if input.ProviderID == "" {
		return apperr.Validation("provider id is required")
	}
	if len(input.Items) == 0 {
		return apperr.Validation("at least one line item is required")
	}
	for _, item := range input.Items {
		if item.ProductID == "" {
			return apperr.Validation("line item product id is required")
		}
		if item.Quantity <= 0 {
			return apperr.Wrapf(apperr.ErrValidation, "purchase",
				"quantity for product %s must be positive, got %d", item.ProductID, item.Quantity)
		}
		if item.UnitPrice <= 0 {
			return apperr.Wrapf(apperr.ErrValidation, "purchase",
				"unit price for product %s must be positive, got %d", item.ProductID, item.UnitPrice)
		}
	}
	return nil
}

// validatePreconditions checks the provider and every product are present and
// active, aggregating all violations. Expiration is not checked: expired goods
// can still be received or returned, they just cannot be sold.
func (uc *purchaseUseCase) validatePreconditions(ctx context.Context, providerID string, ids []string) error {
	var violations error

	provider, err := uc.master.GetProvider(ctx, providerID)
	if err != nil {
		return err
	}
	switch {
	case provider == nil:
		violations = multierr.Append(violations, apperr.NotFound("provider", providerID))
	case !provider.IsActive:
		violations = multierr.Append(violations, apperr.Precondition("provider", providerID+" is inactive"))
	}

	found, err := uc.stock.ListProductsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	products := make(map[string]*model.Product, len(found))
	for i := range found {
		products[found[i].ID] = &found[i]
	}

	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			violations = multierr.Append(violations, apperr.NotFound("product", id))
			continue
		}
		if !product.IsActive {
			violations = multierr.Append(violations, apperr.Precondition("product", id+" is inactive"))
		}
	}

	return violations
}

func productIDs(items []dto.ItemInput) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func (uc *purchaseUseCase) stockInput(p *model.Purchase, actorID, reason string) *ledgerdto.StockChangeInput {
	lines := make([]ledgerdto.Line, 0, len(p.Items))
	for _, item := range p.Items {
		lines = append(lines, ledgerdto.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return &ledgerdto.StockChangeInput{
		Lines:         lines,
		ReferenceType: referenceType,
		ReferenceID:   p.ID,
		Reason:        reason,
		ActorID:       actorID,
	}
}

func (uc *purchaseUseCase) publish(eventType string, p *model.Purchase, actorID string) {
	items := make([]events.LineItem, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, events.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	go uc.publisher.Publish(context.Background(), events.Envelope{
		EventType: eventType,
		DisplayID: p.DisplayID,
		ActorID:   actorID,
		Total:     p.Total,
		Items:     items,
	})
}

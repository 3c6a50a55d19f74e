package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wicaksana/pos-order-service/internal/apperr"
	"github.com/wicaksana/pos-order-service/internal/ledger"
	"github.com/wicaksana/pos-order-service/internal/ledger/dto"
	"github.com/wicaksana/pos-order-service/internal/model"
	"github.com/wicaksana/pos-order-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	lockTTL        = 5 * time.Second
	lockAttempts   = 3
	lockRetryDelay = 100 * time.Millisecond
)

// Locker serializes mutations per product. Satisfied by cache.RedisClient.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) (bool, error)
}

type ledgerUseCase struct {
	repo   ledger.Repository
	locker Locker
	logger logger.ZapLogger
}

func NewLedgerUseCase(repo ledger.Repository, locker Locker, log logger.ZapLogger) ledger.UseCase {
	return &ledgerUseCase{
		repo:   repo,
		locker: locker,
		logger: log,
	}
}

func (uc *ledgerUseCase) Reserve(ctx context.Context, input *dto.StockChangeInput) error {
	return uc.apply(ctx, input, -1, model.MovementReserve)
}

func (uc *ledgerUseCase) Restore(ctx context.Context, input *dto.StockChangeInput) error {
	return uc.apply(ctx, input, +1, model.MovementRestore)
}

func (uc *ledgerUseCase) apply(ctx context.Context, input *dto.StockChangeInput, sign int64, movementType string) error {
	if len(input.Lines) == 0 {
		return apperr.Validation("stock change requires at least one line")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return apperr.Wrapf(apperr.ErrValidation, "product",
				"%s quantity must be positive, got %d", line.ProductID, line.Quantity)
		}
	}

	release, err := uc.lockProducts(ctx, input.Lines)
	if err != nil {
		return err
	}
	defer release()

	now := time.Now()
	changes := make([]dto.StockChange, 0, len(input.Lines))
	for _, line := range input.Lines {
		var refType, refID, actor *string
		if input.ReferenceType != "" {
			rt := input.ReferenceType
			refType = &rt
		}
		if input.ReferenceID != "" {
			ri := input.ReferenceID
			refID = &ri
		}
		if input.ActorID != "" {
			a := input.ActorID
			actor = &a
		}

		changes = append(changes, dto.StockChange{
			ProductID: line.ProductID,
			Delta:     sign * line.Quantity,
			Movement: model.StockMovement{
				ID:             uuid.New().String(),
				ProductID:      line.ProductID,
				MovementType:   movementType,
				QuantityChange: sign * line.Quantity,
				ReferenceType:  refType,
				ReferenceID:    refID,
				Notes:          input.Reason,
				CreatedBy:      actor,
				CreatedAt:      now,
			},
		})
	}

	return uc.repo.ApplyChanges(ctx, changes)
}

// lockProducts takes the per-product locks in sorted key order so two batches
// touching the same products cannot deadlock each other.
func (uc *ledgerUseCase) lockProducts(ctx context.Context, lines []dto.Line) (func(), error) {
	ids := make([]string, 0, len(lines))
	seen := map[string]bool{}
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	sort.Strings(ids)

	token := uuid.New().String()
	held := make([]string, 0, len(ids))
	release := func() {
		for _, key := range held {
			if _, err := uc.locker.ReleaseLock(context.Background(), key, token); err != nil {
				uc.logger.Error("failed to release stock lock", zap.String("key", key), zap.Error(err))
			}
		}
	}

	for _, id := range ids {
		key := fmt.Sprintf("lock:stock:%s", id)
		acquired := false
		for i := 0; i < lockAttempts; i++ {
			ok, err := uc.locker.AcquireLock(ctx, key, token, lockTTL)
			if err != nil {
				uc.logger.Error("failed to acquire stock lock", zap.String("key", key), zap.Error(err))
			}
			if ok {
				acquired = true
				break
			}
			time.Sleep(lockRetryDelay)
		}
		if !acquired {
			release()
			return nil, apperr.Wrap(apperr.ErrInternal, "stock", "could not lock product "+id)
		}
		held = append(held, key)
	}

	return release, nil
}

func (uc *ledgerUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return uc.repo.GetProduct(ctx, id)
}

func (uc *ledgerUseCase) ListProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	return uc.repo.ListProductsByIDs(ctx, ids)
}

func (uc *ledgerUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/wicaksana/pos-order-service/pkg/logger"
	"go.uber.org/zap"
)

// Display-ID prefixes per transaction kind.
const (
	PrefixSale     = "Sa"
	PrefixPurchase = "Pu"
)

const maxSequential = 99

// Source answers existence questions about already-issued display IDs. The
// sale and purchase repositories implement it over their own tables.
type Source interface {
	// HighestNumber returns the largest numeric suffix among IDs shaped
	// <prefix><2-digit-number>, or 0 when none exist.
	HighestNumber(ctx context.Context, prefix string) (int, error)
	Exists(ctx context.Context, displayID string) (bool, error)
}

// Allocator issues short sequential human-readable IDs. It prefers the pure
// increment of the highest existing number, falls back to a bounded 01..99
// scan for the first free slot, and degrades to a time-derived suffix when the
// scan is exhausted or the source errors. Allocation never fails: an ID always
// comes back, at worst with a small residual collision probability the unique
// index on display_id turns into a retryable conflict.
type Allocator struct {
	source Source
	logger logger.ZapLogger
	now    func() time.Time
}

func NewAllocator(source Source, log logger.ZapLogger) *Allocator {
	return &Allocator{source: source, logger: log, now: time.Now}
}

func (a *Allocator) Allocate(ctx context.Context, prefix string) string {
	highest, err := a.source.HighestNumber(ctx, prefix)
	if err != nil {
		a.logger.Warn("display id lookup failed, using time suffix",
			zap.String("prefix", prefix), zap.Error(err))
		return a.timeSuffix(prefix)
	}

	if highest > 0 && highest < maxSequential {
		candidate := fmt.Sprintf("%s%02d", prefix, highest+1)
		taken, err := a.source.Exists(ctx, candidate)
		if err != nil {
			a.logger.Warn("display id existence check failed, using time suffix",
				zap.String("candidate", candidate), zap.Error(err))
			return a.timeSuffix(prefix)
		}
		if !taken {
			return candidate
		}
	}

	// Gap scan: either nothing matched the sequential shape, the sequence is
	// saturated, or a legacy record occupies the increment slot.
	for n := 1; n <= maxSequential; n++ {
		candidate := fmt.Sprintf("%s%02d", prefix, n)
		taken, err := a.source.Exists(ctx, candidate)
		if err != nil {
			a.logger.Warn("display id scan failed, using time suffix",
				zap.String("candidate", candidate), zap.Error(err))
			return a.timeSuffix(prefix)
		}
		if !taken {
			return candidate
		}
	}

	return a.timeSuffix(prefix)
}

func (a *Allocator) timeSuffix(prefix string) string {
	return fmt.Sprintf("%s%04d", prefix, a.now().UnixMilli()%10000)
}

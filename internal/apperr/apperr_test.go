package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

func TestWrappedErrorsMatchSentinels(t *testing.T) {
	err := Wrapf(ErrInsufficientStock, "product", "p1 has 2, 5 requested")

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "insufficient stock: product: p1 has 2, 5 requested", err.Error())
}

func TestAggregatedViolationsStillMatch(t *testing.T) {
	err := multierr.Combine(
		Precondition("customer", "c1 is inactive"),
		NotFound("product", "p9"),
	)

	assert.True(t, errors.Is(err, ErrPreconditionFailed))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
}

func TestNotFoundFormatting(t *testing.T) {
	assert.Equal(t, "not found: sale: Sa07", NotFound("sale", "Sa07").Error())
}

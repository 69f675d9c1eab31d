package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tixengine/internal/model"
	"tixengine/internal/repo"
)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SUMMER20", NormalizeCode("  summer20 "))
	assert.Equal(t, "VIP-10", NormalizeCode("vip-10"))
	assert.Empty(t, NormalizeCode("   "))
}

func activePromo(discountType string, amount decimal.Decimal) *model.PromoCode {
	return &model.PromoCode{
		ID:             "promo-1",
		Code:           "SUMMER20",
		DiscountType:   discountType,
		DiscountAmount: amount,
		Active:         true,
		ExpiresAt:      time.Now().Add(24 * time.Hour),
	}
}

func TestEvaluatePromo_Percentage(t *testing.T) {
	p := activePromo(model.DiscountPercentage, decimal.NewFromInt(20))
	subtotal := decimal.NewFromInt(250)

	res, err := EvaluatePromo(p, subtotal, time.Now())
	require.NoError(t, err)

	assert.True(t, res.Discount.Equal(decimal.NewFromInt(50)), "got %s", res.Discount)
	assert.True(t, res.Final.Equal(decimal.NewFromInt(200)), "got %s", res.Final)
	assert.Equal(t, "promo-1", res.PromoID)
}

func TestEvaluatePromo_HundredPercent(t *testing.T) {
	p := activePromo(model.DiscountPercentage, decimal.NewFromInt(100))
	subtotal := decimal.NewFromInt(80)

	res, err := EvaluatePromo(p, subtotal, time.Now())
	require.NoError(t, err)

	assert.True(t, res.Discount.Equal(subtotal))
	assert.True(t, res.Final.IsZero())
}

func TestEvaluatePromo_FixedAmount(t *testing.T) {
	p := activePromo(model.DiscountFixed, decimal.NewFromInt(15))
	subtotal := decimal.NewFromInt(100)

	res, err := EvaluatePromo(p, subtotal, time.Now())
	require.NoError(t, err)

	assert.True(t, res.Discount.Equal(decimal.NewFromInt(15)))
	assert.True(t, res.Final.Equal(decimal.NewFromInt(85)))
}

func TestEvaluatePromo_FixedExceedsSubtotal_ClampsToZero(t *testing.T) {
	p := activePromo(model.DiscountFixed, decimal.NewFromInt(500))
	subtotal := decimal.NewFromInt(120)

	res, err := EvaluatePromo(p, subtotal, time.Now())
	require.NoError(t, err)

	// The discount never exceeds the subtotal; the final amount bottoms
	// out at zero instead of going negative.
	assert.True(t, res.Discount.Equal(subtotal))
	assert.True(t, res.Final.IsZero())
}

func TestEvaluatePromo_Inactive(t *testing.T) {
	p := activePromo(model.DiscountFixed, decimal.NewFromInt(10))
	p.Active = false

	_, err := EvaluatePromo(p, decimal.NewFromInt(100), time.Now())
	assert.ErrorIs(t, err, ErrPromoInactive)
}

func TestEvaluatePromo_Expired(t *testing.T) {
	p := activePromo(model.DiscountFixed, decimal.NewFromInt(10))
	p.ExpiresAt = time.Now().Add(-time.Minute)

	_, err := EvaluatePromo(p, decimal.NewFromInt(100), time.Now())
	assert.ErrorIs(t, err, ErrPromoExpired)
}

func TestEvaluatePromo_UsageLimitReached(t *testing.T) {
	p := activePromo(model.DiscountFixed, decimal.NewFromInt(10))
	limit := 5
	p.UsageLimit = &limit
	p.UsageCount = 5

	_, err := EvaluatePromo(p, decimal.NewFromInt(100), time.Now())
	assert.ErrorIs(t, err, repo.ErrPromoUsageLimitReached)
}

func TestEvaluatePromo_UnlimitedUsage(t *testing.T) {
	p := activePromo(model.DiscountFixed, decimal.NewFromInt(10))
	p.UsageLimit = nil
	p.UsageCount = 100000

	_, err := EvaluatePromo(p, decimal.NewFromInt(100), time.Now())
	assert.NoError(t, err)
}

func TestEvaluatePromo_UnknownDiscountType(t *testing.T) {
	p := activePromo("bogus", decimal.NewFromInt(10))

	_, err := EvaluatePromo(p, decimal.NewFromInt(100), time.Now())
	assert.Error(t, err)
}

func TestPercentOf(t *testing.T) {
	got := percentOf(decimal.NewFromInt(200), decimal.NewFromInt(5))
	assert.True(t, got.Equal(decimal.NewFromInt(10)), "got %s", got)
}

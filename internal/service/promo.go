package service

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tixengine/internal/model"
	"tixengine/internal/repo"
)

// PromoResult is the priced outcome of a promo validation.
type PromoResult struct {
	PromoID  string
	Discount decimal.Decimal
	Final    decimal.Decimal
}

// NormalizeCode uppercases and trims a presented promo code; lookups are
// case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// EvaluatePromo validates a promo code against an order subtotal at the
// given request time and prices the discount. The discount is clamped so
// the final amount never goes negative. This is the read-side check
// only; the usage increment happens atomically in the order transaction.
func EvaluatePromo(p *model.PromoCode, subtotal decimal.Decimal, now time.Time) (PromoResult, error) {
	if !p.Active {
		return PromoResult{}, ErrPromoInactive
	}
	if now.After(p.ExpiresAt) {
		return PromoResult{}, ErrPromoExpired
	}
	if p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit {
		return PromoResult{}, repo.ErrPromoUsageLimitReached
	}

	var discount decimal.Decimal
	switch p.DiscountType {
	case model.DiscountPercentage:
		discount = percentOf(subtotal, p.DiscountAmount)
	case model.DiscountFixed:
		discount = p.DiscountAmount
	default:
		return PromoResult{}, ErrPromoInactive
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	return PromoResult{
		PromoID:  p.ID,
		Discount: discount,
		Final:    subtotal.Sub(discount),
	}, nil
}

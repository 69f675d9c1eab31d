// Package service implements the engine's business workflows on top of
// the repository: order issuance, ticket redemption and settlement.
// HTTP concerns stay in internal/handler.
package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"tixengine/internal/model"
)

var (
	ErrEventNotActive      = errors.New("event not active")
	ErrOrderSizeInvalid    = errors.New("order size outside tier limits")
	ErrPromoInactive       = errors.New("promo code inactive")
	ErrPromoExpired        = errors.New("promo code expired")
	ErrPaymentUnavailable  = errors.New("payment gateway unavailable")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoBankOnFile        = errors.New("no bank destination on file")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// Gateway hands an order to the external payment provider and returns
// the URL the buyer completes payment at. Confirmation arrives later via
// the asynchronous callback, never on this path.
type Gateway interface {
	Initiate(ctx context.Context, o *model.Order) (string, error)
}

// Publisher schedules the delayed order-expiry message.
type Publisher interface {
	Publish(message []byte, delaySeconds int) error
}

// Notifier sends buyer-facing mail. All calls are fire-and-forget:
// failures are logged by the caller and never block the transaction that
// triggered them.
type Notifier interface {
	OrderPending(email, eventName string, timeoutMinutes int) error
	TicketsIssued(email, eventName string, count int) error
	OrderRefunded(email, eventName string, amount decimal.Decimal) error
}

// MetricsCache holds precomputed dashboard metrics. It is a performance
// hint: a miss or a stale entry is always safe because settlement
// recomputes from the store.
type MetricsCache interface {
	Get(ctx context.Context, partnerID string) (*model.DashboardMetrics, bool)
	Set(ctx context.Context, m *model.DashboardMetrics)
	Invalidate(ctx context.Context, partnerID string)
}

// FeePolicy is the platform's cut. ProcessingPercent is read-time
// policy: it is applied when a transaction settles and again when the
// dashboard recomputes, so a policy change after a sale shifts the
// displayed fee (kept as observed; see DESIGN.md).
type FeePolicy struct {
	PlatformPercent   decimal.Decimal
	ProcessingPercent decimal.Decimal
}

func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		PlatformPercent:   decimal.NewFromInt(5),
		ProcessingPercent: decimal.NewFromInt(4),
	}
}

var hundred = decimal.NewFromInt(100)

// percentOf returns pct% of amount.
func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

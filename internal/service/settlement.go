package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tixengine/internal/model"
	"tixengine/internal/monitoring"
	"tixengine/internal/repo"
)

// SettlementService reconciles completed sales into fee/payout figures,
// reverses them on refund, and gates payout requests on the available
// balance.
type SettlementService struct {
	repo   repo.Repository
	cache  MetricsCache
	notify Notifier
	fees   FeePolicy
	log    *zerolog.Logger
}

func NewSettlementService(r repo.Repository, cache MetricsCache, notify Notifier, fees FeePolicy, log *zerolog.Logger) *SettlementService {
	return &SettlementService{repo: r, cache: cache, notify: notify, fees: fees, log: log}
}

// Refund reverses the entire order a ticket belongs to: all its tickets,
// the inventory they held, and the settlement transaction. Refunding an
// already refunded order reports ErrAlreadyRefunded without touching
// inventory again.
func (s *SettlementService) Refund(ctx context.Context, ticketID string) (decimal.Decimal, error) {
	ticket, err := s.repo.GetTicketByID(ctx, ticketID)
	if err != nil {
		return decimal.Zero, err
	}

	amount, count, err := s.repo.RefundOrderTx(ctx, ticket.OrderID)
	if err != nil {
		return decimal.Zero, err
	}

	s.log.Info().
		Str("order_id", ticket.OrderID).
		Int("tickets", count).
		Str("amount", amount.String()).
		Msg("order refunded")
	monitoring.TrackRefund()

	event, err := s.repo.GetEventByID(ctx, ticket.EventID)
	if err != nil {
		s.log.Warn().Err(err).Str("event_id", ticket.EventID).Msg("failed to load event after refund")
		return amount, nil
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, event.PartnerID)
	}

	order, err := s.repo.GetOrderByID(ctx, ticket.OrderID)
	if err == nil {
		if email := order.Buyer.Email(); email != "" {
			if err := s.notify.OrderRefunded(email, event.Name, amount); err != nil {
				s.log.Warn().Err(err).Str("order_id", order.ID).Msg("failed to send refund email")
			}
		}
	}

	return amount, nil
}

// DashboardMetrics derives the partner's settlement view from completed
// transactions. The processing fee is recomputed from policy at read
// time and ticket counts come from ticket rows, not cached counters.
func (s *SettlementService) DashboardMetrics(ctx context.Context, partnerID string) (*model.DashboardMetrics, error) {
	if s.cache != nil {
		if m, ok := s.cache.Get(ctx, partnerID); ok {
			return m, nil
		}
	}

	if _, err := s.repo.GetPartner(ctx, partnerID); err != nil {
		return nil, err
	}

	gross, platformFees, orderCount, err := s.repo.TransactionTotals(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	tickets, err := s.repo.CountIssuedTickets(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	balance, err := s.availableBalance(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	processingFees := percentOf(gross, s.fees.ProcessingPercent)
	avg := decimal.Zero
	if orderCount > 0 {
		avg = gross.Div(decimal.NewFromInt(orderCount))
	}

	m := &model.DashboardMetrics{
		PartnerID:         partnerID,
		GrossRevenue:      gross,
		PlatformFees:      platformFees,
		ProcessingFees:    processingFees,
		NetRevenue:        gross.Sub(platformFees).Sub(processingFees),
		TicketsIssued:     tickets,
		OrderCount:        orderCount,
		AverageOrderValue: avg,
		AvailableBalance:  balance,
		ComputedAt:        time.Now(),
	}

	if s.cache != nil {
		s.cache.Set(ctx, m)
	}
	return m, nil
}

// availableBalance is what the partner can still request: the payout sum
// of completed transactions minus payouts already completed or in flight.
func (s *SettlementService) availableBalance(ctx context.Context, partnerID string) (decimal.Decimal, error) {
	base, err := s.repo.CompletedPayoutBase(ctx, partnerID)
	if err != nil {
		return decimal.Zero, err
	}
	held, err := s.repo.HeldPayoutSum(ctx, partnerID)
	if err != nil {
		return decimal.Zero, err
	}
	return base.Sub(held), nil
}

// RequestPayout validates the requested amount against the available
// balance and the partner's bank destination before any row is written.
func (s *SettlementService) RequestPayout(ctx context.Context, partnerID string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}

	partner, err := s.repo.GetPartner(ctx, partnerID)
	if err != nil {
		return "", err
	}
	if partner.BankAccount == "" {
		return "", ErrNoBankOnFile
	}

	balance, err := s.availableBalance(ctx, partnerID)
	if err != nil {
		return "", err
	}
	if amount.GreaterThan(balance) {
		monitoring.TrackPayout("rejected")
		return "", ErrInsufficientBalance
	}

	payout := &model.Payout{
		ID:          uuid.New().String(),
		PartnerID:   partnerID,
		Amount:      amount,
		Status:      model.PayoutPendingRequest,
		BankAccount: partner.BankAccount,
		BankName:    partner.BankName,
	}
	id, err := s.repo.CreatePayout(ctx, payout)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, partnerID)
	}

	s.log.Info().
		Str("payout_id", id).
		Str("partner_id", partnerID).
		Str("amount", amount.String()).
		Msg("payout requested")
	monitoring.TrackPayout("requested")
	return id, nil
}

// ApprovePayout is the admin-side transition: it bundles completed
// transactions into the payout and moves it to approved.
func (s *SettlementService) ApprovePayout(ctx context.Context, payoutID string) error {
	if err := s.repo.ApprovePayoutTx(ctx, payoutID); err != nil {
		return err
	}
	monitoring.TrackPayout("approved")
	return nil
}

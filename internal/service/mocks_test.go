package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"tixengine/internal/model"
)

// mockRepo is a testify mock over repo.Repository.
type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateEvent(ctx context.Context, e *model.Event) (string, error) {
	args := m.Called(ctx, e)
	return args.String(0), args.Error(1)
}

func (m *mockRepo) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	args := m.Called(ctx, id)
	if e, ok := args.Get(0).(*model.Event); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) CreateTier(ctx context.Context, t *model.TicketTier) (string, error) {
	args := m.Called(ctx, t)
	return args.String(0), args.Error(1)
}

func (m *mockRepo) GetTierByID(ctx context.Context, id string) (*model.TicketTier, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*model.TicketTier); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) CreatePromoCode(ctx context.Context, p *model.PromoCode) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *mockRepo) GetPromoByCode(ctx context.Context, eventID, code string) (*model.PromoCode, error) {
	args := m.Called(ctx, eventID, code)
	if p, ok := args.Get(0).(*model.PromoCode); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) ReleaseTier(ctx context.Context, tierID string, quantity int) error {
	args := m.Called(ctx, tierID, quantity)
	return args.Error(0)
}

func (m *mockRepo) CreateOrderTx(ctx context.Context, o *model.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockRepo) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	if o, ok := args.Get(0).(*model.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) ConfirmOrderTx(ctx context.Context, orderID string, tickets []model.Ticket, txn *model.Transaction) (bool, error) {
	args := m.Called(ctx, orderID, tickets, txn)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) FailOrderTx(ctx context.Context, orderID string) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) GetTicketByScanCode(ctx context.Context, code string) (*model.Ticket, error) {
	args := m.Called(ctx, code)
	if t, ok := args.Get(0).(*model.Ticket); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) GetTicketByNumber(ctx context.Context, number string) (*model.Ticket, error) {
	args := m.Called(ctx, number)
	if t, ok := args.Get(0).(*model.Ticket); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) GetTicketByID(ctx context.Context, id string) (*model.Ticket, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*model.Ticket); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) RedeemTicket(ctx context.Context, ticketID, userID string, at time.Time) (bool, error) {
	args := m.Called(ctx, ticketID, userID, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) IsOrganizerMember(ctx context.Context, partnerID, userID string) (bool, error) {
	args := m.Called(ctx, partnerID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) ResolveAttendeeName(ctx context.Context, ticketID string) (string, error) {
	args := m.Called(ctx, ticketID)
	return args.String(0), args.Error(1)
}

func (m *mockRepo) RefundOrderTx(ctx context.Context, orderID string) (decimal.Decimal, int, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(decimal.Decimal), args.Int(1), args.Error(2)
}

func (m *mockRepo) TransactionTotals(ctx context.Context, partnerID string) (decimal.Decimal, decimal.Decimal, int64, error) {
	args := m.Called(ctx, partnerID)
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Get(2).(int64), args.Error(3)
}

func (m *mockRepo) CountIssuedTickets(ctx context.Context, partnerID string) (int64, error) {
	args := m.Called(ctx, partnerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) CompletedPayoutBase(ctx context.Context, partnerID string) (decimal.Decimal, error) {
	args := m.Called(ctx, partnerID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockRepo) HeldPayoutSum(ctx context.Context, partnerID string) (decimal.Decimal, error) {
	args := m.Called(ctx, partnerID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockRepo) GetPartner(ctx context.Context, id string) (*model.Partner, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*model.Partner); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) GetPartnerByOwner(ctx context.Context, userID string) (*model.Partner, error) {
	args := m.Called(ctx, userID)
	if p, ok := args.Get(0).(*model.Partner); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) CreatePayout(ctx context.Context, p *model.Payout) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *mockRepo) ApprovePayoutTx(ctx context.Context, payoutID string) error {
	args := m.Called(ctx, payoutID)
	return args.Error(0)
}

func (m *mockRepo) MigrateUp(migrationsDir string) error {
	args := m.Called(migrationsDir)
	return args.Error(0)
}

func (m *mockRepo) MigrateDown(migrationsDir string) error {
	args := m.Called(migrationsDir)
	return args.Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Initiate(ctx context.Context, o *model.Order) (string, error) {
	args := m.Called(ctx, o)
	return args.String(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(message []byte, delaySeconds int) error {
	args := m.Called(message, delaySeconds)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) OrderPending(email, eventName string, timeoutMinutes int) error {
	args := m.Called(email, eventName, timeoutMinutes)
	return args.Error(0)
}

func (m *mockNotifier) TicketsIssued(email, eventName string, count int) error {
	args := m.Called(email, eventName, count)
	return args.Error(0)
}

func (m *mockNotifier) OrderRefunded(email, eventName string, amount decimal.Decimal) error {
	args := m.Called(email, eventName, amount)
	return args.Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, partnerID string) (*model.DashboardMetrics, bool) {
	args := m.Called(ctx, partnerID)
	if dm, ok := args.Get(0).(*model.DashboardMetrics); ok {
		return dm, args.Bool(1)
	}
	return nil, args.Bool(1)
}

func (m *mockCache) Set(ctx context.Context, dm *model.DashboardMetrics) {
	m.Called(ctx, dm)
}

func (m *mockCache) Invalidate(ctx context.Context, partnerID string) {
	m.Called(ctx, partnerID)
}

package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/wb-go/wbf/dbpg"

	"tixengine/internal/model"
)

var (
	ErrEventNotFound          = errors.New("event not found")
	ErrTierNotFound           = errors.New("ticket tier not found")
	ErrTierInactive           = errors.New("ticket tier inactive")
	ErrOutsideSalesWindow     = errors.New("outside sales window")
	ErrSoldOut                = errors.New("sold out")
	ErrPromoNotFound          = errors.New("promo code not found")
	ErrPromoUsageLimitReached = errors.New("promo usage limit reached")
	ErrOrderNotFound          = errors.New("order not found")
	ErrTicketNotFound         = errors.New("ticket not found")
	ErrAlreadyRefunded        = errors.New("order already refunded")
	ErrOrderNotRefundable     = errors.New("order not refundable")
	ErrPartnerNotFound        = errors.New("partner not found")
	ErrPayoutNotFound         = errors.New("payout not found")
	ErrPayoutNotPending       = errors.New("payout not in pending_request")
	ErrPayoutBundleMismatch   = errors.New("payout amount does not match bundled transactions")
)

type Repository interface {
	// organizer surface
	CreateEvent(ctx context.Context, e *model.Event) (string, error)
	GetEventByID(ctx context.Context, id string) (*model.Event, error)
	CreateTier(ctx context.Context, t *model.TicketTier) (string, error)
	GetTierByID(ctx context.Context, id string) (*model.TicketTier, error)
	CreatePromoCode(ctx context.Context, p *model.PromoCode) (string, error)
	GetPromoByCode(ctx context.Context, eventID, code string) (*model.PromoCode, error)

	// inventory ledger
	ReleaseTier(ctx context.Context, tierID string, quantity int) error

	// order / issuance
	CreateOrderTx(ctx context.Context, o *model.Order) error
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)
	ConfirmOrderTx(ctx context.Context, orderID string, tickets []model.Ticket, txn *model.Transaction) (bool, error)
	FailOrderTx(ctx context.Context, orderID string) (bool, error)

	// redemption
	GetTicketByScanCode(ctx context.Context, code string) (*model.Ticket, error)
	GetTicketByNumber(ctx context.Context, number string) (*model.Ticket, error)
	GetTicketByID(ctx context.Context, id string) (*model.Ticket, error)
	RedeemTicket(ctx context.Context, ticketID, userID string, at time.Time) (bool, error)
	IsOrganizerMember(ctx context.Context, partnerID, userID string) (bool, error)
	ResolveAttendeeName(ctx context.Context, ticketID string) (string, error)

	// settlement
	RefundOrderTx(ctx context.Context, orderID string) (decimal.Decimal, int, error)
	TransactionTotals(ctx context.Context, partnerID string) (gross, platformFees decimal.Decimal, orderCount int64, err error)
	CountIssuedTickets(ctx context.Context, partnerID string) (int64, error)
	CompletedPayoutBase(ctx context.Context, partnerID string) (decimal.Decimal, error)
	HeldPayoutSum(ctx context.Context, partnerID string) (decimal.Decimal, error)
	GetPartner(ctx context.Context, id string) (*model.Partner, error)
	GetPartnerByOwner(ctx context.Context, userID string) (*model.Partner, error)
	CreatePayout(ctx context.Context, p *model.Payout) (string, error)
	ApprovePayoutTx(ctx context.Context, payoutID string) error

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}

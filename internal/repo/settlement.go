package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"tixengine/internal/model"
)

// RefundOrderTx refunds the whole order: every ticket flips to refunded,
// each tier gets its capacity back, and the transaction and order are
// marked refunded — one transaction, so a partial failure rolls all of it
// back. The row lock on the order makes a second refund observe the
// refunded status and bail with ErrAlreadyRefunded instead of releasing
// inventory twice.
func (r *repository) RefundOrderTx(ctx context.Context, orderID string) (decimal.Decimal, int, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var status string
	var total decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		SELECT status, total FROM orders WHERE id = $1 FOR UPDATE
	`, orderID).Scan(&status, &total)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, 0, ErrOrderNotFound
		}
		return decimal.Zero, 0, fmt.Errorf("lock order row: %w", err)
	}

	switch status {
	case model.OrderRefunded:
		_ = tx.Rollback()
		return decimal.Zero, 0, ErrAlreadyRefunded
	case model.OrderPaid:
	default:
		_ = tx.Rollback()
		return decimal.Zero, 0, ErrOrderNotRefundable
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT tier_id, COUNT(*) FROM tickets WHERE order_id = $1 GROUP BY tier_id
	`, orderID)
	if err != nil {
		_ = tx.Rollback()
		return decimal.Zero, 0, fmt.Errorf("count tickets per tier: %w", err)
	}

	type tierCount struct {
		tierID string
		count  int
	}
	var perTier []tierCount
	ticketCount := 0
	for rows.Next() {
		var tc tierCount
		if err := rows.Scan(&tc.tierID, &tc.count); err != nil {
			rows.Close()
			_ = tx.Rollback()
			return decimal.Zero, 0, fmt.Errorf("scan tier count: %w", err)
		}
		perTier = append(perTier, tc)
		ticketCount += tc.count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		_ = tx.Rollback()
		return decimal.Zero, 0, fmt.Errorf("iterate tier counts: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE tickets SET status = 'refunded' WHERE order_id = $1
	`, orderID); err != nil {
		_ = tx.Rollback()
		return decimal.Zero, 0, fmt.Errorf("mark tickets refunded: %w", err)
	}

	for _, tc := range perTier {
		if err := r.releaseTier(ctx, tx, tc.tierID, tc.count); err != nil {
			_ = tx.Rollback()
			return decimal.Zero, 0, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE transactions SET status = 'refunded' WHERE order_id = $1
	`, orderID); err != nil {
		_ = tx.Rollback()
		return decimal.Zero, 0, fmt.Errorf("mark transaction refunded: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = 'refunded', updated_at = NOW() WHERE id = $1
	`, orderID); err != nil {
		_ = tx.Rollback()
		return decimal.Zero, 0, fmt.Errorf("mark order refunded: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return total, ticketCount, nil
}

func (r *repository) TransactionTotals(ctx context.Context, partnerID string) (decimal.Decimal, decimal.Decimal, int64, error) {
	var gross, platformFees decimal.Decimal
	var orderCount int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(gross_amount), 0),
		       COALESCE(SUM(platform_fee), 0),
		       COUNT(DISTINCT order_id)
		FROM transactions
		WHERE partner_id = $1 AND status = 'completed'
	`, partnerID).Scan(&gross, &platformFees, &orderCount)
	if err != nil {
		return decimal.Zero, decimal.Zero, 0, fmt.Errorf("transaction totals: %w", err)
	}
	return gross, platformFees, orderCount, nil
}

// CountIssuedTickets counts from ticket rows directly; the cached
// quantity_sold counters can drift and are treated as hints only.
func (r *repository) CountIssuedTickets(ctx context.Context, partnerID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM tickets t
		JOIN events e ON e.id = t.event_id
		WHERE e.partner_id = $1 AND t.status != 'available'
	`, partnerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count issued tickets: %w", err)
	}
	return count, nil
}

func (r *repository) CompletedPayoutBase(ctx context.Context, partnerID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(organizer_payout), 0)
		FROM transactions
		WHERE partner_id = $1 AND status = 'completed'
	`, partnerID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("completed payout base: %w", err)
	}
	return sum, nil
}

// HeldPayoutSum is the money already disbursed or spoken for:
// completed payouts plus requests still pending or approved.
func (r *repository) HeldPayoutSum(ctx context.Context, partnerID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM payouts
		WHERE partner_id = $1 AND status IN ('completed', 'pending_request', 'approved')
	`, partnerID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("held payout sum: %w", err)
	}
	return sum, nil
}

func (r *repository) GetPartner(ctx context.Context, id string) (*model.Partner, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, name, bank_account, bank_name, created_at
		FROM partners WHERE id = $1
	`, id)
	return scanPartner(row)
}

func (r *repository) GetPartnerByOwner(ctx context.Context, userID string) (*model.Partner, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, name, bank_account, bank_name, created_at
		FROM partners WHERE owner_user_id = $1
	`, userID)
	return scanPartner(row)
}

func scanPartner(row *sql.Row) (*model.Partner, error) {
	var p model.Partner
	var bankAccount, bankName sql.NullString
	if err := row.Scan(&p.ID, &p.OwnerUserID, &p.Name, &bankAccount, &bankName, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}
	p.BankAccount = bankAccount.String
	p.BankName = bankName.String
	return &p, nil
}

func (r *repository) CreatePayout(ctx context.Context, p *model.Payout) (string, error) {
	query := `
		INSERT INTO payouts
			(id, partner_id, amount, status, bank_account, bank_name, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id
	`
	row := r.db.QueryRowContext(ctx, query,
		p.ID, p.PartnerID, p.Amount, p.Status, p.BankAccount, p.BankName,
	)

	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert payout: %w", err)
	}
	return id, nil
}

// ApprovePayoutTx bundles unassigned completed transactions into the
// payout, oldest first, and approves it. The bundle must sum to exactly
// the payout amount; anything else rolls back with
// ErrPayoutBundleMismatch so the payout-amount invariant holds by
// construction.
func (r *repository) ApprovePayoutTx(ctx context.Context, payoutID string) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var partnerID, status string
	var amount decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		SELECT partner_id, status, amount FROM payouts WHERE id = $1 FOR UPDATE
	`, payoutID).Scan(&partnerID, &status, &amount)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPayoutNotFound
		}
		return fmt.Errorf("lock payout row: %w", err)
	}
	if status != model.PayoutPendingRequest {
		_ = tx.Rollback()
		return ErrPayoutNotPending
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, organizer_payout
		FROM transactions
		WHERE partner_id = $1 AND status = 'completed' AND payout_id IS NULL
		ORDER BY created_at ASC
		FOR UPDATE
	`, partnerID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("select unbundled transactions: %w", err)
	}

	var bundle []string
	sum := decimal.Zero
	for rows.Next() {
		var id string
		var payout decimal.Decimal
		if err := rows.Scan(&id, &payout); err != nil {
			rows.Close()
			_ = tx.Rollback()
			return fmt.Errorf("scan transaction: %w", err)
		}
		if sum.Add(payout).GreaterThan(amount) {
			continue
		}
		bundle = append(bundle, id)
		sum = sum.Add(payout)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("iterate transactions: %w", err)
	}

	if !sum.Equal(amount) {
		_ = tx.Rollback()
		return ErrPayoutBundleMismatch
	}

	for _, id := range bundle {
		if _, err := tx.ExecContext(ctx, `
			UPDATE transactions SET payout_id = $1 WHERE id = $2
		`, payoutID, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("assign transaction to payout: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE payouts SET status = 'approved', processed_at = NOW() WHERE id = $1
	`, payoutID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("approve payout: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

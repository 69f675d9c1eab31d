package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tixengine/internal/model"
)

// CreateOrderTx reserves tier capacity, consumes the promo use (if any)
// and persists the pending order in one transaction. Any failure leaves
// no partial state behind.
func (r *repository) CreateOrderTx(ctx context.Context, o *model.Order) error {
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

	if err := reserveTier(ctx, tx, o.TierID, o.Quantity); err != nil {
		_ = tx.Rollback()
		return err
	}

	if o.PromoID != "" {
		if err := consumePromo(ctx, tx, o.PromoID); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
			(id, event_id, tier_id, quantity,
			 buyer_kind, buyer_user_id, guest_name, guest_email, guest_phone,
			 subtotal, discount, total, promo_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''),
		        $10, $11, $12, NULLIF($13, ''), 'pending', NOW())
	`,
		o.ID, o.EventID, o.TierID, o.Quantity,
		o.Buyer.Kind, o.Buyer.UserID, o.Buyer.GuestName, o.Buyer.GuestEmail, o.Buyer.GuestPhone,
		o.Subtotal, o.Discount, o.Total, o.PromoID,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *repository) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	query := `
		SELECT id, event_id, tier_id, quantity,
		       buyer_kind, buyer_user_id, guest_name, guest_email, guest_phone,
		       subtotal, discount, total, promo_id, status, created_at, updated_at
		FROM orders WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var o model.Order
	var userID, guestName, guestEmail, guestPhone, promoID sql.NullString
	if err := row.Scan(
		&o.ID, &o.EventID, &o.TierID, &o.Quantity,
		&o.Buyer.Kind, &userID, &guestName, &guestEmail, &guestPhone,
		&o.Subtotal, &o.Discount, &o.Total, &promoID, &o.Status,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.Buyer.UserID = userID.String
	o.Buyer.GuestName = guestName.String
	o.Buyer.GuestEmail = guestEmail.String
	o.Buyer.GuestPhone = guestPhone.String
	o.PromoID = promoID.String
	return &o, nil
}

// ConfirmOrderTx flips a pending order to paid, mints its tickets and
// records the settlement transaction, all atomically. Returns false when
// the order is no longer pending, which makes duplicated gateway
// callbacks a no-op.
func (r *repository) ConfirmOrderTx(ctx context.Context, orderID string, tickets []model.Ticket, txn *model.Transaction) (bool, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = 'paid', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, orderID)
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("confirm order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("confirm order rows: %w", err)
	}
	if n == 0 {
		_ = tx.Rollback()
		return false, nil
	}

	for i := range tickets {
		t := &tickets[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tickets
				(id, event_id, tier_id, order_id, ticket_number, scan_code,
				 status, attendee_name, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NOW())
		`, t.ID, t.EventID, t.TierID, t.OrderID, t.TicketNumber, t.ScanCode,
			t.Status, t.AttendeeName)
		if err != nil {
			_ = tx.Rollback()
			return false, fmt.Errorf("mint ticket: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions
			(id, order_id, event_id, partner_id, gross_amount,
			 platform_fee, processing_fee, organizer_payout, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`, txn.ID, txn.OrderID, txn.EventID, txn.PartnerID, txn.GrossAmount,
		txn.PlatformFee, txn.ProcessingFee, txn.OrganizerPayout, txn.Status)
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// FailOrderTx marks a still-pending order failed and releases its
// reservation in the same transaction. Returns false when the order
// already left pending (paid, failed earlier, or refunded).
func (r *repository) FailOrderTx(ctx context.Context, orderID string) (bool, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var tierID string
	var quantity int
	err = tx.QueryRowContext(ctx, `
		UPDATE orders SET status = 'failed', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING tier_id, quantity
	`, orderID).Scan(&tierID, &quantity)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("fail order: %w", err)
	}

	if err := r.releaseTier(ctx, tx, tierID, quantity); err != nil {
		_ = tx.Rollback()
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

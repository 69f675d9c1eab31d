package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tixengine/internal/model"
)

// reserveTier is the inventory ledger's check-and-increment. The capacity
// check and the counter bump are one conditional UPDATE so concurrent
// reservations on the same tier serialize at the row, never in
// application code.
func reserveTier(ctx context.Context, tx *sql.Tx, tierID string, quantity int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE ticket_tiers
		SET quantity_sold = quantity_sold + $2, updated_at = NOW()
		WHERE id = $1
		  AND active
		  AND NOW() >= sales_start AND NOW() < sales_end
		  AND quantity_sold + $2 <= quantity_total
	`, tierID, quantity)
	if err != nil {
		return fmt.Errorf("reserve tier: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve tier rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Zero rows: re-read the tier to tell the caller why.
	var active bool
	var salesStart, salesEnd time.Time
	var sold, total int
	err = tx.QueryRowContext(ctx, `
		SELECT active, sales_start, sales_end, quantity_sold, quantity_total
		FROM ticket_tiers WHERE id = $1
	`, tierID).Scan(&active, &salesStart, &salesEnd, &sold, &total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTierNotFound
		}
		return fmt.Errorf("classify reserve failure: %w", err)
	}

	now := time.Now()
	switch {
	case !active:
		return ErrTierInactive
	case now.Before(salesStart) || !now.Before(salesEnd):
		return ErrOutsideSalesWindow
	default:
		return ErrSoldOut
	}
}

// releaseTier returns capacity to a tier. The decrement is conditional on
// enough sold quantity being present; a shortfall means an earlier bug
// already lost the count, so it is clamped to zero and logged rather than
// driven negative.
func (r *repository) releaseTier(ctx context.Context, tx *sql.Tx, tierID string, quantity int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE ticket_tiers
		SET quantity_sold = quantity_sold - $2, updated_at = NOW()
		WHERE id = $1 AND quantity_sold >= $2
	`, tierID, quantity)
	if err != nil {
		return fmt.Errorf("release tier: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release tier rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	r.log.Warn().
		Str("tier_id", tierID).
		Int("quantity", quantity).
		Msg("release would drive quantity_sold negative, clamping to zero")

	if _, err := tx.ExecContext(ctx, `
		UPDATE ticket_tiers SET quantity_sold = 0, updated_at = NOW() WHERE id = $1
	`, tierID); err != nil {
		return fmt.Errorf("clamp tier counter: %w", err)
	}
	return nil
}

func (r *repository) ReleaseTier(ctx context.Context, tierID string, quantity int) error {
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

	if err := r.releaseTier(ctx, tx, tierID, quantity); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *repository) CreateTier(ctx context.Context, t *model.TicketTier) (string, error) {
	query := `
		INSERT INTO ticket_tiers
			(id, event_id, name, price, quantity_total, quantity_sold,
			 min_per_order, max_per_order, active, sales_start, sales_end, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, $9, $10, NOW())
		RETURNING id
	`

	row := r.db.QueryRowContext(ctx, query,
		t.ID, t.EventID, t.Name, t.Price, t.QuantityTotal,
		t.MinPerOrder, t.MaxPerOrder, t.Active, t.SalesStart, t.SalesEnd,
	)

	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert tier: %w", err)
	}
	return id, nil
}

func (r *repository) GetTierByID(ctx context.Context, id string) (*model.TicketTier, error) {
	query := `
		SELECT id, event_id, name, price, quantity_total, quantity_sold,
		       min_per_order, max_per_order, active, sales_start, sales_end,
		       created_at, updated_at
		FROM ticket_tiers WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var t model.TicketTier
	if err := row.Scan(
		&t.ID, &t.EventID, &t.Name, &t.Price, &t.QuantityTotal, &t.QuantitySold,
		&t.MinPerOrder, &t.MaxPerOrder, &t.Active, &t.SalesStart, &t.SalesEnd,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTierNotFound
		}
		return nil, fmt.Errorf("get tier: %w", err)
	}
	return &t, nil
}

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) (string, error) {
	query := `
		INSERT INTO events
			(id, partner_id, name, description, status, sales_start, sales_end,
			 capacity, payment_timeout_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id
	`

	row := r.db.QueryRowContext(ctx, query,
		e.ID, e.PartnerID, e.Name, e.Description, e.Status,
		e.SalesStart, e.SalesEnd, e.Capacity, e.PaymentTimeoutMinutes,
	)

	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

func (r *repository) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	query := `
		SELECT id, partner_id, name, description, status, sales_start, sales_end,
		       capacity, payment_timeout_minutes, created_at, updated_at
		FROM events WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var e model.Event
	if err := row.Scan(
		&e.ID, &e.PartnerID, &e.Name, &e.Description, &e.Status,
		&e.SalesStart, &e.SalesEnd, &e.Capacity, &e.PaymentTimeoutMinutes,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

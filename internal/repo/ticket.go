package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tixengine/internal/model"
)

const ticketColumns = `
	id, event_id, tier_id, order_id, ticket_number, scan_code,
	status, attendee_name, checked_in_at, checked_in_by, created_at
`

func (r *repository) scanTicket(row *sql.Row) (*model.Ticket, error) {
	var t model.Ticket
	var attendee, checkedInBy sql.NullString
	var checkedInAt sql.NullTime
	if err := row.Scan(
		&t.ID, &t.EventID, &t.TierID, &t.OrderID, &t.TicketNumber, &t.ScanCode,
		&t.Status, &attendee, &checkedInAt, &checkedInBy, &t.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	t.AttendeeName = attendee.String
	t.CheckedInBy = checkedInBy.String
	if checkedInAt.Valid {
		at := checkedInAt.Time
		t.CheckedInAt = &at
	}
	return &t, nil
}

func (r *repository) GetTicketByScanCode(ctx context.Context, code string) (*model.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE scan_code = $1`, code)
	return r.scanTicket(row)
}

func (r *repository) GetTicketByNumber(ctx context.Context, number string) (*model.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE ticket_number = $1`, number)
	return r.scanTicket(row)
}

func (r *repository) GetTicketByID(ctx context.Context, id string) (*model.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	return r.scanTicket(row)
}

// RedeemTicket performs the valid→used transition as a single conditional
// write keyed on the prior state. Of two concurrent scans exactly one
// sees a row update; the loser gets false and re-reads to report the
// winner's check-in.
func (r *repository) RedeemTicket(ctx context.Context, ticketID, userID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tickets
		SET status = 'used', checked_in_at = $2, checked_in_by = $3
		WHERE id = $1 AND status = 'valid'
	`, ticketID, at, userID)
	if err != nil {
		return false, fmt.Errorf("redeem ticket: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("redeem ticket rows: %w", err)
	}
	return n == 1, nil
}

// IsOrganizerMember reports whether the user owns the partner account or
// belongs to its team.
func (r *repository) IsOrganizerMember(ctx context.Context, partnerID, userID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM partners WHERE id = $1 AND owner_user_id = $2)
		    OR EXISTS (SELECT 1 FROM organizer_members WHERE partner_id = $1 AND user_id = $2)
	`, partnerID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check organizer membership: %w", err)
	}
	return ok, nil
}

// ResolveAttendeeName picks the display name for a scan result: the
// registered buyer's account name, then the guest name on the ticket,
// then the guest name on the order, then "Guest".
func (r *repository) ResolveAttendeeName(ctx context.Context, ticketID string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(
			NULLIF(u.display_name, ''),
			NULLIF(t.attendee_name, ''),
			NULLIF(o.guest_name, ''),
			'Guest')
		FROM tickets t
		JOIN orders o ON o.id = t.order_id
		LEFT JOIN users u ON u.id = o.buyer_user_id
		WHERE t.id = $1
	`, ticketID).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrTicketNotFound
		}
		return "", fmt.Errorf("resolve attendee name: %w", err)
	}
	return name, nil
}

package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tixengine/internal/model"
)

func (r *repository) CreatePromoCode(ctx context.Context, p *model.PromoCode) (string, error) {
	query := `
		INSERT INTO promo_codes
			(id, event_id, code, discount_type, discount_amount,
			 usage_limit, usage_count, expires_at, active, created_at)
		VALUES ($1, $2, UPPER($3), $4, $5, $6, 0, $7, $8, NOW())
		RETURNING id
	`

	row := r.db.QueryRowContext(ctx, query,
		p.ID, p.EventID, p.Code, p.DiscountType, p.DiscountAmount,
		p.UsageLimit, p.ExpiresAt, p.Active,
	)

	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert promo code: %w", err)
	}
	return id, nil
}

// GetPromoByCode looks a code up case-insensitively; callers pass the
// already trimmed and uppercased form.
func (r *repository) GetPromoByCode(ctx context.Context, eventID, code string) (*model.PromoCode, error) {
	query := `
		SELECT id, event_id, code, discount_type, discount_amount,
		       usage_limit, usage_count, expires_at, active, created_at
		FROM promo_codes
		WHERE event_id = $1 AND UPPER(code) = UPPER($2)
	`
	row := r.db.QueryRowContext(ctx, query, eventID, code)

	var p model.PromoCode
	var limit sql.NullInt64
	if err := row.Scan(
		&p.ID, &p.EventID, &p.Code, &p.DiscountType, &p.DiscountAmount,
		&limit, &p.UsageCount, &p.ExpiresAt, &p.Active, &p.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPromoNotFound
		}
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	if limit.Valid {
		l := int(limit.Int64)
		p.UsageLimit = &l
	}
	return &p, nil
}

// consumePromo increments usage_count, conditional on the limit not being
// exhausted. Concurrent consumers of the last use serialize on the row:
// exactly one update succeeds, the rest observe the limit.
func consumePromo(ctx context.Context, tx *sql.Tx, promoID string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE promo_codes
		SET usage_count = usage_count + 1
		WHERE id = $1
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
	`, promoID)
	if err != nil {
		return fmt.Errorf("consume promo: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume promo rows: %w", err)
	}
	if n == 0 {
		return ErrPromoUsageLimitReached
	}
	return nil
}

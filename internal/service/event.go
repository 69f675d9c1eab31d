package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tixengine/internal/model"
	"tixengine/internal/repo"
)

// EventService is the thin organizer write surface the engine needs:
// events, tiers and promo codes. Everything else in the back office is
// an external collaborator.
type EventService struct {
	repo repo.Repository
	log  *zerolog.Logger
}

func NewEventService(r repo.Repository, log *zerolog.Logger) *EventService {
	return &EventService{repo: r, log: log}
}

func (s *EventService) CreateEvent(ctx context.Context, e *model.Event) (string, error) {
	e.ID = uuid.New().String()
	if e.Status == "" {
		e.Status = model.EventDraft
	}
	id, err := s.repo.CreateEvent(ctx, e)
	if err != nil {
		return "", err
	}
	s.log.Info().Str("event_id", id).Str("partner_id", e.PartnerID).Msg("event created")
	return id, nil
}

func (s *EventService) CreateTier(ctx context.Context, t *model.TicketTier) (string, error) {
	if _, err := s.repo.GetEventByID(ctx, t.EventID); err != nil {
		return "", err
	}
	t.ID = uuid.New().String()
	if t.MinPerOrder <= 0 {
		t.MinPerOrder = 1
	}
	if t.MaxPerOrder <= 0 {
		t.MaxPerOrder = t.QuantityTotal
	}
	id, err := s.repo.CreateTier(ctx, t)
	if err != nil {
		return "", err
	}
	s.log.Info().Str("tier_id", id).Str("event_id", t.EventID).Msg("tier created")
	return id, nil
}

func (s *EventService) CreatePromoCode(ctx context.Context, p *model.PromoCode) (string, error) {
	if _, err := s.repo.GetEventByID(ctx, p.EventID); err != nil {
		return "", err
	}
	if p.DiscountType == model.DiscountPercentage {
		if !p.DiscountAmount.IsPositive() || p.DiscountAmount.GreaterThan(decimal.NewFromInt(100)) {
			return "", ErrInvalidAmount
		}
	}
	p.ID = uuid.New().String()
	p.Code = NormalizeCode(p.Code)
	if p.ExpiresAt.IsZero() {
		p.ExpiresAt = time.Now().AddDate(1, 0, 0)
	}
	id, err := s.repo.CreatePromoCode(ctx, p)
	if err != nil {
		return "", err
	}
	s.log.Info().Str("promo_id", id).Str("event_id", p.EventID).Msg("promo code created")
	return id, nil
}

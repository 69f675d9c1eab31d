package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tixengine/internal/model"
	"tixengine/internal/repo"
)

func TestCreateTier_Defaults(t *testing.T) {
	r := new(mockRepo)
	svc := NewEventService(r, testLogger())

	r.On("GetEventByID", mock.Anything, "event-1").Return(testEvent(), nil)
	r.On("CreateTier", mock.Anything, mock.MatchedBy(func(tier *model.TicketTier) bool {
		return tier.ID != "" && tier.MinPerOrder == 1 && tier.MaxPerOrder == 100
	})).Return("tier-1", nil)

	id, err := svc.CreateTier(context.Background(), &model.TicketTier{
		EventID:       "event-1",
		Name:          "General",
		Price:         decimal.NewFromInt(50),
		QuantityTotal: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "tier-1", id)
	r.AssertExpectations(t)
}

func TestCreateTier_UnknownEvent(t *testing.T) {
	r := new(mockRepo)
	svc := NewEventService(r, testLogger())

	r.On("GetEventByID", mock.Anything, "missing").Return(nil, repo.ErrEventNotFound)

	_, err := svc.CreateTier(context.Background(), &model.TicketTier{EventID: "missing"})
	assert.ErrorIs(t, err, repo.ErrEventNotFound)
}

func TestCreatePromoCode_NormalizesCode(t *testing.T) {
	r := new(mockRepo)
	svc := NewEventService(r, testLogger())

	r.On("GetEventByID", mock.Anything, "event-1").Return(testEvent(), nil)
	r.On("CreatePromoCode", mock.Anything, mock.MatchedBy(func(p *model.PromoCode) bool {
		return p.Code == "SUMMER20" && !p.ExpiresAt.IsZero()
	})).Return("promo-1", nil)

	_, err := svc.CreatePromoCode(context.Background(), &model.PromoCode{
		EventID:        "event-1",
		Code:           "  summer20 ",
		DiscountType:   model.DiscountFixed,
		DiscountAmount: decimal.NewFromInt(10),
		Active:         true,
	})
	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestCreatePromoCode_PercentageBounds(t *testing.T) {
	r := new(mockRepo)
	svc := NewEventService(r, testLogger())

	r.On("GetEventByID", mock.Anything, "event-1").Return(testEvent(), nil)

	for _, pct := range []int64{0, -5, 101} {
		_, err := svc.CreatePromoCode(context.Background(), &model.PromoCode{
			EventID:        "event-1",
			Code:           "BAD",
			DiscountType:   model.DiscountPercentage,
			DiscountAmount: decimal.NewFromInt(pct),
		})
		assert.ErrorIs(t, err, ErrInvalidAmount, "percentage %d", pct)
	}
	r.AssertNotCalled(t, "CreatePromoCode", mock.Anything, mock.Anything)
}

func TestCreateEvent_DefaultsToDraft(t *testing.T) {
	r := new(mockRepo)
	svc := NewEventService(r, testLogger())

	r.On("CreateEvent", mock.Anything, mock.MatchedBy(func(e *model.Event) bool {
		return e.ID != "" && e.Status == model.EventDraft
	})).Return("event-1", nil)

	_, err := svc.CreateEvent(context.Background(), &model.Event{
		PartnerID:  "partner-1",
		Name:       "Summer Fest",
		SalesStart: time.Now(),
		SalesEnd:   time.Now().Add(24 * time.Hour),
		Capacity:   500,
	})
	require.NoError(t, err)
	r.AssertExpectations(t)
}

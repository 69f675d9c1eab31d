package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredBuyer(t *testing.T) {
	b, err := RegisteredBuyer("user-1")
	require.NoError(t, err)
	assert.Equal(t, BuyerRegistered, b.Kind)
	assert.Equal(t, "user-1", b.UserID)
	assert.Empty(t, b.GuestName)
}

func TestRegisteredBuyer_EmptyUserID(t *testing.T) {
	_, err := RegisteredBuyer("")
	assert.ErrorIs(t, err, ErrBuyerInfoIncomplete)

	_, err = RegisteredBuyer("   ")
	assert.ErrorIs(t, err, ErrBuyerInfoIncomplete)
}

func TestGuestBuyer(t *testing.T) {
	b, err := GuestBuyer("  Jane Doe  ", "jane@example.com", "+1234567")
	require.NoError(t, err)
	assert.Equal(t, BuyerGuest, b.Kind)
	assert.Equal(t, "Jane Doe", b.GuestName)
	assert.Equal(t, "jane@example.com", b.GuestEmail)
	assert.Equal(t, "+1234567", b.GuestPhone)
}

func TestGuestBuyer_RequiresAllThreeFields(t *testing.T) {
	cases := []struct {
		name                string
		guest, email, phone string
	}{
		{"missing name", "", "jane@example.com", "+1234567"},
		{"missing email", "Jane", "", "+1234567"},
		{"missing phone", "Jane", "jane@example.com", ""},
		{"whitespace phone", "Jane", "jane@example.com", "   "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GuestBuyer(tc.guest, tc.email, tc.phone)
			assert.ErrorIs(t, err, ErrBuyerInfoIncomplete)
		})
	}
}

func TestBuyer_Email(t *testing.T) {
	guest, err := GuestBuyer("Jane", "jane@example.com", "+1234567")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", guest.Email())

	registered, err := RegisteredBuyer("user-1")
	require.NoError(t, err)
	assert.Empty(t, registered.Email())
}

func TestTicketTier_Remaining(t *testing.T) {
	tier := TicketTier{QuantityTotal: 100, QuantitySold: 37}
	assert.Equal(t, 63, tier.Remaining())
}

func TestTicketTier_OnSaleAt(t *testing.T) {
	now := time.Now()
	tier := TicketTier{
		Active:     true,
		SalesStart: now.Add(-time.Hour),
		SalesEnd:   now.Add(time.Hour),
	}

	assert.True(t, tier.OnSaleAt(now))
	assert.True(t, tier.OnSaleAt(tier.SalesStart), "window opens inclusively")
	assert.False(t, tier.OnSaleAt(tier.SalesEnd), "window closes exclusively")
	assert.False(t, tier.OnSaleAt(now.Add(-2*time.Hour)))
	assert.False(t, tier.OnSaleAt(now.Add(2*time.Hour)))

	tier.Active = false
	assert.False(t, tier.OnSaleAt(now))
}

func TestTicket_Voided(t *testing.T) {
	assert.True(t, (&Ticket{Status: TicketCancelled}).Voided())
	assert.True(t, (&Ticket{Status: TicketRefunded}).Voided())
	assert.False(t, (&Ticket{Status: TicketValid}).Voided())
	assert.False(t, (&Ticket{Status: TicketUsed}).Voided())
	assert.False(t, (&Ticket{Status: TicketAvailable}).Voided())
}

package model

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrBuyerInfoIncomplete = errors.New("buyer info incomplete")

const (
	EventDraft     = "draft"
	EventActive    = "active"
	EventSoldOut   = "sold_out"
	EventCancelled = "cancelled"
	EventCompleted = "completed"
)

type Event struct {
	ID                    string    `db:"id" json:"id"`
	PartnerID             string    `db:"partner_id" json:"partner_id"`
	Name                  string    `db:"name" json:"name"`
	Description           string    `db:"description,omitempty" json:"description,omitempty"`
	Status                string    `db:"status" json:"status"`
	SalesStart            time.Time `db:"sales_start" json:"sales_start"`
	SalesEnd              time.Time `db:"sales_end" json:"sales_end"`
	Capacity              int       `db:"capacity" json:"capacity"`
	PaymentTimeoutMinutes int       `db:"payment_timeout_minutes" json:"payment_timeout_minutes"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

type TicketTier struct {
	ID            string          `db:"id" json:"id"`
	EventID       string          `db:"event_id" json:"event_id"`
	Name          string          `db:"name" json:"name"`
	Price         decimal.Decimal `db:"price" json:"price"`
	QuantityTotal int             `db:"quantity_total" json:"quantity_total"`
	QuantitySold  int             `db:"quantity_sold" json:"quantity_sold"`
	MinPerOrder   int             `db:"min_per_order" json:"min_per_order"`
	MaxPerOrder   int             `db:"max_per_order" json:"max_per_order"`
	Active        bool            `db:"active" json:"active"`
	SalesStart    time.Time       `db:"sales_start" json:"sales_start"`
	SalesEnd      time.Time       `db:"sales_end" json:"sales_end"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Remaining returns the number of unsold seats in the tier.
func (t *TicketTier) Remaining() int {
	return t.QuantityTotal - t.QuantitySold
}

// OnSaleAt reports whether the tier can be sold at the given moment.
func (t *TicketTier) OnSaleAt(now time.Time) bool {
	return t.Active && !now.Before(t.SalesStart) && now.Before(t.SalesEnd)
}

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed_amount"
)

type PromoCode struct {
	ID             string          `db:"id" json:"id"`
	EventID        string          `db:"event_id" json:"event_id"`
	Code           string          `db:"code" json:"code"`
	DiscountType   string          `db:"discount_type" json:"discount_type"`
	DiscountAmount decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	UsageLimit     *int            `db:"usage_limit" json:"usage_limit,omitempty"`
	UsageCount     int             `db:"usage_count" json:"usage_count"`
	ExpiresAt      time.Time       `db:"expires_at" json:"expires_at"`
	Active         bool            `db:"active" json:"active"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// Buyer is a tagged variant: either a registered account or a full guest
// contact triple. Construct through RegisteredBuyer/GuestBuyer so the
// "all three guest fields required" rule cannot be bypassed.
type Buyer struct {
	Kind       string `db:"buyer_kind" json:"kind"`
	UserID     string `db:"buyer_user_id" json:"user_id,omitempty"`
	GuestName  string `db:"guest_name" json:"guest_name,omitempty"`
	GuestEmail string `db:"guest_email" json:"guest_email,omitempty"`
	GuestPhone string `db:"guest_phone" json:"guest_phone,omitempty"`
}

const (
	BuyerRegistered = "registered"
	BuyerGuest      = "guest"
)

func RegisteredBuyer(userID string) (Buyer, error) {
	if strings.TrimSpace(userID) == "" {
		return Buyer{}, ErrBuyerInfoIncomplete
	}
	return Buyer{Kind: BuyerRegistered, UserID: userID}, nil
}

func GuestBuyer(name, email, phone string) (Buyer, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if name == "" || email == "" || phone == "" {
		return Buyer{}, ErrBuyerInfoIncomplete
	}
	return Buyer{Kind: BuyerGuest, GuestName: name, GuestEmail: email, GuestPhone: phone}, nil
}

// Email returns the address notifications go to; empty for registered
// buyers whose address lives on the account.
func (b Buyer) Email() string {
	if b.Kind == BuyerGuest {
		return b.GuestEmail
	}
	return ""
}

const (
	OrderPending  = "pending"
	OrderPaid     = "paid"
	OrderFailed   = "failed"
	OrderRefunded = "refunded"
)

// Order is the purchase intent: created before payment, immutable once
// paid except for the refund transition.
type Order struct {
	ID        string          `db:"id" json:"id"`
	EventID   string          `db:"event_id" json:"event_id"`
	TierID    string          `db:"tier_id" json:"tier_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Buyer     Buyer           `json:"buyer"`
	Subtotal  decimal.Decimal `db:"subtotal" json:"subtotal"`
	Discount  decimal.Decimal `db:"discount" json:"discount"`
	Total     decimal.Decimal `db:"total" json:"total"`
	PromoID   string          `db:"promo_id" json:"promo_id,omitempty"`
	Status    string          `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

const (
	TicketAvailable = "available"
	TicketValid     = "valid"
	TicketUsed      = "used"
	TicketCancelled = "cancelled"
	TicketRefunded  = "refunded"
)

type Ticket struct {
	ID           string     `db:"id" json:"id"`
	EventID      string     `db:"event_id" json:"event_id"`
	TierID       string     `db:"tier_id" json:"tier_id"`
	OrderID      string     `db:"order_id" json:"order_id"`
	TicketNumber string     `db:"ticket_number" json:"ticket_number"`
	ScanCode     string     `db:"scan_code" json:"scan_code"`
	Status       string     `db:"status" json:"status"`
	AttendeeName string     `db:"attendee_name" json:"attendee_name,omitempty"`
	CheckedInAt  *time.Time `db:"checked_in_at" json:"checked_in_at,omitempty"`
	CheckedInBy  string     `db:"checked_in_by" json:"checked_in_by,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Voided reports whether the ticket is in a terminal non-used state.
func (t *Ticket) Voided() bool {
	return t.Status == TicketCancelled || t.Status == TicketRefunded
}

const (
	TxnPending   = "pending"
	TxnCompleted = "completed"
	TxnFailed    = "failed"
	TxnRefunded  = "refunded"
)

type Transaction struct {
	ID              string          `db:"id" json:"id"`
	OrderID         string          `db:"order_id" json:"order_id"`
	EventID         string          `db:"event_id" json:"event_id"`
	PartnerID       string          `db:"partner_id" json:"partner_id"`
	GrossAmount     decimal.Decimal `db:"gross_amount" json:"gross_amount"`
	PlatformFee     decimal.Decimal `db:"platform_fee" json:"platform_fee"`
	ProcessingFee   decimal.Decimal `db:"processing_fee" json:"processing_fee"`
	OrganizerPayout decimal.Decimal `db:"organizer_payout" json:"organizer_payout"`
	Status          string          `db:"status" json:"status"`
	PayoutID        string          `db:"payout_id" json:"payout_id,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

const (
	PayoutPendingRequest = "pending_request"
	PayoutApproved       = "approved"
	PayoutProcessing     = "processing"
	PayoutCompleted      = "completed"
	PayoutRejected       = "rejected"
)

type Payout struct {
	ID          string          `db:"id" json:"id"`
	PartnerID   string          `db:"partner_id" json:"partner_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Status      string          `db:"status" json:"status"`
	BankAccount string          `db:"bank_account" json:"bank_account"`
	BankName    string          `db:"bank_name" json:"bank_name"`
	RequestedAt time.Time       `db:"requested_at" json:"requested_at"`
	ProcessedAt *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// Partner is the organizer account that owns events and receives payouts.
type Partner struct {
	ID          string    `db:"id" json:"id"`
	OwnerUserID string    `db:"owner_user_id" json:"owner_user_id"`
	Name        string    `db:"name" json:"name"`
	BankAccount string    `db:"bank_account" json:"bank_account"`
	BankName    string    `db:"bank_name" json:"bank_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DashboardMetrics is the settlement view over completed transactions.
// Ticket counts are recomputed from ticket rows, never from the cached
// quantity_sold counters.
type DashboardMetrics struct {
	PartnerID         string          `json:"partner_id"`
	GrossRevenue      decimal.Decimal `json:"gross_revenue"`
	PlatformFees      decimal.Decimal `json:"platform_fees"`
	ProcessingFees    decimal.Decimal `json:"processing_fees"`
	NetRevenue        decimal.Decimal `json:"net_revenue"`
	TicketsIssued     int64           `json:"tickets_issued"`
	OrderCount        int64           `json:"order_count"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	AvailableBalance  decimal.Decimal `json:"available_balance"`
	ComputedAt        time.Time       `json:"computed_at"`
}

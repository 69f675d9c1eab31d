package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound        = "EVENT_NOT_FOUND"
	EventNotActive       = "EVENT_NOT_ACTIVE"
	TierNotFound         = "TIER_NOT_FOUND"
	TierInactive         = "TIER_INACTIVE"
	OutsideSalesWindow   = "OUTSIDE_SALES_WINDOW"
	SoldOut              = "SOLD_OUT"
	OrderSizeInvalid     = "ORDER_SIZE_INVALID"
	BuyerInfoIncomplete  = "BUYER_INFO_INCOMPLETE"
	PromoNotFound        = "PROMO_NOT_FOUND"
	PromoInactive        = "PROMO_INACTIVE"
	PromoExpired         = "PROMO_EXPIRED"
	PromoUsageLimit      = "PROMO_USAGE_LIMIT_REACHED"
	OrderNotFound        = "ORDER_NOT_FOUND"
	TicketNotFound       = "TICKET_NOT_FOUND"
	AlreadyRefunded      = "ALREADY_REFUNDED"
	OrderNotRefundable   = "ORDER_NOT_REFUNDABLE"
	PartnerNotFound      = "PARTNER_NOT_FOUND"
	InsufficientBalance  = "INSUFFICIENT_BALANCE"
	NoBankOnFile         = "NO_BANK_ON_FILE"
	PaymentUnavailable   = "PAYMENT_GATEWAY_UNAVAILABLE"
	PayoutNotFound       = "PAYOUT_NOT_FOUND"
	PayoutNotPending     = "PAYOUT_NOT_PENDING"
	PayoutBundleMismatch = "PAYOUT_BUNDLE_MISMATCH"
	Unauthorized         = "UNAUTHORIZED"
)

type BuyerRequest struct {
	UserID     string `json:"user_id"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email" validate:"omitempty,email"`
	GuestPhone string `json:"guest_phone"`
}

type CreateOrderRequest struct {
	EventID   string       `json:"event_id" validate:"required"`
	TierID    string       `json:"tier_id" validate:"required"`
	Quantity  int          `json:"quantity" validate:"required,gt=0"`
	Buyer     BuyerRequest `json:"buyer" validate:"required"`
	PromoCode string       `json:"promo_code"`
}

type OrderResponse struct {
	OrderID    string          `json:"order_id"`
	PaymentURL string          `json:"payment_url"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
}

type PaymentCallbackRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Success bool   `json:"success"`
}

type ScanRequest struct {
	Code         string `json:"code" validate:"required"`
	EventContext string `json:"event_context"`
}

type ScanResponse struct {
	Status       string     `json:"status"`
	TicketNumber string     `json:"ticket_number,omitempty"`
	AttendeeName string     `json:"attendee_name,omitempty"`
	EventName    string     `json:"event_name,omitempty"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
}

type RefundRequest struct {
	TicketID string `json:"ticket_id" validate:"required"`
}

type RefundResponse struct {
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
}

type PayoutRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type PayoutResponse struct {
	PayoutID string `json:"payout_id"`
}

type CreateEventRequest struct {
	PartnerID             string    `json:"partner_id" validate:"required"`
	Name                  string    `json:"name" validate:"required"`
	Description           string    `json:"description"`
	Status                string    `json:"status"`
	SalesStart            time.Time `json:"sales_start" validate:"required"`
	SalesEnd              time.Time `json:"sales_end" validate:"required"`
	Capacity              int       `json:"capacity" validate:"gt=0"`
	PaymentTimeoutMinutes int       `json:"payment_timeout_minutes" validate:"gte=1"`
}

type CreateTierRequest struct {
	Name          string          `json:"name" validate:"required"`
	Price         decimal.Decimal `json:"price" validate:"required"`
	QuantityTotal int             `json:"quantity_total" validate:"gt=0"`
	MinPerOrder   int             `json:"min_per_order"`
	MaxPerOrder   int             `json:"max_per_order"`
	SalesStart    time.Time       `json:"sales_start" validate:"required"`
	SalesEnd      time.Time       `json:"sales_end" validate:"required"`
}

type CreatePromoRequest struct {
	Code           string          `json:"code" validate:"required,min=2,max=64"`
	DiscountType   string          `json:"discount_type" validate:"required,oneof=percentage fixed_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount" validate:"required"`
	UsageLimit     *int            `json:"usage_limit"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func NotFoundError(c *ginext.Context, code, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func ConflictError(c *ginext.Context, code, desc string) {
	c.JSON(409, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func UnauthorizedError(c *ginext.Context) {
	c.JSON(403, Response{
		Status: "error",
		Error: &Error{
			Code: Unauthorized,
			Desc: "Not allowed",
		},
	})
}

func DependencyError(c *ginext.Context, code, desc string) {
	c.JSON(502, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}

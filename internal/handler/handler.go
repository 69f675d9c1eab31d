// Package handler maps HTTP requests onto the engine's services and
// service errors onto the response codes of the API contract.
package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"tixengine/internal/dto"
	"tixengine/internal/model"
	"tixengine/internal/monitoring"
	"tixengine/internal/repo"
	"tixengine/internal/service"
	"tixengine/pkg/validator"
)

// userIDHeader carries the acting user resolved by the upstream auth
// layer; authentication itself is outside the engine.
const userIDHeader = "X-User-ID"

type Handler struct {
	orders     *service.OrderService
	scans      *service.ScanService
	settlement *service.SettlementService
	events     *service.EventService
	repo       repo.Repository
	log        *zerolog.Logger
}

func New(orders *service.OrderService, scans *service.ScanService, settlement *service.SettlementService, events *service.EventService, r repo.Repository, log *zerolog.Logger) *Handler {
	return &Handler{
		orders:     orders,
		scans:      scans,
		settlement: settlement,
		events:     events,
		repo:       r,
		log:        log,
	}
}

// respondError translates sentinel errors into the API's typed codes.
// Nothing is swallowed into a generic failure except genuinely unknown
// errors, which are logged with context.
func (h *Handler) respondError(c *ginext.Context, err error) {
	switch {
	case errors.Is(err, repo.ErrEventNotFound):
		dto.NotFoundError(c, dto.EventNotFound, "Event not found")
	case errors.Is(err, service.ErrEventNotActive):
		dto.BadResponseError(c, dto.EventNotActive, "Event is not active")
	case errors.Is(err, repo.ErrTierNotFound):
		dto.NotFoundError(c, dto.TierNotFound, "Ticket tier not found")
	case errors.Is(err, repo.ErrTierInactive):
		dto.BadResponseError(c, dto.TierInactive, "Ticket tier is inactive")
	case errors.Is(err, repo.ErrOutsideSalesWindow):
		dto.BadResponseError(c, dto.OutsideSalesWindow, "Tier is outside its sales window")
	case errors.Is(err, repo.ErrSoldOut):
		dto.ConflictError(c, dto.SoldOut, "Not enough tickets remaining")
	case errors.Is(err, service.ErrOrderSizeInvalid):
		dto.BadResponseError(c, dto.OrderSizeInvalid, "Quantity is outside the tier's per-order limits")
	case errors.Is(err, model.ErrBuyerInfoIncomplete):
		dto.BadResponseError(c, dto.BuyerInfoIncomplete, "Guest orders require name, email and phone")
	case errors.Is(err, repo.ErrPromoNotFound):
		dto.NotFoundError(c, dto.PromoNotFound, "Promo code not found")
	case errors.Is(err, service.ErrPromoInactive):
		dto.BadResponseError(c, dto.PromoInactive, "Promo code is inactive")
	case errors.Is(err, service.ErrPromoExpired):
		dto.BadResponseError(c, dto.PromoExpired, "Promo code has expired")
	case errors.Is(err, repo.ErrPromoUsageLimitReached):
		dto.ConflictError(c, dto.PromoUsageLimit, "Promo code usage limit reached")
	case errors.Is(err, repo.ErrOrderNotFound):
		dto.NotFoundError(c, dto.OrderNotFound, "Order not found")
	case errors.Is(err, repo.ErrTicketNotFound):
		dto.NotFoundError(c, dto.TicketNotFound, "Ticket not found")
	case errors.Is(err, repo.ErrAlreadyRefunded):
		dto.ConflictError(c, dto.AlreadyRefunded, "Order has already been refunded")
	case errors.Is(err, repo.ErrOrderNotRefundable):
		dto.BadResponseError(c, dto.OrderNotRefundable, "Order is not in a refundable state")
	case errors.Is(err, repo.ErrPartnerNotFound):
		dto.NotFoundError(c, dto.PartnerNotFound, "Partner not found")
	case errors.Is(err, service.ErrInsufficientBalance):
		dto.BadResponseError(c, dto.InsufficientBalance, "Requested amount exceeds available balance")
	case errors.Is(err, service.ErrNoBankOnFile):
		dto.BadResponseError(c, dto.NoBankOnFile, "No bank destination on file")
	case errors.Is(err, service.ErrInvalidAmount):
		dto.BadResponseError(c, dto.FieldIncorrect, "Amount must be positive")
	case errors.Is(err, service.ErrPaymentUnavailable):
		dto.DependencyError(c, dto.PaymentUnavailable, "Payment gateway is unavailable, please retry")
	case errors.Is(err, repo.ErrPayoutNotFound):
		dto.NotFoundError(c, dto.PayoutNotFound, "Payout not found")
	case errors.Is(err, repo.ErrPayoutNotPending):
		dto.ConflictError(c, dto.PayoutNotPending, "Payout is not awaiting approval")
	case errors.Is(err, repo.ErrPayoutBundleMismatch):
		dto.ConflictError(c, dto.PayoutBundleMismatch, "Amount does not match whole settled transactions")
	default:
		h.log.Error().Err(err).Msg("unhandled service error")
		dto.InternalServerError(c)
	}
}

func buyerFromRequest(b dto.BuyerRequest) (model.Buyer, error) {
	if b.UserID != "" {
		return model.RegisteredBuyer(b.UserID)
	}
	return model.GuestBuyer(b.GuestName, b.GuestEmail, b.GuestPhone)
}

func (h *Handler) CreateOrder(c *ginext.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	buyer, err := buyerFromRequest(req.Buyer)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.orders.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		EventID:   req.EventID,
		TierID:    req.TierID,
		Quantity:  req.Quantity,
		Buyer:     buyer,
		PromoCode: req.PromoCode,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	dto.SuccessCreatedResponse(c, dto.OrderResponse{
		OrderID:    result.OrderID,
		PaymentURL: result.PaymentURL,
		Subtotal:   result.Subtotal,
		Discount:   result.Discount,
		Total:      result.Total,
	})
}

// PaymentCallback is the gateway's asynchronous result webhook.
func (h *Handler) PaymentCallback(c *ginext.Context) {
	var req dto.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	if err := h.orders.HandlePaymentResult(c.Request.Context(), req.OrderID, req.Success); err != nil {
		h.respondError(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}

func (h *Handler) Scan(c *ginext.Context) {
	started := time.Now()

	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		dto.UnauthorizedError(c)
		return
	}

	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	result, err := h.scans.Scan(c.Request.Context(), req.Code, userID, req.EventContext)
	if err != nil {
		h.respondError(c, err)
		return
	}
	monitoring.ObserveScanDuration(time.Since(started))

	dto.SuccessResponse(c, dto.ScanResponse{
		Status:       result.Status,
		TicketNumber: result.TicketNumber,
		AttendeeName: result.AttendeeName,
		EventName:    result.EventName,
		CheckedInAt:  result.CheckedInAt,
	})
}

func (h *Handler) Refund(c *ginext.Context) {
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	amount, err := h.settlement.Refund(c.Request.Context(), req.TicketID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	dto.SuccessResponse(c, dto.RefundResponse{RefundedAmount: amount})
}

func (h *Handler) RequestPayout(c *ginext.Context) {
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		dto.UnauthorizedError(c)
		return
	}

	var req dto.PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	partner, err := h.repo.GetPartnerByOwner(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	id, err := h.settlement.RequestPayout(c.Request.Context(), partner.ID, req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	dto.SuccessCreatedResponse(c, dto.PayoutResponse{PayoutID: id})
}

func (h *Handler) ApprovePayout(c *ginext.Context) {
	payoutID := c.Param("id")
	if payoutID == "" {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid payout ID")
		return
	}

	if err := h.settlement.ApprovePayout(c.Request.Context(), payoutID); err != nil {
		h.respondError(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}

func (h *Handler) Dashboard(c *ginext.Context) {
	partnerID := c.Param("id")
	if partnerID == "" {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid partner ID")
		return
	}

	metrics, err := h.settlement.DashboardMetrics(c.Request.Context(), partnerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	dto.SuccessResponse(c, metrics)
}

func (h *Handler) CreateEvent(c *ginext.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	id, err := h.events.CreateEvent(c.Request.Context(), &model.Event{
		PartnerID:             req.PartnerID,
		Name:                  req.Name,
		Description:           req.Description,
		Status:                req.Status,
		SalesStart:            req.SalesStart,
		SalesEnd:              req.SalesEnd,
		Capacity:              req.Capacity,
		PaymentTimeoutMinutes: req.PaymentTimeoutMinutes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	dto.SuccessCreatedResponse(c, dto.CreatedResponse{ID: id})
}

func (h *Handler) CreateTier(c *ginext.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	var req dto.CreateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	id, err := h.events.CreateTier(c.Request.Context(), &model.TicketTier{
		EventID:       eventID,
		Name:          req.Name,
		Price:         req.Price,
		QuantityTotal: req.QuantityTotal,
		MinPerOrder:   req.MinPerOrder,
		MaxPerOrder:   req.MaxPerOrder,
		Active:        true,
		SalesStart:    req.SalesStart,
		SalesEnd:      req.SalesEnd,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	dto.SuccessCreatedResponse(c, dto.CreatedResponse{ID: id})
}

func (h *Handler) CreatePromo(c *ginext.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	var req dto.CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	id, err := h.events.CreatePromoCode(c.Request.Context(), &model.PromoCode{
		EventID:        eventID,
		Code:           req.Code,
		DiscountType:   req.DiscountType,
		DiscountAmount: req.DiscountAmount,
		UsageLimit:     req.UsageLimit,
		ExpiresAt:      req.ExpiresAt,
		Active:         true,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	dto.SuccessCreatedResponse(c, dto.CreatedResponse{ID: id})
}

package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tixengine/internal/model"
	"tixengine/internal/monitoring"
	"tixengine/internal/repo"
	"tixengine/internal/scancode"
)

// OrderService runs the order/issuance workflow: reserve inventory,
// persist the pending purchase intent, hand off to the payment gateway,
// and mint tickets once payment confirms.
type OrderService struct {
	repo   repo.Repository
	gw     Gateway
	pub    Publisher
	notify Notifier
	fees   FeePolicy
	log    *zerolog.Logger
}

func NewOrderService(r repo.Repository, gw Gateway, pub Publisher, notify Notifier, fees FeePolicy, log *zerolog.Logger) *OrderService {
	return &OrderService{repo: r, gw: gw, pub: pub, notify: notify, fees: fees, log: log}
}

type CreateOrderInput struct {
	EventID   string
	TierID    string
	Quantity  int
	Buyer     model.Buyer
	PromoCode string
}

type OrderResult struct {
	OrderID    string
	PaymentURL string
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
}

// OrderExpireMessage rides the delayed exchange and triggers the reaper
// once the payment window closes.
type OrderExpireMessage struct {
	OrderID  string    `json:"order_id"`
	EventID  string    `json:"event_id"`
	ExpireAt time.Time `json:"expire_at"`
}

func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*OrderResult, error) {
	event, err := s.repo.GetEventByID(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status != model.EventActive {
		return nil, ErrEventNotActive
	}

	tier, err := s.repo.GetTierByID(ctx, in.TierID)
	if err != nil {
		return nil, err
	}
	if tier.EventID != event.ID {
		return nil, repo.ErrTierNotFound
	}

	// Order-size bounds are checked before the counter is ever touched.
	if in.Quantity < tier.MinPerOrder || in.Quantity > tier.MaxPerOrder {
		return nil, ErrOrderSizeInvalid
	}

	now := time.Now()
	if !tier.Active {
		return nil, repo.ErrTierInactive
	}
	if !tier.OnSaleAt(now) {
		return nil, repo.ErrOutsideSalesWindow
	}

	subtotal := tier.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))
	discount := decimal.Zero
	total := subtotal
	promoID := ""

	if in.PromoCode != "" {
		promo, err := s.repo.GetPromoByCode(ctx, event.ID, NormalizeCode(in.PromoCode))
		if err != nil {
			return nil, err
		}
		res, err := EvaluatePromo(promo, subtotal, now)
		if err != nil {
			return nil, err
		}
		promoID = res.PromoID
		discount = res.Discount
		total = res.Final
	}

	order := &model.Order{
		ID:       uuid.New().String(),
		EventID:  event.ID,
		TierID:   tier.ID,
		Quantity: in.Quantity,
		Buyer:    in.Buyer,
		Subtotal: subtotal,
		Discount: discount,
		Total:    total,
		PromoID:  promoID,
		Status:   model.OrderPending,
	}

	// Reservation, promo consumption and the pending order commit or
	// roll back together.
	if err := s.repo.CreateOrderTx(ctx, order); err != nil {
		monitoring.TrackOrder("rejected")
		return nil, err
	}

	paymentURL, err := s.gw.Initiate(ctx, order)
	if err != nil {
		s.log.Error().Err(err).Str("order_id", order.ID).Msg("payment gateway initiate failed, failing order")
		if _, ferr := s.repo.FailOrderTx(ctx, order.ID); ferr != nil {
			s.log.Error().Err(ferr).Str("order_id", order.ID).Msg("failed to release reservation after gateway error")
		}
		monitoring.TrackOrder("gateway_error")
		return nil, ErrPaymentUnavailable
	}

	msg := OrderExpireMessage{
		OrderID:  order.ID,
		EventID:  event.ID,
		ExpireAt: now.Add(time.Duration(event.PaymentTimeoutMinutes) * time.Minute),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal expire message")
	} else if err := s.pub.Publish(payload, event.PaymentTimeoutMinutes*60); err != nil {
		s.log.Error().Err(err).Str("order_id", order.ID).Msg("failed to publish expire message")
	}

	if email := order.Buyer.Email(); email != "" {
		if err := s.notify.OrderPending(email, event.Name, event.PaymentTimeoutMinutes); err != nil {
			s.log.Warn().Err(err).Str("order_id", order.ID).Msg("failed to send pending order email")
		}
	}

	s.log.Info().
		Str("order_id", order.ID).
		Str("tier_id", tier.ID).
		Int("quantity", in.Quantity).
		Str("total", total.String()).
		Msg("order created")
	monitoring.TrackOrder("created")

	return &OrderResult{
		OrderID:    order.ID,
		PaymentURL: paymentURL,
		Subtotal:   subtotal,
		Discount:   discount,
		Total:      total,
	}, nil
}

// HandlePaymentResult processes the gateway callback. Success mints the
// order's tickets and records the settlement transaction; failure
// releases the reservation. Both directions are idempotent: an order
// that already left pending is reported and skipped.
func (s *OrderService) HandlePaymentResult(ctx context.Context, orderID string, success bool) error {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !success {
		failed, err := s.repo.FailOrderTx(ctx, orderID)
		if err != nil {
			return err
		}
		if !failed {
			s.log.Info().Str("order_id", orderID).Msg("payment failure for non-pending order, skipping")
			return nil
		}
		s.log.Info().Str("order_id", orderID).Msg("order failed, reservation released")
		monitoring.TrackOrder("payment_failed")
		return nil
	}

	event, err := s.repo.GetEventByID(ctx, order.EventID)
	if err != nil {
		return err
	}

	tickets := make([]model.Ticket, 0, order.Quantity)
	for i := 0; i < order.Quantity; i++ {
		tickets = append(tickets, model.Ticket{
			ID:           uuid.New().String(),
			EventID:      order.EventID,
			TierID:       order.TierID,
			OrderID:      order.ID,
			TicketNumber: scancode.NewTicketNumber(),
			ScanCode:     scancode.NewScanCode(),
			Status:       model.TicketValid,
			AttendeeName: order.Buyer.GuestName,
		})
	}

	platformFee := percentOf(order.Total, s.fees.PlatformPercent)
	processingFee := percentOf(order.Total, s.fees.ProcessingPercent)
	txn := &model.Transaction{
		ID:              uuid.New().String(),
		OrderID:         order.ID,
		EventID:         order.EventID,
		PartnerID:       event.PartnerID,
		GrossAmount:     order.Total,
		PlatformFee:     platformFee,
		ProcessingFee:   processingFee,
		OrganizerPayout: order.Total.Sub(platformFee).Sub(processingFee),
		Status:          model.TxnCompleted,
	}

	confirmed, err := s.repo.ConfirmOrderTx(ctx, orderID, tickets, txn)
	if err != nil {
		return err
	}
	if !confirmed {
		s.log.Info().Str("order_id", orderID).Msg("payment success for non-pending order, skipping")
		return nil
	}

	if email := order.Buyer.Email(); email != "" {
		if err := s.notify.TicketsIssued(email, event.Name, order.Quantity); err != nil {
			s.log.Warn().Err(err).Str("order_id", orderID).Msg("failed to send issuance email")
		}
	}

	s.log.Info().
		Str("order_id", orderID).
		Int("tickets", order.Quantity).
		Msg("payment confirmed, tickets minted")
	monitoring.TrackOrder("paid")
	return nil
}

// ExpireOrder is the reaper path: an order still pending past the
// payment window is failed and its reservation released. Returns whether
// any state changed.
func (s *OrderService) ExpireOrder(ctx context.Context, orderID string) (bool, error) {
	expired, err := s.repo.FailOrderTx(ctx, orderID)
	if err != nil {
		return false, err
	}
	if expired {
		monitoring.TrackOrder("expired")
	}
	return expired, nil
}

// Package consumerWorker reaps orders left pending past their payment
// window: the delayed message armed at order creation arrives here, and
// a still-pending order gets failed with its reservation released.
package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"tixengine/internal/rabbit"
	"tixengine/internal/service"
)

type Reader struct {
	RMQ    *rabbit.Client
	orders *service.OrderService
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, orders *service.OrderService) *Reader {
	return &Reader{
		RMQ:    rmq,
		orders: orders,
		done:   make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("order expiry reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg service.OrderExpireMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Msgf("Failed to unmarshal message: %s", string(body))
				return err
			}

			zlog.Logger.Info().
				Str("order_id", msg.OrderID).
				Str("event_id", msg.EventID).
				Msg("received order expiry message")

			expired, err := r.orders.ExpireOrder(cctx, msg.OrderID)
			if err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("order_id", msg.OrderID).
					Msg("Failed to expire order (DB operation)")
				return err
			}

			if !expired {
				zlog.Logger.Info().
					Str("order_id", msg.OrderID).
					Msg("order already paid or failed, skipping")
				return nil
			}

			zlog.Logger.Info().
				Str("order_id", msg.OrderID).
				Msg("pending order expired, reservation released")
			return nil
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("order expiry reader stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

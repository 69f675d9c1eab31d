package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	orderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_orders_total",
			Help: "Order workflow outcomes",
		},
		[]string{"status"},
	)

	scanOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_scans_total",
			Help: "Redemption scan outcomes",
		},
		[]string{"result"},
	)

	refunds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_refunds_total",
			Help: "Completed order refunds",
		},
	)

	payoutOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_payouts_total",
			Help: "Payout request outcomes",
		},
		[]string{"status"},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticket_scan_duration_seconds",
			Help:    "Duration of scan requests",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

func TrackOrder(status string) {
	orderOperations.WithLabelValues(status).Inc()
}

func TrackScan(result string) {
	scanOperations.WithLabelValues(result).Inc()
}

func TrackRefund() {
	refunds.Inc()
}

func TrackPayout(status string) {
	payoutOperations.WithLabelValues(status).Inc()
}

func ObserveScanDuration(d time.Duration) {
	scanDuration.Observe(d.Seconds())
}

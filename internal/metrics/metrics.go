// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diviso_rpc_requests_total",
		Help: "Connect RPCs handled, by procedure and result code.",
	}, []string{"procedure", "code"})

	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "diviso_rpc_duration_seconds",
		Help:    "Connect RPC latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"procedure"})

	BalanceNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diviso_balance_notifications_total",
		Help: "Balance notification fan-out outcomes per debtor.",
	}, []string{"outcome"})

	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diviso_rate_limit_rejections_total",
		Help: "Requests rejected by a rate limiter.",
	}, []string{"scope"})

	OCRRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diviso_ocr_requests_total",
		Help: "OCR requests by detection feature and outcome.",
	}, []string{"feature", "outcome"})

	RealtimeChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "diviso_realtime_channels",
		Help: "Open realtime channels in this process.",
	})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diviso_webhook_events_total",
		Help: "Payment webhook deliveries by result.",
	}, []string{"result"})
)

// Outcome labels for BalanceNotifications.
const (
	OutcomeSent      = "sent"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
	OutcomeOrphaned  = "orphaned"
)

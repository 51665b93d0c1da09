package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutSessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_created_total",
		Help: "Total number of hosted checkout sessions created",
	})

	OrdersCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_committed_total",
		Help: "Total number of orders committed from webhook deliveries",
	})

	OrderCommitFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_commit_failures_total",
		Help: "Total number of order commits that rolled back",
	}, []string{"reason"})

	WebhookSignatureFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_signature_failures_total",
		Help: "Total number of webhook deliveries rejected for a bad signature",
	})

	GatewayUpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_upstream_errors_total",
		Help: "Total number of proxy requests that failed to reach the upstream",
	}, []string{"route"})
)

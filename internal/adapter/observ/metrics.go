package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Checkout outcomes: placed, replayed, rejected, conflict, failed.
var CheckoutTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fashion",
		Name:      "checkout_total",
		Help:      "Checkout attempts by outcome",
	},
	[]string{"outcome"},
)

var OrderStatusChanges = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fashion",
		Name:      "order_status_changes_total",
		Help:      "Applied order status transitions by source and target status",
	},
	[]string{"source", "to"},
)

var OutboxRelayed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fashion",
		Name:      "outbox_relayed_total",
		Help:      "Outbox messages handed to the broker, by result",
	},
	[]string{"result"},
)

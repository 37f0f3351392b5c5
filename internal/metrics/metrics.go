package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersTotal counts recorded consumptions by source channel.
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubtab_orders_total",
		Help: "Number of consumptions recorded.",
	}, []string{"channel"})

	// ReversalsTotal counts reversals by original event type.
	ReversalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubtab_reversals_total",
		Help: "Number of transaction reversals recorded.",
	}, []string{"event_type"})

	// TopUpsPaidTotal counts top-ups confirmed as paid.
	TopUpsPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubtab_topups_paid_total",
		Help: "Number of top-ups transitioned to paid.",
	})
)

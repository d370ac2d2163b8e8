package orders

import "github.com/prometheus/client_golang/prometheus"

var (
	ordersPlacedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Total number of orders placed",
		},
		[]string{"method"},
	)

	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_payments_total",
			Help: "Total number of payment callbacks processed",
		},
		[]string{"status"},
	)

	refundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_refunds_total",
			Help: "Total number of refund attempts",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(ordersPlacedTotal)
	prometheus.MustRegister(paymentsTotal)
	prometheus.MustRegister(refundsTotal)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_transactions_total",
			Help: "Completed ledger operations",
		},
		[]string{"type"}, // deposit|withdrawal|payment|refund|fee|commission
	)
	TransactionsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_transactions_failed_total",
			Help: "Rejected ledger operations",
		},
		[]string{"reason"}, // invalid_amount|insufficient_funds|storage
	)

	ShipmentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shipments_created_total",
			Help: "Shipments persisted (payment included when wallet-paid)",
		},
	)

	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(TransactionsTotal)
	prometheus.MustRegister(TransactionsFailed)
	prometheus.MustRegister(ShipmentsCreated)
	prometheus.MustRegister(WorkerQueueDepth)
}

package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_completed_total",
		Help: "Total number of completed sales",
	}, []string{"payment_method"})

	SalesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	SaleStepFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sale_step_failures_total",
		Help: "Total number of non-fatal failures inside the checkout pipeline",
	}, []string{"step"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of the full checkout pipeline",
		Buckets: prometheus.DefBuckets,
	})

	StockAdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_total",
		Help: "Total number of manual stock adjustments and restocks",
	}, []string{"type"})

	StockClampsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_clamps_total",
		Help: "Total number of stock decrements clamped at zero",
	})

	CreditChargesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credit_charges_total",
		Help: "Total number of fiado sales charged to client debt",
	})

	PaymentsRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_registered_total",
		Help: "Total number of client debt payments registered",
	})

	LedgerWriteFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_write_failures_total",
		Help: "Total number of non-fatal client ledger history write failures",
	}, []string{"entry"})

	LowStockAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "low_stock_alerts_total",
		Help: "Total number of low-stock alerts emitted",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

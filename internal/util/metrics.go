package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TablesOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tables_opened_total",
		Help: "Total number of table sessions opened",
	})

	TablesClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tables_closed_total",
		Help: "Total number of table sessions settled",
	})

	TablesMovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tables_moved_total",
		Help: "Total number of mid-session table relocations",
	})

	TableOpsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "table_ops_rejected_total",
		Help: "Total number of rejected table lifecycle operations",
	}, []string{"op", "reason"})

	SalesAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_amount_total",
		Help: "Revenue settled, by payment method",
	}, []string{"method"})

	OrderLinesAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_lines_added_total",
		Help: "Total number of order lines added",
	})

	OrderLinesVoidedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_lines_voided_total",
		Help: "Total number of unpaid order lines voided",
	})

	StockConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_conflicts_total",
		Help: "Total number of orders rejected for insufficient stock",
	})

	TillClosesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "till_closes_total",
		Help: "Total number of till close snapshots",
	})

	PricingCacheRefreshTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_cache_refresh_total",
		Help: "Total number of pricing cache refreshes from the store",
	})

	CloseTableLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "close_table_latency_seconds",
		Help:    "Latency of the table close transaction",
		Buckets: prometheus.DefBuckets,
	})

	TillTotalsLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "till_totals_latency_seconds",
		Help:    "Latency of the concurrent till totals aggregation",
		Buckets: prometheus.DefBuckets,
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

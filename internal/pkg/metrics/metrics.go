// Package metrics provides Prometheus metrics definitions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "payslipvault"

var (
	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status_code"},
	)

	// DBPoolConnections tracks database connection pool state.
	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "pool_connections",
			Help:      "Number of database connections by state",
		},
		[]string{"state"},
	)

	// PayslipsUploaded counts stored payslips by upload mode (single, batch).
	PayslipsUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payslips",
			Name:      "uploaded_total",
			Help:      "Number of payslips persisted",
		},
		[]string{"mode"},
	)

	// PayslipsSent counts payslip emails by outcome (sent, failed).
	PayslipsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payslips",
			Name:      "sent_total",
			Help:      "Number of payslip email deliveries by outcome",
		},
		[]string{"outcome"},
	)
)
